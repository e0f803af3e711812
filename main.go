package main

import "rent-portfolio/commands"

func main() {
	commands.Execute()
}

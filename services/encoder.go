package services

import (
	"strings"

	"rent-portfolio/models"
)

// IndicatorPrefix starts every indicator column name.
const IndicatorPrefix = "binary_"

// DefaultStates are the states the portfolio operates in, as snake_case keys.
var DefaultStates = []string{
	"california", "colorado", "district_of_columbia", "florida", "maryland",
	"massachusetts", "new_jersey", "new_york", "north_carolina", "texas",
	"virginia", "washington",
}

// DefaultCities are the cities the portfolio operates in. Column names keep
// this casing, e.g. binary_Agoura_Hills.
var DefaultCities = []string{
	"Acton", "Addison", "Agoura_Hills", "Alexandria", "Allen", "Annapolis", "Arlington",
	"Artesia", "Aurora", "Austin", "Baltimore", "Bedford", "Bellevue", "Benbrook",
	"Bloomfield", "Bloomingdale", "Boca_Raton", "Boonton", "Boston", "Bothell", "Brea",
	"Brighton", "Brooklyn", "Burbank", "Burlington", "Calabasas", "Camarillo", "Cambridge",
	"Canoga_Park", "Carrollton", "Castle_Rock", "Charlotte", "Chestnut_Hill", "Chino_Hills",
	"Coconut_Creek", "Columbia", "Costa_Mesa", "Dallas", "Denver", "Doral", "Dublin",
	"Durham", "Edgewater", "Emeryville", "Encino", "Englewood", "Fairfax_County",
	"Falls_Church", "Florham_Park", "Flower_Mound", "Fort_Lauderdale", "Foster_City",
	"Framingham", "Fremont", "Frisco", "Garden_City", "Georgetown", "Glendale", "Glendora",
	"Great_Neck", "Harrison", "Herndon", "Hialeah", "Hingham", "Hoboken", "Hunt_Valley",
	"Huntington_Beach", "Huntington_Station", "Irvine", "Jersey_City", "La_Mesa", "Lafayette",
	"Lake_Forest", "Lakewood", "Laurel", "Lewisville", "Lexington", "Linthicum_Heights",
	"Littleton", "Long_Island", "Long_Island_City", "Los_Angeles", "Lynnwood", "Maplewood",
	"Margate", "Marlborough", "Melville", "Merrifield", "Miami", "Milford", "Miramar",
	"Monrovia", "Montville", "Mooresville", "Morrisville", "Mountain_View", "Natick",
	"Newcastle", "New_York_City", "North_Andover", "North_Bergen", "North_Bethesda",
	"North_Potomac", "Northborough", "Norwood", "Old_Bridge", "Owings_Mills", "Pacifica",
	"Parker", "Parsippany", "Pasadena", "Peabody", "Pflugerville", "Piscataway", "Pleasanton",
	"Plymouth", "Pomona", "Princeton", "Quincy", "Rancho_Santa_Margarita", "Redmond", "Reston",
	"Rockville", "Rockville_Centre", "Roseland", "San_Bruno", "San_Diego", "San_Dimas",
	"San_Francisco", "San_Jose", "San_Marcos", "Santa_Monica", "Saugus", "Seal_Beach",
	"Seattle", "Silver_Spring", "Smithtown", "Somers", "Somerville", "Studio_City", "Sudbury",
	"Sunnyvale", "Teaneck", "Thousand_Oaks", "Towson", "Tysons_Corner", "Union", "Union_City",
	"Vista", "Walnut_Creek", "Waltham", "Washington", "Wayne", "West_Hollywood",
	"West_Palm_Beach", "West_Windsor", "Westbury", "Westminster", "Wharton", "Wheaton",
	"White_Plains", "Wilmington", "Woburn", "Woodland_Hills", "Yonkers",
}

// Encoder expands state and city values into fixed one-hot indicator columns.
type Encoder struct {
	stateCols []string
	cityCols  []string
	stateIdx  map[string]string
	cityIdx   map[string]string
}

// NewEncoder builds an Encoder over the given enumerations.
func NewEncoder(states, cities []string) *Encoder {
	e := &Encoder{
		stateIdx: make(map[string]string, len(states)),
		cityIdx:  make(map[string]string, len(cities)),
	}
	for _, s := range states {
		col := IndicatorPrefix + s
		e.stateCols = append(e.stateCols, col)
		e.stateIdx[indicatorKey(s)] = col
	}
	for _, c := range cities {
		col := IndicatorPrefix + c
		e.cityCols = append(e.cityCols, col)
		e.cityIdx[indicatorKey(c)] = col
	}
	return e
}

// NewDefaultEncoder builds an Encoder over DefaultStates and DefaultCities.
func NewDefaultEncoder() *Encoder {
	return NewEncoder(DefaultStates, DefaultCities)
}

// Columns returns every indicator column, states first, in a fixed order.
func (e *Encoder) Columns() []string {
	cols := make([]string, 0, len(e.stateCols)+len(e.cityCols))
	cols = append(cols, e.stateCols...)
	return append(cols, e.cityCols...)
}

// Encode returns one 0/1 value per indicator column. Unknown values leave
// every indicator in their group at 0.
func (e *Encoder) Encode(state, city string) map[string]int {
	out := make(map[string]int, len(e.stateCols)+len(e.cityCols))
	for _, col := range e.stateCols {
		out[col] = 0
	}
	for _, col := range e.cityCols {
		out[col] = 0
	}
	if col, ok := e.stateIdx[indicatorKey(state)]; ok {
		out[col] = 1
	}
	if col, ok := e.cityIdx[indicatorKey(city)]; ok {
		out[col] = 1
	}
	return out
}

// EncodeMissing fills Indicators on units that do not have them yet and
// returns how many were encoded. Already-encoded units are left alone.
func (e *Encoder) EncodeMissing(units []models.UnitRecord) int {
	n := 0
	for i := range units {
		if units[i].Indicators != nil {
			continue
		}
		units[i].Indicators = e.Encode(units[i].State, units[i].City)
		n++
	}
	return n
}

func indicatorKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), "_")
	return strings.ReplaceAll(s, "-", "_")
}

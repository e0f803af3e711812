package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizerProperty(t *testing.T) {
	n := NewNormalizer(DefaultBrandPrefixes)

	tests := []struct {
		raw  string
		want string
	}{
		{"Avalon Mission Bay", "mission bay"},
		{"AVA   Mission  Bay ", "mission bay"},
		{"Avalon at Chestnut Hill", "chestnut hill"},
		{"eaves by Avalon Pleasanton", "pleasanton"},
		{"Avalon Ava Nob Hill", "nob hill"},
		{"Avalon", "avalon"},
		{"Avalon Ava", "ava"},
		{"Café Flats", "cafe flats"},
		{"Lavalon Heights", "lavalon heights"},
		{"", ""},
	}

	for _, tt := range tests {
		got := n.Property(tt.raw)
		if got != tt.want {
			t.Errorf("Property(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizerCity(t *testing.T) {
	n := NewNormalizer(DefaultBrandPrefixes)

	tests := []struct {
		raw  string
		want string
	}{
		{"San-Francisco", "san francisco"},
		{"san-francisco-apartments", "san francisco"},
		{"  Long Island   City apartments", "long island city"},
		{"New_York_City", "new york city"},
		{"Apartments", "apartments"},
		{"Doral", "doral"},
	}

	for _, tt := range tests {
		got := n.City(tt.raw)
		if got != tt.want {
			t.Errorf("City(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizerIdempotent(t *testing.T) {
	n := NewNormalizer(DefaultBrandPrefixes)

	inputs := []string{
		"Avalon at Avalon Mission Bay", "AVA ava", "Avalon", " eaves  by avalon  Foo ",
		"west-palm-beach-apartments", "Fort Lauderdale Apartments apartments",
		"  001-101 ", "APT   301", "Ñandú", "",
	}
	for _, in := range inputs {
		p := n.Property(in)
		assert.Equal(t, p, n.Property(p), "Property not idempotent for %q", in)
		c := n.City(in)
		assert.Equal(t, c, n.City(c), "City not idempotent for %q", in)
		u := n.Unit(in)
		assert.Equal(t, u, n.Unit(u), "Unit not idempotent for %q", in)
	}
}

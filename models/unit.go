package models

import "time"

// TimestampLayout is the layout used for first_seen/last_seen in the
// portfolio CSV.
const TimestampLayout = "2006-01-02 15:04:05"

// UnitRecord is one observed apartment unit at one point in time.
// Optional numeric fields are nil when the source omitted them or they
// could not be coerced to an integer.
type UnitRecord struct {
	State      string
	City       string
	AptComplex string
	BlockID    string
	AptID      string
	UnitNumber string

	AptName     string
	BedCount    *int
	BathCount   *int
	Sqft        *int
	Floor       string
	FloorPlanID string

	Price         *int
	AdjustedPrice *float64
	WebURL        string

	FirstSeen    time.Time
	LastSeen     time.Time
	DaysOnMarket *int

	// Indicators holds the binary_* columns. Nil means the record has not
	// been encoded yet.
	Indicators map[string]int

	// Extra carries persisted columns this program does not model so they
	// survive a read/write cycle.
	Extra map[string]string
}

// IdentityKey identifies one physical unit across scrape runs.
type IdentityKey struct {
	AptComplex string
	AptName    string
	AptID      string
}

// Key returns the record's identity key.
func (u *UnitRecord) Key() IdentityKey {
	return IdentityKey{AptComplex: u.AptComplex, AptName: u.AptName, AptID: u.AptID}
}

// Valid reports whether the record carries enough identity to be merged.
func (u *UnitRecord) Valid() bool {
	return u.AptComplex != "" && (u.AptID != "" || u.AptName != "")
}

// Portfolio is the accumulated collection of UnitRecords plus the order of
// any extra columns read from disk.
type Portfolio struct {
	Units        []UnitRecord
	ExtraColumns []string
}

// Len returns the number of units.
func (p *Portfolio) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Units)
}

// IntPtr is a helper for building optional integer fields.
func IntPtr(v int) *int { return &v }

// FloatPtr is a helper for building optional float fields.
func FloatPtr(v float64) *float64 { return &v }

package models

// Property is one row of the property metadata CSV: a community and the
// vendor API endpoint that lists its units.
type Property struct {
	State    string
	City     string
	Name     string
	Endpoint string
	BlockID  string
}

// RevenueTarget is a property with no scraped units whose revenue is
// estimated from state-level statistics.
type RevenueTarget struct {
	State     string
	City      string
	Name      string
	UnitCount int

	Estimated      bool
	AvgRent        float64
	MonthlyRevenue float64
	AnnualRevenue  float64

	// Columns and Values keep the input row so it is written back unchanged.
	Columns []string
	Values  map[string]string
}

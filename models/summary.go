package models

import "time"

// MergeSummary describes what one exact-key reconciliation did.
type MergeSummary struct {
	Inserted        int
	Updated         int
	Rejected        int
	BatchDuplicates int
	Total           int
}

// UnmatchedRecord is an incoming record the cross-source path could not
// place, kept for operator review.
type UnmatchedRecord struct {
	City       string
	Property   string
	UnitNumber string
	Price      *int

	// Suggestion is the closest known property by string similarity, if any.
	Suggestion           string
	SuggestionSimilarity float64
}

// CrossMatchSummary describes one cross-source reconciliation.
type CrossMatchSummary struct {
	Matched      int
	SuffixMatch  int
	Ambiguous    int
	PriceUpdates int
	Rejected     int
	Unmatched    []UnmatchedRecord

	// MissingProperties lists normalized city|property pairs present in the
	// portfolio but absent from the incoming feed.
	MissingProperties []string
}

// MatchRate returns matched / (matched + unmatched).
func (s *CrossMatchSummary) MatchRate() float64 {
	total := s.Matched + len(s.Unmatched)
	if total == 0 {
		return 0
	}
	return float64(s.Matched) / float64(total)
}

// RunSummary is printed at the end of a scrape run for a human to review.
type RunSummary struct {
	RunID            string
	StartedAt        time.Time
	Properties       int
	Succeeded        int
	Failed           []string
	UnitsScraped     int
	ParseSkippedUnit int
	Merge            MergeSummary
}

// InsightReport holds analytics over the persisted portfolio.
type InsightReport struct {
	TotalUnits        int
	PricedUnits       int
	AveragePrice      float64
	MinPrice          int
	MaxPrice          int
	MostExpensive     *UnitRecord
	LongestOnMarket   []*UnitRecord
	UnitsByState      map[string]int
	AveragePriceState map[string]float64
}

package services

import (
	"math"
	"time"

	"rent-portfolio/models"
	"rent-portfolio/utils"
)

// Reconciler merges freshly scraped units into the persisted portfolio.
// It performs no I/O and never mutates the portfolio it is given.
type Reconciler struct {
	encoder    *Encoder
	normalizer *Normalizer
	logger     *utils.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(encoder *Encoder, normalizer *Normalizer, logger *utils.Logger) *Reconciler {
	return &Reconciler{encoder: encoder, normalizer: normalizer, logger: logger}
}

// Merge upserts batch into persisted by identity key and returns the new
// portfolio with a change summary.
//
// Existing units get price and last_seen overwritten and nothing else.
// New units are encoded and appended. Invalid records are dropped and
// counted. When the batch repeats a key, the last occurrence wins.
func (r *Reconciler) Merge(persisted *models.Portfolio, batch []models.UnitRecord) (*models.Portfolio, models.MergeSummary) {
	var summary models.MergeSummary

	out := clonePortfolio(persisted)
	index := make(map[models.IdentityKey][]int, len(out.Units))
	for i := range out.Units {
		k := out.Units[i].Key()
		index[k] = append(index[k], i)
	}

	deduped := make([]models.UnitRecord, 0, len(batch))
	position := make(map[models.IdentityKey]int, len(batch))
	for _, rec := range batch {
		if !rec.Valid() || rec.LastSeen.IsZero() {
			summary.Rejected++
			r.logger.Debug("[reconciler] rejecting record %q/%q/%q: missing identity or timestamp",
				rec.AptComplex, rec.AptName, rec.AptID)
			continue
		}
		k := rec.Key()
		if pos, dup := position[k]; dup {
			deduped[pos] = rec
			summary.BatchDuplicates++
			continue
		}
		position[k] = len(deduped)
		deduped = append(deduped, rec)
	}

	var fresh []models.UnitRecord
	for _, rec := range deduped {
		if idxs, ok := index[rec.Key()]; ok {
			for _, i := range idxs {
				out.Units[i].Price = copyInt(rec.Price)
				out.Units[i].LastSeen = rec.LastSeen
			}
			summary.Updated++
			continue
		}

		rec.Indicators = nil
		if rec.FirstSeen.IsZero() {
			rec.FirstSeen = rec.LastSeen
		}
		fresh = append(fresh, rec)
	}

	if len(fresh) > 0 {
		r.encoder.EncodeMissing(fresh)
		out.Units = append(out.Units, fresh...)
	}
	summary.Inserted = len(fresh)

	RefreshDaysOnMarket(out.Units)
	summary.Total = len(out.Units)

	r.logger.Info("[reconciler] merged %d records: %d new, %d updated, %d rejected, %d batch duplicates",
		len(batch), summary.Inserted, summary.Updated, summary.Rejected, summary.BatchDuplicates)
	return out, summary
}

// RefreshDaysOnMarket recomputes days_on_market for every unit.
func RefreshDaysOnMarket(units []models.UnitRecord) {
	for i := range units {
		units[i].DaysOnMarket = DaysOnMarket(units[i].FirstSeen, units[i].LastSeen)
	}
}

// DaysOnMarket returns the whole days between first and last sighting, or
// nil if either timestamp is unknown.
func DaysOnMarket(first, last time.Time) *int {
	if first.IsZero() || last.IsZero() {
		return nil
	}
	days := int(math.Floor(last.Sub(first).Hours() / 24))
	return &days
}

func clonePortfolio(p *models.Portfolio) *models.Portfolio {
	out := &models.Portfolio{}
	if p == nil {
		return out
	}
	out.Units = make([]models.UnitRecord, len(p.Units), len(p.Units)+16)
	copy(out.Units, p.Units)
	out.ExtraColumns = append([]string(nil), p.ExtraColumns...)
	return out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

package services

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"rent-portfolio/models"
)

// minSuggestionSimilarity is the Jaro-Winkler score below which no property
// suggestion is offered for an unmatched record.
const minSuggestionSimilarity = 0.80

type propertyKey struct {
	city     string
	property string
}

// CrossMatch reconciles records from a second, differently shaped feed
// against the persisted portfolio using normalized city and property names
// plus a suffix-tolerant unit comparison.
//
// Matching tries an exact unit token first and then accepts the first
// persisted unit whose token ends with the incoming token. Multiple
// candidates are not disambiguated; they are only counted. Unmatched
// records are returned for review and never inserted.
func (r *Reconciler) CrossMatch(persisted *models.Portfolio, incoming []models.UnitRecord) (*models.Portfolio, models.CrossMatchSummary) {
	var summary models.CrossMatchSummary

	out := clonePortfolio(persisted)
	groups := make(map[propertyKey][]int)
	unitTokens := make([]string, len(out.Units))
	for i := range out.Units {
		u := &out.Units[i]
		k := propertyKey{city: r.normalizer.City(u.City), property: r.normalizer.Property(u.AptComplex)}
		groups[k] = append(groups[k], i)
		unitTokens[i] = r.normalizer.Unit(unitToken(u))
	}

	seen := make(map[propertyKey]struct{})
	for _, rec := range incoming {
		if rec.AptComplex == "" || rec.City == "" {
			summary.Rejected++
			continue
		}
		k := propertyKey{city: r.normalizer.City(rec.City), property: r.normalizer.Property(rec.AptComplex)}
		seen[k] = struct{}{}
		token := r.normalizer.Unit(unitToken(&rec))

		idx, viaSuffix, candidates := matchUnit(groups[k], unitTokens, token)
		if idx < 0 {
			summary.Unmatched = append(summary.Unmatched, r.unmatched(rec, k, groups))
			continue
		}

		summary.Matched++
		if viaSuffix {
			summary.SuffixMatch++
		}
		if candidates > 1 {
			summary.Ambiguous++
			r.logger.Debug("[crossmatch] %s %s unit %q matched %d candidates, taking the first",
				rec.City, rec.AptComplex, token, candidates)
		}

		target := &out.Units[idx]
		if target.Price == nil || rec.Price != nil {
			if !equalInt(target.Price, rec.Price) {
				summary.PriceUpdates++
			}
			target.Price = copyInt(rec.Price)
		}
		if rec.LastSeen.After(target.LastSeen) {
			target.LastSeen = rec.LastSeen
		}
	}

	for k := range groups {
		if _, ok := seen[k]; !ok {
			summary.MissingProperties = append(summary.MissingProperties, k.city+"|"+k.property)
		}
	}
	sort.Strings(summary.MissingProperties)

	RefreshDaysOnMarket(out.Units)

	r.logger.Info("[crossmatch] matched %d of %d incoming records (%d via suffix, %d ambiguous, %d unmatched)",
		summary.Matched, len(incoming), summary.SuffixMatch, summary.Ambiguous, len(summary.Unmatched))
	return out, summary
}

// matchUnit returns the index of the chosen persisted unit, whether the
// match came from the suffix fallback, and how many candidates qualified
// at the winning stage. An empty token never matches.
func matchUnit(group []int, tokens []string, token string) (int, bool, int) {
	if token == "" || len(group) == 0 {
		return -1, false, 0
	}

	chosen, count := -1, 0
	for _, i := range group {
		if tokens[i] == token {
			if chosen < 0 {
				chosen = i
			}
			count++
		}
	}
	if chosen >= 0 {
		return chosen, false, count
	}

	for _, i := range group {
		if strings.HasSuffix(tokens[i], token) {
			if chosen < 0 {
				chosen = i
			}
			count++
		}
	}
	return chosen, chosen >= 0, count
}

func (r *Reconciler) unmatched(rec models.UnitRecord, k propertyKey, groups map[propertyKey][]int) models.UnmatchedRecord {
	um := models.UnmatchedRecord{
		City:       rec.City,
		Property:   rec.AptComplex,
		UnitNumber: unitToken(&rec),
		Price:      copyInt(rec.Price),
	}

	if _, known := groups[k]; known {
		return um
	}

	var best string
	var bestScore float64
	for other := range groups {
		if other.city != k.city {
			continue
		}
		score := matchr.JaroWinkler(k.property, other.property, false)
		if score > bestScore || (score == bestScore && other.property < best) {
			best, bestScore = other.property, score
		}
	}
	if bestScore >= minSuggestionSimilarity {
		um.Suggestion = best
		um.SuggestionSimilarity = bestScore
	}
	return um
}

func unitToken(u *models.UnitRecord) string {
	if u.UnitNumber != "" {
		return u.UnitNumber
	}
	return u.AptName
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"rent-portfolio/models"
	"rent-portfolio/utils"
)

// longestOnMarketLimit is how many stale units the report lists.
const longestOnMarketLimit = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes price and vacancy statistics over the portfolio.
func (s *InsightService) Generate(units []models.UnitRecord) *models.InsightReport {
	report := &models.InsightReport{
		UnitsByState:      make(map[string]int),
		AveragePriceState: make(map[string]float64),
	}

	if len(units) == 0 {
		return report
	}

	report.TotalUnits = len(units)

	var total int
	stateTotal := make(map[string]int)
	statePriced := make(map[string]int)
	var aging []*models.UnitRecord

	for i := range units {
		u := &units[i]
		if u.State != "" {
			report.UnitsByState[u.State]++
		}
		if u.DaysOnMarket != nil {
			aging = append(aging, u)
		}
		if u.Price == nil || *u.Price <= 0 {
			continue
		}

		p := *u.Price
		if report.PricedUnits == 0 || p < report.MinPrice {
			report.MinPrice = p
		}
		if p > report.MaxPrice {
			report.MaxPrice = p
			report.MostExpensive = u
		}
		report.PricedUnits++
		total += p
		if u.State != "" {
			stateTotal[u.State] += p
			statePriced[u.State]++
		}
	}

	if report.PricedUnits > 0 {
		report.AveragePrice = round2(float64(total) / float64(report.PricedUnits))
	}
	for state, n := range statePriced {
		report.AveragePriceState[state] = round2(float64(stateTotal[state]) / float64(n))
	}

	sort.SliceStable(aging, func(i, j int) bool {
		return *aging[i].DaysOnMarket > *aging[j].DaysOnMarket
	})
	if len(aging) > longestOnMarketLimit {
		aging = aging[:longestOnMarketLimit]
	}
	report.LongestOnMarket = aging

	return report
}

// Print renders the report as tables on w.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	fmt.Fprintf(w, "\n  PORTFOLIO INSIGHTS\n\n")

	overview := utils.NewTable(w)
	overview.SetTitle("Overview")
	overview.AppendRows([]table.Row{
		{"Total units", humanize.Comma(int64(r.TotalUnits))},
		{"Priced units", humanize.Comma(int64(r.PricedUnits))},
	})
	if r.PricedUnits > 0 {
		overview.AppendRows([]table.Row{
			{"Average rent", "$" + humanize.CommafWithDigits(r.AveragePrice, 2)},
			{"Minimum rent", "$" + humanize.Comma(int64(r.MinPrice))},
			{"Maximum rent", "$" + humanize.Comma(int64(r.MaxPrice))},
		})
	}
	overview.Render()

	if r.MostExpensive != nil {
		fmt.Fprintf(w, "  Most expensive: %s %s (%s, %s) at $%s/month\n",
			truncate(r.MostExpensive.AptComplex, 40), r.MostExpensive.AptName,
			r.MostExpensive.City, r.MostExpensive.State,
			humanize.Comma(int64(*r.MostExpensive.Price)))
	}

	if len(r.LongestOnMarket) > 0 {
		stale := utils.NewTable(w)
		stale.SetTitle("Longest on market")
		stale.AppendHeader(table.Row{"#", "Property", "Unit", "Days", "First seen"})
		for i, u := range r.LongestOnMarket {
			stale.AppendRow(table.Row{i + 1, truncate(u.AptComplex, 38), u.AptName, *u.DaysOnMarket,
				u.FirstSeen.Format("2006-01-02")})
		}
		stale.Render()
	}

	if len(r.UnitsByState) > 0 {
		type stateCount struct {
			state string
			count int
		}
		var states []stateCount
		for st, n := range r.UnitsByState {
			states = append(states, stateCount{st, n})
		}
		sort.Slice(states, func(i, j int) bool {
			if states[i].count != states[j].count {
				return states[i].count > states[j].count
			}
			return states[i].state < states[j].state
		})

		byState := utils.NewTable(w)
		byState.SetTitle("Units by state")
		byState.AppendHeader(table.Row{"State", "Units", "Avg rent"})
		for _, sc := range states {
			avg := "-"
			if v, ok := r.AveragePriceState[sc.state]; ok {
				avg = "$" + humanize.CommafWithDigits(v, 2)
			}
			byState.AppendRow(table.Row{sc.state, humanize.Comma(int64(sc.count)), avg})
		}
		byState.Render()
	}
	fmt.Fprintln(w)
}

// PrintMerge renders one reconciliation summary.
func (s *InsightService) PrintMerge(w io.Writer, run *models.RunSummary) {
	t := utils.NewTable(w)
	t.SetTitle("Scrape run " + run.RunID)
	t.AppendRows([]table.Row{
		{"Started", run.StartedAt.Format(models.TimestampLayout)},
		{"Properties", humanize.Comma(int64(run.Properties))},
		{"Fetched", humanize.Comma(int64(run.Succeeded))},
		{"Failed", humanize.Comma(int64(len(run.Failed)))},
		{"Units scraped", humanize.Comma(int64(run.UnitsScraped))},
		{"Units skipped by parser", humanize.Comma(int64(run.ParseSkippedUnit))},
		{"New units", humanize.Comma(int64(run.Merge.Inserted))},
		{"Updated units", humanize.Comma(int64(run.Merge.Updated))},
		{"Rejected records", humanize.Comma(int64(run.Merge.Rejected))},
		{"Portfolio size", humanize.Comma(int64(run.Merge.Total))},
	})
	t.Render()

	if len(run.Failed) > 0 {
		fmt.Fprintf(w, "  Failed properties: %s\n", strings.Join(run.Failed, ", "))
	}
}

// PrintCrossMatch renders a cross-source reconciliation summary with the
// records left for review.
func (s *InsightService) PrintCrossMatch(w io.Writer, cm *models.CrossMatchSummary) {
	t := utils.NewTable(w)
	t.SetTitle("Cross-source match")
	t.AppendRows([]table.Row{
		{"Matched", humanize.Comma(int64(cm.Matched))},
		{"Via suffix", humanize.Comma(int64(cm.SuffixMatch))},
		{"Ambiguous", humanize.Comma(int64(cm.Ambiguous))},
		{"Price updates", humanize.Comma(int64(cm.PriceUpdates))},
		{"Rejected", humanize.Comma(int64(cm.Rejected))},
		{"Unmatched", humanize.Comma(int64(len(cm.Unmatched)))},
		{"Match rate", fmt.Sprintf("%.1f%%", cm.MatchRate()*100)},
	})
	t.Render()

	if len(cm.Unmatched) > 0 {
		review := utils.NewTable(w)
		review.SetTitle("Unmatched records")
		review.AppendHeader(table.Row{"City", "Property", "Unit", "Price", "Did you mean"})
		for _, um := range cm.Unmatched {
			price := "-"
			if um.Price != nil {
				price = "$" + humanize.Comma(int64(*um.Price))
			}
			suggestion := ""
			if um.Suggestion != "" {
				suggestion = fmt.Sprintf("%s (%.2f)", um.Suggestion, um.SuggestionSimilarity)
			}
			review.AppendRow(table.Row{um.City, truncate(um.Property, 38), um.UnitNumber, price, suggestion})
		}
		review.Render()
	}

	if len(cm.MissingProperties) > 0 {
		fmt.Fprintf(w, "  %d portfolio properties absent from the feed: %s\n",
			len(cm.MissingProperties), strings.Join(cm.MissingProperties, ", "))
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

package tiles

import (
	"sort"

	"github.com/shopspring/decimal"

	"tiledash/internal"
)

type DateIncome struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

type PartyIncome struct {
	Party    string          `json:"party"`
	Invoices int             `json:"invoices"`
	Total    decimal.Decimal `json:"total"`
}

type Summary struct {
	TotalIncome     decimal.Decimal `json:"totalIncome"`
	AverageInvoice  decimal.Decimal `json:"averageInvoice"`
	HighestInvoice  decimal.Decimal `json:"highestInvoice"`
	ActiveDocuments int             `json:"activeDocuments"`
}

// IncomeByDate buckets tile totals per calendar day, ascending. Tiles
// without a parseable date are left out of the series.
func IncomeByDate(all []internal.Tile) []DateIncome {
	totals := make(map[string]decimal.Decimal)
	for _, tile := range all {
		if tile.Date == nil {
			continue
		}
		key := tile.Date.Format("2006-01-02")
		totals[key] = totals[key].Add(tile.Rate)
	}

	out := make([]DateIncome, 0, len(totals))
	for day, total := range totals {
		out = append(out, DateIncome{Date: day, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// IncomeByParty buckets tile counts and totals per party, highest total
// first, party name as the tie-breaker.
func IncomeByParty(all []internal.Tile) []PartyIncome {
	index := make(map[string]int)
	out := make([]PartyIncome, 0)
	for _, tile := range all {
		i, seen := index[tile.Party]
		if !seen {
			i = len(out)
			index[tile.Party] = i
			out = append(out, PartyIncome{Party: tile.Party})
		}
		out[i].Invoices++
		out[i].Total = out[i].Total.Add(tile.Rate)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Party < out[j].Party
	})
	return out
}

// Summarize computes the dashboard headline figures over the visible tiles.
func Summarize(all []internal.Tile) Summary {
	s := Summary{ActiveDocuments: len(all)}
	if len(all) == 0 {
		return s
	}

	s.HighestInvoice = all[0].Rate
	for _, tile := range all {
		s.TotalIncome = s.TotalIncome.Add(tile.Rate)
		if tile.Rate.GreaterThan(s.HighestInvoice) {
			s.HighestInvoice = tile.Rate
		}
	}
	s.AverageInvoice = s.TotalIncome.Div(decimal.NewFromInt(int64(len(all)))).Round(2)
	return s
}

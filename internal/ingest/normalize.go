package ingest

import (
	"strings"

	"github.com/shopspring/decimal"

	"tiledash/internal"
	"tiledash/internal/util"
)

type NormalizeResult struct {
	Records []internal.NormalizedRecord
	Stats   internal.IngestStats
}

// Normalize coerces reconciled rows into NormalizedRecords. Rows that are
// fully empty or missing DocNo/Party are dropped and counted; a bad date or
// rate never drops the row (nil date, zero rate instead).
//
// stockCodePrefix, when non-empty, keeps only rows whose stock code starts
// with the prefix.
func Normalize(t Table, m Mapping, stockCodePrefix string) NormalizeResult {
	res := NormalizeResult{Records: make([]internal.NormalizedRecord, 0, len(t.Rows))}
	res.Stats.HeaderRecovered = t.HeaderRecovered

	for _, row := range t.Rows {
		res.Stats.RowsIn++

		if rowEmpty(row) {
			res.Stats.DroppedEmpty++
			continue
		}

		docNo := strings.TrimSpace(cell(row, m[internal.FieldDocNo]))
		party := strings.TrimSpace(cell(row, m[internal.FieldParty]))
		if docNo == "" || party == "" {
			res.Stats.DroppedMissingKey++
			continue
		}

		stockCode := strings.TrimSpace(cell(row, m[internal.FieldStockCode]))
		if stockCodePrefix != "" && !strings.HasPrefix(stockCode, stockCodePrefix) {
			res.Stats.DroppedPrefix++
			continue
		}

		record := internal.NormalizedRecord{
			DocNo:       docNo,
			Party:       party,
			StockCode:   stockCode,
			Description: strings.TrimSpace(cell(row, m[internal.FieldDescription])),
			Rate:        decimal.Zero,
		}

		if raw := strings.TrimSpace(cell(row, m[internal.FieldDate])); raw != "" {
			if parsed, ok := util.ParseDate(raw); ok {
				record.Date = &parsed
			} else {
				res.Stats.DateFailures++
			}
		}

		if raw := strings.TrimSpace(cell(row, m[internal.FieldRate])); raw != "" {
			if parsed, ok := util.ParseRate(raw); ok {
				record.Rate = parsed
			} else {
				res.Stats.RateFailures++
			}
		}

		res.Records = append(res.Records, record)
	}

	return res
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func rowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

package ingest

import (
	"testing"
)

func canonicalMapping() Mapping {
	m, err := Reconcile([]string{"DocNo", "Date", "Party", "StockCode", "Description", "Rate"})
	if err != nil {
		panic(err)
	}
	return m
}

func TestNormalizeDropsEmptyAndMissingKeyRows(t *testing.T) {
	table := Table{
		Headers: []string{"DocNo", "Date", "Party", "StockCode", "Description", "Rate"},
		Rows: [][]string{
			{"1", "01/02/2024", "Acme", "E100", "Widget", "10.50"},
			{"", "", "", "", "", ""},
			{"2", "01/02/2024", "  ", "E200", "Gadget", "5.00"},
			{"", "01/02/2024", "Acme", "E300", "Sprocket", "1.00"},
		},
	}

	res := Normalize(table, canonicalMapping(), "")
	if len(res.Records) != 1 {
		t.Fatalf("records=%v", res.Records)
	}
	if res.Stats.RowsIn != 4 || res.Stats.DroppedEmpty != 1 || res.Stats.DroppedMissingKey != 2 {
		t.Fatalf("stats=%+v", res.Stats)
	}
}

func TestNormalizeBadCellsKeepRow(t *testing.T) {
	table := Table{
		Headers: []string{"DocNo", "Date", "Party", "StockCode", "Description", "Rate"},
		Rows: [][]string{
			{"1", "yesterday", "Acme", "E100", "Widget", "N/A"},
		},
	}

	res := Normalize(table, canonicalMapping(), "")
	if len(res.Records) != 1 {
		t.Fatalf("records=%v", res.Records)
	}
	rec := res.Records[0]
	if rec.Date != nil {
		t.Fatalf("date=%v, want nil", rec.Date)
	}
	if !rec.Rate.IsZero() {
		t.Fatalf("rate=%s, want 0", rec.Rate)
	}
	if res.Stats.DateFailures != 1 || res.Stats.RateFailures != 1 {
		t.Fatalf("stats=%+v", res.Stats)
	}
}

func TestNormalizeTrimsStringFields(t *testing.T) {
	table := Table{
		Headers: []string{"DocNo", "Date", "Party", "StockCode", "Description", "Rate"},
		Rows: [][]string{
			{" 1 ", "01/02/2024", "  Acme Ltd ", " E100 ", "  Widget  ", "10.50"},
		},
	}

	res := Normalize(table, canonicalMapping(), "")
	rec := res.Records[0]
	if rec.DocNo != "1" || rec.Party != "Acme Ltd" || rec.StockCode != "E100" || rec.Description != "Widget" {
		t.Fatalf("record=%+v", rec)
	}
}

func TestNormalizeStockCodePrefixFilter(t *testing.T) {
	table := Table{
		Headers: []string{"DocNo", "Date", "Party", "StockCode", "Description", "Rate"},
		Rows: [][]string{
			{"1", "01/02/2024", "Acme", "E100", "Widget", "10.50"},
			{"1", "01/02/2024", "Acme", "X200", "Gadget", "5.00"},
		},
	}

	res := Normalize(table, canonicalMapping(), "E")
	if len(res.Records) != 1 || res.Records[0].StockCode != "E100" {
		t.Fatalf("records=%v", res.Records)
	}
	if res.Stats.DroppedPrefix != 1 {
		t.Fatalf("stats=%+v", res.Stats)
	}
}

func TestNormalizeShortRow(t *testing.T) {
	table := Table{
		Headers: []string{"DocNo", "Date", "Party", "StockCode", "Description", "Rate"},
		Rows: [][]string{
			{"1", "01/02/2024", "Acme"},
		},
	}

	res := Normalize(table, canonicalMapping(), "")
	if len(res.Records) != 1 {
		t.Fatalf("records=%v", res.Records)
	}
	if res.Records[0].StockCode != "" || !res.Records[0].Rate.IsZero() {
		t.Fatalf("record=%+v", res.Records[0])
	}
}

package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"tiledash/internal/config"
	"tiledash/internal/ingest"
	"tiledash/internal/storage"
)

const sampleCSV = `DocNo,Date,Party,StockCode,Description,Rate
1,01/02/2024,Acme,E100,Widget,10.50
1,01/02/2024,Acme,E200,Gadget,5.00
2,02/02/2024,Globex,E300,Cog,99.99
`

func newTestService(t *testing.T) (*ProcessingService, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "tiledash.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	cfg, _ := config.Load()
	return NewProcessingService(db, cfg), db
}

func TestProcessUploadSmoke(t *testing.T) {
	svc, db := newTestService(t)

	result, err := svc.ProcessUpload("invoices.csv", []byte(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalTiles != 2 || len(result.Tiles) != 2 {
		t.Fatalf("result=%+v", result)
	}
	if !result.StoreAvailable {
		t.Fatal("store should be available")
	}
	if !result.Tiles[0].Rate.Equal(decimal.RequireFromString("15.50")) {
		t.Fatalf("rate=%s", result.Tiles[0].Rate)
	}
	if !result.Summary.TotalIncome.Equal(decimal.RequireFromString("115.49")) {
		t.Fatalf("total=%s", result.Summary.TotalIncome)
	}
	if len(result.IncomeByDate) != 2 || len(result.IncomeByParty) != 2 {
		t.Fatalf("analytics=%+v", result)
	}

	runs, err := db.ListUploads(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Counts["tiles"] != 2 {
		t.Fatalf("runs=%v", runs)
	}
}

func TestProcessUploadFiltersDeletedTiles(t *testing.T) {
	svc, db := newTestService(t)

	if err := db.MarkTileDeleted("1_tile", "1"); err != nil {
		t.Fatal(err)
	}

	result, err := svc.ProcessUpload("invoices.csv", []byte(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalTiles != 2 || len(result.Tiles) != 1 || result.DeletedTiles != 1 {
		t.Fatalf("result=%+v", result)
	}
	if result.Tiles[0].DocNo != "2" {
		t.Fatalf("tiles=%v", result.Tiles)
	}
	if result.Summary.ActiveDocuments != 1 {
		t.Fatalf("summary=%+v", result.Summary)
	}
}

func TestProcessUploadMissingColumns(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ProcessUpload("invoices.csv", []byte("Ref,Buyer\n1,Acme\n"))
	var missingErr *ingest.MissingColumnsError
	if !errors.As(err, &missingErr) {
		t.Fatalf("err=%v", err)
	}
	if len(missingErr.Missing) != 6 {
		t.Fatalf("missing=%v", missingErr.Missing)
	}
}

func TestProcessUploadNoUsableRows(t *testing.T) {
	svc, _ := newTestService(t)

	data := []byte("DocNo,Date,Party,StockCode,Description,Rate\n,,Acme,E1,x,1\n1,,,E2,y,2\n")
	result, err := svc.ProcessUpload("invoices.csv", data)
	if !errors.Is(err, ErrNoUsableRows) {
		t.Fatalf("err=%v", err)
	}
	if result.Stats.DroppedMissingKey != 2 {
		t.Fatalf("stats=%+v", result.Stats)
	}
}

func TestProcessUploadWithoutStore(t *testing.T) {
	cfg, _ := config.Load()
	svc := NewProcessingService(nil, cfg)

	result, err := svc.ProcessUpload("invoices.csv", []byte(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if result.StoreAvailable {
		t.Fatal("store should be reported unavailable")
	}
	if len(result.Tiles) != 2 {
		t.Fatalf("tiles=%v", result.Tiles)
	}
}

func TestProcessAndExport(t *testing.T) {
	svc, _ := newTestService(t)

	out := filepath.Join(t.TempDir(), "tiles.xlsx")
	result, err := svc.ProcessAndExport("invoices.csv", []byte(sampleCSV), out)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Tiles) != 2 {
		t.Fatalf("tiles=%v", result.Tiles)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}
}

func TestProcessUploadIdempotent(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.ProcessUpload("invoices.csv", []byte(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.ProcessUpload("invoices.csv", []byte(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Tiles) != len(second.Tiles) {
		t.Fatalf("tile counts differ: %d vs %d", len(first.Tiles), len(second.Tiles))
	}
	for i := range first.Tiles {
		a, b := first.Tiles[i], second.Tiles[i]
		if a.TileID != b.TileID || !a.Rate.Equal(b.Rate) || a.StockCodes != b.StockCodes || a.Description != b.Description {
			t.Fatalf("tiles differ at %d:\n%+v\n%+v", i, a, b)
		}
	}
}

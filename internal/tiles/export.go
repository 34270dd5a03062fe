package tiles

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"tiledash/internal"
)

// ExportToXLSX writes the tile set to a workbook, one row per tile.
func ExportToXLSX(all []internal.Tile, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"tile_id", "doc_no", "date", "party", "stock_codes", "description", "total_rate"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, tile := range all {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, tile.TileID)
		set(2, tile.DocNo)
		set(3, formatDate(tile))
		set(4, tile.Party)
		set(5, tile.StockCodes)
		set(6, tile.Description)
		set(7, tile.Rate.InexactFloat64())
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func formatDate(tile internal.Tile) string {
	if tile.Date == nil {
		return ""
	}
	return tile.Date.Format("2006-01-02")
}

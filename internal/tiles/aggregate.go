package tiles

import (
	"strings"

	"github.com/shopspring/decimal"

	"tiledash/internal"
)

const tileIDSuffix = "_tile"

// TileID derives the persistent tile identity from a document number. It is
// deterministic so soft-deletes keyed by it survive re-uploads.
func TileID(docNo string) string {
	return docNo + tileIDSuffix
}

// DocNoFromTileID is the inverse of TileID.
func DocNoFromTileID(tileID string) string {
	return strings.TrimSuffix(tileID, tileIDSuffix)
}

// Aggregate groups normalized records by DocNo into one Tile per document.
// Date and Party come from the first member in input order; stock codes and
// descriptions are concatenated over all members in input order with
// duplicates kept; Rate is the decimal sum. Tiles come out in first-seen
// document order. Empty input yields an empty slice.
func Aggregate(records []internal.NormalizedRecord) []internal.Tile {
	out := make([]internal.Tile, 0)
	index := make(map[string]int)
	stockParts := make([][]string, 0)
	descParts := make([][]string, 0)

	for _, rec := range records {
		i, seen := index[rec.DocNo]
		if !seen {
			i = len(out)
			index[rec.DocNo] = i
			out = append(out, internal.Tile{
				TileID: TileID(rec.DocNo),
				DocNo:  rec.DocNo,
				Date:   rec.Date,
				Party:  rec.Party,
				Rate:   decimal.Zero,
			})
			stockParts = append(stockParts, nil)
			descParts = append(descParts, nil)
		}

		out[i].Rate = out[i].Rate.Add(rec.Rate)
		stockParts[i] = append(stockParts[i], rec.StockCode)
		descParts[i] = append(descParts[i], rec.Description)
	}

	for i := range out {
		out[i].StockCodes = strings.Join(stockParts[i], ", ")
		out[i].Description = strings.Join(descParts[i], " | ")
	}

	return out
}

// FilterDeleted drops tiles whose TileID is in the exclusion set.
func FilterDeleted(all []internal.Tile, deleted map[string]struct{}) []internal.Tile {
	if len(deleted) == 0 {
		return all
	}
	out := make([]internal.Tile, 0, len(all))
	for _, tile := range all {
		if _, gone := deleted[tile.TileID]; gone {
			continue
		}
		out = append(out, tile)
	}
	return out
}

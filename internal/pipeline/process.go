package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"tiledash/internal"
	"tiledash/internal/config"
	"tiledash/internal/ingest"
	"tiledash/internal/storage"
	"tiledash/internal/tiles"
)

// ErrNoUsableRows reports that every row of an upload was filtered out
// before grouping. It is an empty-result condition, not a parse failure.
var ErrNoUsableRows = errors.New("no usable rows after filtering")

// ProcessingService runs the upload pipeline: read, reconcile, normalize,
// aggregate, filter soft-deleted tiles, compute analytics. The store may be
// nil; tiles are then rendered unfiltered and persistence is reported as
// unavailable.
type ProcessingService struct {
	db  *storage.DB
	cfg config.Config
}

func NewProcessingService(db *storage.DB, cfg config.Config) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg}
}

type UploadResult struct {
	TraceID  string               `json:"traceId"`
	FileName string               `json:"fileName"`
	Stats    internal.IngestStats `json:"stats"`

	Tiles        []internal.Tile `json:"tiles"`
	TotalTiles   int             `json:"totalTiles"`
	DeletedTiles int             `json:"deletedTiles"`

	IncomeByDate  []tiles.DateIncome  `json:"incomeByDate"`
	IncomeByParty []tiles.PartyIncome `json:"incomeByParty"`
	Summary       tiles.Summary       `json:"summary"`

	StoreAvailable bool `json:"storeAvailable"`
}

func (s *ProcessingService) ProcessUpload(fileName string, data []byte) (UploadResult, error) {
	start := time.Now()
	result := UploadResult{TraceID: traceID(), FileName: fileName}

	table, err := ingest.ReadTable(fileName, data)
	if err != nil {
		return result, err
	}

	mapping, err := ingest.Reconcile(table.Headers)
	if err != nil {
		return result, err
	}

	normalized := ingest.Normalize(table, mapping, s.cfg.StockCodePrefix)
	result.Stats = normalized.Stats

	if len(normalized.Records) == 0 {
		s.recordUpload(result, start)
		return result, ErrNoUsableRows
	}

	all := tiles.Aggregate(normalized.Records)
	result.Stats.UniqueDocs = len(all)
	result.TotalTiles = len(all)

	deleted := s.deletedTileSet(&result)
	result.Tiles = tiles.FilterDeleted(all, deleted)
	result.DeletedTiles = len(all) - len(result.Tiles)

	result.IncomeByDate = tiles.IncomeByDate(result.Tiles)
	result.IncomeByParty = tiles.IncomeByParty(result.Tiles)
	result.Summary = tiles.Summarize(result.Tiles)

	s.recordUpload(result, start)
	return result, nil
}

// ProcessAndExport runs the pipeline and writes the visible tiles to a
// workbook. Used by the CLI and the drop-folder watcher.
func (s *ProcessingService) ProcessAndExport(fileName string, data []byte, outputPath string) (UploadResult, error) {
	result, err := s.ProcessUpload(fileName, data)
	if err != nil {
		return result, err
	}
	if err := tiles.ExportToXLSX(result.Tiles, outputPath); err != nil {
		return result, err
	}
	return result, nil
}

// deletedTileSet loads the soft-delete exclusion set. Store trouble never
// fails the upload; the current session still renders unfiltered tiles.
func (s *ProcessingService) deletedTileSet(result *UploadResult) map[string]struct{} {
	if s.db == nil {
		return nil
	}
	deleted, err := s.db.DeletedTileIDs()
	if err != nil {
		config.LogError(config.GetLogger(), "pipeline", "deletedTileSet", "loading deleted tiles", result.TraceID, err)
		return nil
	}
	result.StoreAvailable = true
	return deleted
}

func (s *ProcessingService) recordUpload(result UploadResult, start time.Time) {
	if s.db == nil {
		return
	}
	counts := map[string]int{
		"rowsIn":            result.Stats.RowsIn,
		"droppedEmpty":      result.Stats.DroppedEmpty,
		"droppedMissingKey": result.Stats.DroppedMissingKey,
		"droppedPrefix":     result.Stats.DroppedPrefix,
		"dateFailures":      result.Stats.DateFailures,
		"rateFailures":      result.Stats.RateFailures,
		"tiles":             result.TotalTiles,
		"activeTiles":       len(result.Tiles),
	}
	timings := map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}
	if err := s.db.InsertUpload(result.TraceID, result.FileName, counts, timings); err != nil {
		config.LogError(config.GetLogger(), "pipeline", "recordUpload", "recording upload audit", result.TraceID, err)
		return
	}
	_ = s.db.SetMetadata("lastUploadAt", time.Now().UTC().Format(time.RFC3339))
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("upload-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

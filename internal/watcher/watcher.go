package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tiledash/internal/config"
	"tiledash/internal/pipeline"
	"tiledash/internal/storage"
)

// Service polls a drop folder for new CSV/XLSX exports, runs each through
// the upload pipeline and writes the tile workbook to the output dir. Seen
// files are tracked in the metadata table keyed by name and mtime, so an
// updated export is picked up again.
type Service struct {
	db  *storage.DB
	cfg config.Config
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

func (s *Service) Run(ctx context.Context) error {
	logger := config.GetLogger()
	for {
		if err := s.runCycle(); err != nil {
			config.LogError(logger, "watcher", "Run", "watch cycle", s.cfg.WatchDir, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.WatchIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle() error {
	entries, err := os.ReadDir(s.cfg.WatchDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	logger := config.GetLogger()
	for _, entry := range entries {
		if entry.IsDir() || !supportedFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		key := fmt.Sprintf("watch:%s:%d", entry.Name(), info.ModTime().Unix())
		seen, err := s.db.GetMetadata(key)
		if err != nil {
			return err
		}
		if seen != nil {
			continue
		}

		status := s.processFile(entry.Name())
		if err := s.db.SetMetadata(key, status); err != nil {
			return err
		}
		logger.WithField("file", entry.Name()).WithField("status", status).Info("watcher processed file")
	}
	return nil
}

func (s *Service) processFile(name string) string {
	data, err := os.ReadFile(filepath.Join(s.cfg.WatchDir, name))
	if err != nil {
		return "error: " + err.Error()
	}

	outName := strings.TrimSuffix(name, filepath.Ext(name)) + "_tiles.xlsx"
	outputPath := filepath.Join(s.cfg.OutputDir, "watcher", outName)

	processor := pipeline.NewProcessingService(s.db, s.cfg)
	result, err := processor.ProcessAndExport(name, data, outputPath)
	if err != nil {
		return "error: " + err.Error()
	}
	return fmt.Sprintf("exported: tiles=%d trace=%s", len(result.Tiles), result.TraceID)
}

func supportedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", ".xlsx", ".xls":
		return true
	default:
		return false
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"tiledash/internal/config"
	"tiledash/internal/pipeline"
	"tiledash/internal/storage"
	"tiledash/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		config.GetLogger().WithError(err).Warn("store unavailable, soft-deletes and machines disabled")
		db = nil
	} else {
		defer db.Close()
	}

	cmd := os.Args[1]
	switch cmd {
	case "ingest":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "csv/xlsx file path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		data, err := os.ReadFile(*input)
		must(err)
		processor := pipeline.NewProcessingService(db, cfg)
		result, err := processor.ProcessUpload(filepath.Base(*input), data)
		must(err)
		printResult(result)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "csv/xlsx file path")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--input and --out are required"))
		}
		data, err := os.ReadFile(*input)
		must(err)
		processor := pipeline.NewProcessingService(db, cfg)
		result, err := processor.ProcessAndExport(filepath.Base(*input), data, *out)
		must(err)
		fmt.Printf("exported %d tiles to %s\n", len(result.Tiles), *out)
	case "tiles:deleted":
		mustStore(db)
		deleted, err := db.ListDeletedTiles()
		must(err)
		if len(deleted) == 0 {
			fmt.Println("no deleted tiles")
			return
		}
		for _, tile := range deleted {
			fmt.Printf("%s\tdoc=%s\tdeletedAt=%s\n", tile.TileID, tile.DocNo, tile.DeletedAt)
		}
	case "tiles:restore":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		tileID := fs.String("tileId", "", "tile id to restore")
		all := fs.Bool("all", false, "restore every deleted tile")
		_ = fs.Parse(os.Args[2:])
		mustStore(db)
		if *all {
			count, err := db.RestoreAllTiles()
			must(err)
			fmt.Printf("restored %d tiles\n", count)
			return
		}
		if strings.TrimSpace(*tileID) == "" {
			must(fmt.Errorf("--tileId or --all is required"))
		}
		restored, err := db.RestoreTile(*tileID)
		must(err)
		if !restored {
			fmt.Printf("tile %s was not deleted\n", *tileID)
			return
		}
		fmt.Printf("restored %s\n", *tileID)
	case "machines:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		kind := fs.String("kind", "warranty", "warranty|out-of-warranty")
		_ = fs.Parse(os.Args[2:])
		mustStore(db)
		switch *kind {
		case "warranty":
			machines, err := db.ListWarrantyMachines()
			must(err)
			for _, m := range machines {
				fmt.Printf("%s\t%s\t%s\tqty=%d\t%s\tinspected=%s\n", m.ID, m.MachineName, m.ClientName, m.NumMachines, m.WarrantyStatus, m.Inspected)
			}
		case "out-of-warranty":
			machines, err := db.ListOutOfWarrantyMachines()
			must(err)
			for _, m := range machines {
				fmt.Printf("%s\t%s\t%s\tqty=%d\t%s\tinspected=%s\n", m.ID, m.MachineName, m.ClientName, m.NumMachines, m.QuoteLPOStatus, m.Inspected)
			}
		default:
			must(fmt.Errorf("unsupported kind: %s", *kind))
		}
	case "watch":
		mustStore(db)
		svc := watcher.NewService(db, cfg)
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(svc.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func printResult(result pipeline.UploadResult) {
	fmt.Printf("trace=%s rowsIn=%d droppedEmpty=%d droppedMissingKey=%d dateFailures=%d rateFailures=%d\n",
		result.TraceID, result.Stats.RowsIn, result.Stats.DroppedEmpty, result.Stats.DroppedMissingKey,
		result.Stats.DateFailures, result.Stats.RateFailures)
	if result.Stats.HeaderRecovered {
		fmt.Println("note: banner row detected, headers taken from row 2")
	}
	fmt.Printf("tiles=%d active=%d deleted=%d totalIncome=%s\n",
		result.TotalTiles, len(result.Tiles), result.DeletedTiles, result.Summary.TotalIncome.StringFixed(2))
	for _, tile := range result.Tiles {
		date := "-"
		if tile.Date != nil {
			date = tile.Date.Format("2006-01-02")
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n", tile.TileID, date, tile.Party, tile.Rate.StringFixed(2), tile.StockCodes)
	}
}

func mustStore(db *storage.DB) {
	if db == nil {
		must(fmt.Errorf("store unavailable: this command requires the database"))
	}
}

func usage() {
	fmt.Println(`usage: tiledash <command> [flags]

commands:
  ingest          --input <file>            process an invoice export and print tiles
  export:xlsx     --input <file> --out <f>  process and export tiles to a workbook
  tiles:deleted                             list soft-deleted tiles
  tiles:restore   --tileId <id> | --all     restore deleted tile(s)
  machines:list   --kind warranty|out-of-warranty
  watch                                     poll the drop folder and auto-export`)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

package internal

import (
	"time"

	"github.com/shopspring/decimal"
)

type CanonicalField string

const (
	FieldDocNo       CanonicalField = "DocNo"
	FieldDate        CanonicalField = "Date"
	FieldParty       CanonicalField = "Party"
	FieldStockCode   CanonicalField = "StockCode"
	FieldDescription CanonicalField = "Description"
	FieldRate        CanonicalField = "Rate"
)

// NormalizedRecord is one usable invoice line after column reconciliation
// and type coercion. DocNo and Party are never empty; rows failing that are
// dropped before grouping.
type NormalizedRecord struct {
	DocNo       string
	Date        *time.Time
	Party       string
	StockCode   string
	Description string
	Rate        decimal.Decimal
}

// Tile is the per-document aggregate shown on the dashboard. TileID is a
// pure function of DocNo, so soft-deletes stay valid across re-uploads.
type Tile struct {
	TileID      string          `json:"tileId"`
	DocNo       string          `json:"docNo"`
	Date        *time.Time      `json:"date"`
	Party       string          `json:"party"`
	StockCodes  string          `json:"stockCodes"`
	Description string          `json:"description"`
	Rate        decimal.Decimal `json:"rate"`
}

// IngestStats carries the per-upload diagnostics surfaced to the caller.
type IngestStats struct {
	RowsIn            int  `json:"rowsIn"`
	DroppedEmpty      int  `json:"droppedEmpty"`
	DroppedMissingKey int  `json:"droppedMissingKey"`
	DroppedPrefix     int  `json:"droppedPrefix"`
	DateFailures      int  `json:"dateFailures"`
	RateFailures      int  `json:"rateFailures"`
	HeaderRecovered   bool `json:"headerRecovered"`
	UniqueDocs        int  `json:"uniqueDocs"`
}

type DeletedTile struct {
	TileID    string `json:"tileId"`
	DocNo     string `json:"docNo"`
	DeletedAt string `json:"deletedAt"`
}

type WarrantyStatus string

const (
	WarrantyActive       WarrantyStatus = "Active"
	WarrantyExpiringSoon WarrantyStatus = "Expiring Soon"
	WarrantyExtended     WarrantyStatus = "Extended"
)

type InspectionState string

const (
	InspectedYes     InspectionState = "Yes"
	InspectedNo      InspectionState = "No"
	InspectedPending InspectionState = "Pending"
)

type QuoteLPOStatus string

const (
	QuoteSent        QuoteLPOStatus = "Quote Sent"
	QuoteLPOReceived QuoteLPOStatus = "LPO Received"
	QuotePending     QuoteLPOStatus = "Pending"
	QuoteNotRequired QuoteLPOStatus = "Not Required"
)

type WarrantyMachine struct {
	ID             string          `json:"id"`
	MachineName    string          `json:"machineName"`
	ClientName     string          `json:"clientName"`
	NumMachines    int             `json:"numMachines"`
	WarrantyStatus WarrantyStatus  `json:"warrantyStatus"`
	Inspected      InspectionState `json:"inspected"`
	AddedAt        string          `json:"addedAt"`
}

type OutOfWarrantyMachine struct {
	ID             string          `json:"id"`
	MachineName    string          `json:"machineName"`
	ClientName     string          `json:"clientName"`
	NumMachines    int             `json:"numMachines"`
	Inspected      InspectionState `json:"inspected"`
	QuoteLPOStatus QuoteLPOStatus  `json:"quoteLpoStatus"`
	AddedAt        string          `json:"addedAt"`
}

// UploadRun is one row of the upload audit trail.
type UploadRun struct {
	ID        int                `json:"id"`
	TraceID   string             `json:"traceId"`
	FileName  string             `json:"fileName"`
	Counts    map[string]int     `json:"counts"`
	Timings   map[string]float64 `json:"timings"`
	CreatedAt string             `json:"createdAt"`
}

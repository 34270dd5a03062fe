package ingest

import (
	"fmt"
	"strings"

	"tiledash/internal"
)

// synonymTable binds spreadsheet header variants to canonical fields. Order
// inside each list is the tie-breaker: when several synonym columns are
// present, the earliest synonym in the list wins.
var synonymTable = []struct {
	Field    internal.CanonicalField
	Synonyms []string
}{
	{internal.FieldDocNo, []string{"DocNo", "Document Number", "Doc No", "Docno"}},
	{internal.FieldDate, []string{"Date", "Doc Date", "Document Date"}},
	{internal.FieldParty, []string{"Party", "Customer", "Client", "Company"}},
	{internal.FieldStockCode, []string{"StockCode", "Stock Code", "Item Code", "Product Code"}},
	{internal.FieldDescription, []string{"Description", "Item Description", "Product Description"}},
	{internal.FieldRate, []string{"Rate", "Amount", "Price", "Unit Price", "Gr.Amt"}},
}

// Mapping binds each canonical field to a source column index.
type Mapping map[internal.CanonicalField]int

type MissingColumnsError struct {
	Missing   []internal.CanonicalField
	Available []string
}

func (e *MissingColumnsError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, f := range e.Missing {
		names = append(names, string(f))
	}
	return fmt.Sprintf("could not resolve columns %s from available headers [%s]",
		strings.Join(names, ", "), strings.Join(e.Available, ", "))
}

// Reconcile resolves the source headers onto the canonical fields. Header
// comparison is case-insensitive on trimmed text. When any field stays
// unresolved it returns a *MissingColumnsError naming every such field.
func Reconcile(headers []string) (Mapping, error) {
	lookup := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, exists := lookup[key]; !exists {
			lookup[key] = i
		}
	}

	mapping := make(Mapping, len(synonymTable))
	var missing []internal.CanonicalField
	for _, entry := range synonymTable {
		found := false
		for _, syn := range entry.Synonyms {
			if idx, ok := lookup[strings.ToLower(syn)]; ok {
				mapping[entry.Field] = idx
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, entry.Field)
		}
	}

	if len(missing) > 0 {
		available := make([]string, 0, len(headers))
		for _, h := range headers {
			available = append(available, strings.TrimSpace(h))
		}
		return nil, &MissingColumnsError{Missing: missing, Available: available}
	}
	return mapping, nil
}

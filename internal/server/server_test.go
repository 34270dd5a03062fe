package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"tiledash/internal"
	"tiledash/internal/config"
	"tiledash/internal/storage"
)

const sampleCSV = `DocNo,Date,Party,StockCode,Description,Rate
1,01/02/2024,Acme,E100,Widget,10.50
1,01/02/2024,Acme,E200,Gadget,5.00
2,02/02/2024,Globex,E300,Cog,99.99
`

func newTestRouter(t *testing.T) (*gin.Engine, *storage.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.Open(filepath.Join(t.TempDir(), "tiledash.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg, _ := config.Load()
	return New(db, cfg).Router(), db
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(blob)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func uploadCSV(t *testing.T, router *gin.Engine, csvBody string) *httptest.ResponseRecorder {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("file", "invoices.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte(csvBody)); err != nil {
		t.Fatal(err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := uploadCSV(t, router, sampleCSV)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var result struct {
		Tiles []internal.Tile      `json:"tiles"`
		Stats internal.IngestStats `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Tiles) != 2 || result.Stats.RowsIn != 3 {
		t.Fatalf("result=%+v", result)
	}
}

func TestUploadMissingColumns(t *testing.T) {
	router, _ := newTestRouter(t)

	w := uploadCSV(t, router, "Ref,Buyer\n1,Acme\n")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "missingColumns") {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestTileSoftDeleteFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodDelete, "/api/tiles/1_tile", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = uploadCSV(t, router, sampleCSV)
	var result struct {
		Tiles        []internal.Tile `json:"tiles"`
		DeletedTiles int             `json:"deletedTiles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Tiles) != 1 || result.DeletedTiles != 1 {
		t.Fatalf("result=%+v", result)
	}

	w = doJSON(t, router, http.MethodPost, "/api/tiles/1_tile/restore", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/tiles/restore-all", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestWarrantyMachineEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/machines/warranty", map[string]any{
		"machineName":    "Press 3000",
		"clientName":     "Acme",
		"numMachines":    2,
		"warrantyStatus": "Active",
		"inspected":      "Yes",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var machine internal.WarrantyMachine
	if err := json.Unmarshal(w.Body.Bytes(), &machine); err != nil {
		t.Fatal(err)
	}
	if machine.ID == "" || machine.AddedAt == "" {
		t.Fatalf("machine=%+v", machine)
	}

	w = doJSON(t, router, http.MethodGet, "/api/machines/warranty", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Press 3000") {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodDelete, "/api/machines/warranty/"+machine.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodDelete, "/api/machines/warranty/"+machine.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestWarrantyMachineValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/machines/warranty", map[string]any{
		"machineName":    "Press 3000",
		"clientName":     "Acme",
		"numMachines":    1,
		"warrantyStatus": "Broken",
		"inspected":      "Yes",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestMachinesSummary(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/machines/warranty", map[string]any{
		"machineName": "A", "clientName": "Acme", "numMachines": 3,
		"warrantyStatus": "Active", "inspected": "Yes",
	})
	doJSON(t, router, http.MethodPost, "/api/machines/out-of-warranty", map[string]any{
		"machineName": "B", "clientName": "Globex", "numMachines": 1,
		"inspected": "Pending", "quoteLpoStatus": "Quote Sent",
	})

	w := doJSON(t, router, http.MethodGet, "/api/machines/summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var summary machinesSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.WarrantyMachines != 3 || summary.OutOfWarrantyMachines != 1 || summary.TotalMachines != 4 {
		t.Fatalf("summary=%+v", summary)
	}
	if summary.WarrantyPercent != 75 {
		t.Fatalf("percent=%v", summary.WarrantyPercent)
	}
}

func TestStoreUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg, _ := config.Load()
	router := New(nil, cfg).Router()

	w := doJSON(t, router, http.MethodDelete, "/api/tiles/1_tile", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	// Uploads still render tiles without the store.
	w = uploadCSV(t, router, sampleCSV)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"storeAvailable":false`) {
		t.Fatalf("body=%s", w.Body.String())
	}
}

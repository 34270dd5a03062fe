package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tiledash/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS deleted_tiles (
  tileId TEXT PRIMARY KEY,
  docNo TEXT NOT NULL,
  deletedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS warranty_machines (
  id TEXT PRIMARY KEY,
  machineName TEXT NOT NULL,
  clientName TEXT NOT NULL,
  numMachines INTEGER NOT NULL DEFAULT 1,
  warrantyStatus TEXT NOT NULL,
  inspected TEXT NOT NULL,
  addedAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS out_of_warranty_machines (
  id TEXT PRIMARY KEY,
  machineName TEXT NOT NULL,
  clientName TEXT NOT NULL,
  numMachines INTEGER NOT NULL DEFAULT 1,
  inspected TEXT NOT NULL,
  quoteLpoStatus TEXT NOT NULL,
  addedAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS uploads (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  fileName TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// MarkTileDeleted records a soft-delete. Inserting the same tileId twice is
// a no-op, so re-deleting after a re-upload cannot fail.
func (d *DB) MarkTileDeleted(tileID, docNo string) error {
	_, err := d.conn.Exec(`INSERT OR IGNORE INTO deleted_tiles (tileId, docNo) VALUES (?, ?)`, tileID, docNo)
	return err
}

func (d *DB) DeletedTileIDs() (map[string]struct{}, error) {
	rows, err := d.conn.Query(`SELECT tileId FROM deleted_tiles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (d *DB) ListDeletedTiles() ([]internal.DeletedTile, error) {
	rows, err := d.conn.Query(`SELECT tileId, docNo, deletedAt FROM deleted_tiles ORDER BY deletedAt ASC, tileId ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.DeletedTile
	for rows.Next() {
		var row internal.DeletedTile
		if err := rows.Scan(&row.TileID, &row.DocNo, &row.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) RestoreTile(tileID string) (bool, error) {
	result, err := d.conn.Exec(`DELETE FROM deleted_tiles WHERE tileId = ?`, tileID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

func (d *DB) RestoreAllTiles() (int64, error) {
	result, err := d.conn.Exec(`DELETE FROM deleted_tiles`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (d *DB) InsertWarrantyMachine(m internal.WarrantyMachine) (internal.WarrantyMachine, error) {
	if m.AddedAt == "" {
		m.AddedAt = now()
	}
	_, err := d.conn.Exec(`
INSERT INTO warranty_machines (id, machineName, clientName, numMachines, warrantyStatus, inspected, addedAt)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, m.ID, m.MachineName, m.ClientName, m.NumMachines, string(m.WarrantyStatus), string(m.Inspected), m.AddedAt)
	if err != nil {
		return internal.WarrantyMachine{}, err
	}
	return m, nil
}

func (d *DB) ListWarrantyMachines() ([]internal.WarrantyMachine, error) {
	rows, err := d.conn.Query(`
SELECT id, machineName, clientName, numMachines, warrantyStatus, inspected, addedAt
FROM warranty_machines ORDER BY addedAt ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.WarrantyMachine
	for rows.Next() {
		var m internal.WarrantyMachine
		if err := rows.Scan(&m.ID, &m.MachineName, &m.ClientName, &m.NumMachines, &m.WarrantyStatus, &m.Inspected, &m.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (d *DB) DeleteWarrantyMachine(id string) (bool, error) {
	result, err := d.conn.Exec(`DELETE FROM warranty_machines WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

func (d *DB) InsertOutOfWarrantyMachine(m internal.OutOfWarrantyMachine) (internal.OutOfWarrantyMachine, error) {
	if m.AddedAt == "" {
		m.AddedAt = now()
	}
	_, err := d.conn.Exec(`
INSERT INTO out_of_warranty_machines (id, machineName, clientName, numMachines, inspected, quoteLpoStatus, addedAt)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, m.ID, m.MachineName, m.ClientName, m.NumMachines, string(m.Inspected), string(m.QuoteLPOStatus), m.AddedAt)
	if err != nil {
		return internal.OutOfWarrantyMachine{}, err
	}
	return m, nil
}

func (d *DB) ListOutOfWarrantyMachines() ([]internal.OutOfWarrantyMachine, error) {
	rows, err := d.conn.Query(`
SELECT id, machineName, clientName, numMachines, inspected, quoteLpoStatus, addedAt
FROM out_of_warranty_machines ORDER BY addedAt ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.OutOfWarrantyMachine
	for rows.Next() {
		var m internal.OutOfWarrantyMachine
		if err := rows.Scan(&m.ID, &m.MachineName, &m.ClientName, &m.NumMachines, &m.Inspected, &m.QuoteLPOStatus, &m.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (d *DB) DeleteOutOfWarrantyMachine(id string) (bool, error) {
	result, err := d.conn.Exec(`DELETE FROM out_of_warranty_machines WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

func (d *DB) InsertUpload(traceID, fileName string, counts map[string]int, timings map[string]float64) error {
	countsJSON, _ := json.Marshal(counts)
	timingsJSON, _ := json.Marshal(timings)
	_, err := d.conn.Exec(`INSERT INTO uploads (traceId, fileName, countsJson, timingsJson) VALUES (?, ?, ?, ?)`,
		traceID, fileName, string(countsJSON), string(timingsJSON))
	return err
}

func (d *DB) ListUploads(limit int) ([]internal.UploadRun, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, fileName, countsJson, timingsJson, createdAt
FROM uploads ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.UploadRun
	for rows.Next() {
		var run internal.UploadRun
		var countsJSON, timingsJSON string
		if err := rows.Scan(&run.ID, &run.TraceID, &run.FileName, &countsJSON, &timingsJSON, &run.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(countsJSON), &run.Counts)
		_ = json.Unmarshal([]byte(timingsJSON), &run.Timings)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}

package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"startracker/internal/apperr"
)

// SQLStore is the SQLite-backed indexed catalog (Back-end A). Queries are
// served against an in-memory copy of the catalog, mirrored in from the
// on-disk file once at open time, so lookups never touch disk.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens a SQLite catalog file and mirrors it into an
// in-memory SQLite connection via the sqlite3 backup API.
func OpenSQLStore(path string) (*SQLStore, error) {
	fileDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, apperr.ErrCatalogUnavailable)
	}
	defer fileDB.Close()

	memDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("catalog: open in-memory mirror: %w", apperr.ErrCatalogUnavailable)
	}

	if err := mirror(fileDB, memDB); err != nil {
		memDB.Close()
		return nil, fmt.Errorf("catalog: mirroring %s into memory: %w", path, err)
	}

	return &SQLStore{db: memDB}, nil
}

// NewSQLStoreFromFeatures builds an in-memory SQLite catalog directly from
// a feature list, for tests and for catalogs assembled at runtime rather
// than loaded from a pre-built file.
func NewSQLStoreFromFeatures(features []Feature) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("catalog: open in-memory store: %w", apperr.ErrCatalogUnavailable)
	}
	if _, err := db.Exec(`CREATE TABLE featureList (id1 INTEGER, id2 INTEGER, theta REAL)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: creating table: %w", apperr.ErrCatalogUnavailable)
	}
	stmt, err := db.Prepare(`INSERT INTO featureList (id1, id2, theta) VALUES (?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: preparing insert: %w", apperr.ErrCatalogUnavailable)
	}
	defer stmt.Close()
	for _, f := range features {
		if _, err := stmt.Exec(f.ID1, f.ID2, f.Theta); err != nil {
			db.Close()
			return nil, fmt.Errorf("catalog: inserting feature: %w", apperr.ErrCatalogUnavailable)
		}
	}
	return &SQLStore{db: db}, nil
}

func mirror(src, dst *sql.DB) error {
	ctx := context.Background()
	srcConn, err := src.Conn(ctx)
	if err != nil {
		return err
	}
	defer srcConn.Close()
	dstConn, err := dst.Conn(ctx)
	if err != nil {
		return err
	}
	defer dstConn.Close()

	return dstConn.Raw(func(dstDriverConn any) error {
		return srcConn.Raw(func(srcDriverConn any) error {
			dstSQLite, ok := dstDriverConn.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("catalog: destination connection is not sqlite3")
			}
			srcSQLite, ok := srcDriverConn.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("catalog: source connection is not sqlite3")
			}
			backup, err := dstSQLite.Backup("main", srcSQLite, "main")
			if err != nil {
				return err
			}
			defer backup.Close()
			if _, err := backup.Step(-1); err != nil {
				return err
			}
			return nil
		})
	})
}

// Range returns every feature with theta strictly between lo and hi.
func (s *SQLStore) Range(lo, hi float32) ([]Feature, error) {
	rows, err := s.db.Query(`SELECT id1, id2, theta FROM featureList WHERE theta > ? AND theta < ?`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("catalog: Range query: %w", apperr.ErrCatalogUnavailable)
	}
	defer rows.Close()
	return scanFeatures(rows)
}

// RangeWithID returns every feature with theta strictly between lo and hi
// that also references id.
func (s *SQLStore) RangeWithID(lo, hi float32, id int) ([]Feature, error) {
	rows, err := s.db.Query(
		`SELECT id1, id2, theta FROM featureList WHERE theta > ? AND theta < ? AND (id1 = ? OR id2 = ?)`,
		lo, hi, id, id)
	if err != nil {
		return nil, fmt.Errorf("catalog: RangeWithID query: %w", apperr.ErrCatalogUnavailable)
	}
	defer rows.Close()
	return scanFeatures(rows)
}

// Lookup returns the feature matching the exact (id1, id2) pair, if any.
func (s *SQLStore) Lookup(id1, id2 int) (Feature, bool, error) {
	row := s.db.QueryRow(
		`SELECT id1, id2, theta FROM featureList WHERE (id1 = ? AND id2 = ?) OR (id1 = ? AND id2 = ?)`,
		id1, id2, id2, id1)
	var f Feature
	if err := row.Scan(&f.ID1, &f.ID2, &f.Theta); err != nil {
		if err == sql.ErrNoRows {
			return Feature{}, false, nil
		}
		return Feature{}, false, fmt.Errorf("catalog: Lookup query: %w", apperr.ErrCatalogUnavailable)
	}
	return f, true, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func scanFeatures(rows *sql.Rows) ([]Feature, error) {
	var out []Feature
	for rows.Next() {
		var f Feature
		if err := rows.Scan(&f.ID1, &f.ID2, &f.Theta); err != nil {
			return nil, fmt.Errorf("catalog: scanning row: %w", apperr.ErrCatalogUnavailable)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: reading rows: %w", apperr.ErrCatalogUnavailable)
	}
	return out, nil
}

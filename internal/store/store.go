// Package store persists the normalized conjugation table in SQLite and
// serves the read-only queries the web layer needs.
//
// The table is rebuilt wholesale (drop and recreate) whenever the staleness
// policy demands it; after the startup build the store is never mutated.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"klisi/internal/normalize"
)

// ErrStoreUnavailable indicates no usable conjugation table exists: the
// startup build failed and no prior table survived.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrNotFound indicates a lookup matched no record.
var ErrNotFound = errors.New("verb not found")

// ErrUnknownForm indicates a requested conjugation-form column does not
// exist in the persisted table.
var ErrUnknownForm = errors.New("unknown conjugation form")

// driverName is the sqlite3 driver variant with Unicode case folding.
const driverName = "sqlite3_ufold"

func init() {
	// SQLite's built-in lower() folds ASCII only. Greek search needs real
	// Unicode folding, and uppercase Greek drops accents, so ΤΡΕΧΩ has to
	// match τρέχω: fold case and strip diacritics on both sides.
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("ufold", Fold, true)
		},
	})
}

// Fold lowercases s and strips combining diacritical marks. It is the
// normalization applied to both search terms and stored values during
// case-insensitive matching.
func Fold(s string) string {
	s = strings.ToLower(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Store is a handle to the persisted conjugation table. It is safe for
// concurrent readers once the startup build has completed.
type Store struct {
	db    *sql.DB
	table string

	// columns is the persisted column set in table order; formCols is the
	// subset holding conjugation forms. Both empty while unavailable.
	columns  []string
	formCols []string
}

// Stale reports whether the persisted store at path must be rebuilt:
// the file is missing, smaller than the plausibility threshold, or the
// deployment mandates a rebuild on every startup.
func Stale(path string, minSize int64, rebuildAlways bool) bool {
	if rebuildAlways {
		return true
	}
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return info.Size() < minSize
}

// Open opens the SQLite file at path and introspects the conjugation
// table if one exists. A missing table is not an error; the store simply
// starts unavailable until Build succeeds.
func Open(path, table string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	// One connection serializes the single build write; reads after the
	// build are cheap point queries, so sharing it costs nothing.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping store %s: %w", path, err)
	}

	s := &Store{db: db, table: table}
	if err := s.refreshColumns(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Available reports whether the store holds a queryable conjugation table.
func (s *Store) Available() bool {
	return s != nil && s.db != nil && len(s.columns) > 0
}

// Columns returns the persisted column set in table order.
func (s *Store) Columns() []string { return s.columns }

// FormColumns returns the conjugation-form column names in table order.
func (s *Store) FormColumns() []string { return s.formCols }

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Build replaces the conjugation table wholesale with the given record
// set. All inserts run in one transaction; a failure rolls the
// transaction back and leaves the store for the next startup to retry.
func (s *Store) Build(ctx context.Context, res *normalize.Result) (inserted int, err error) {
	if s.db == nil {
		return 0, ErrStoreUnavailable
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin build transaction: %w", err)
	}
	defer tx.Rollback() // No-op if already committed

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(s.table)); err != nil {
		return 0, fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(s.table, res.FormColumns)); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}

	stmtSQL, ncols := insertSQL(s.table, res.FormColumns)
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range res.Records {
		args := make([]any, 0, ncols)
		args = append(args, rec.ID, rec.GreekVerb, rec.EnglishVerb, rec.Translation, rec.VerbGroup)
		for _, col := range res.FormColumns {
			args = append(args, rec.Forms[col])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert verb %d: %w", rec.ID, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit build transaction: %w", err)
	}

	if err := s.refreshColumns(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// refreshColumns reads the persisted column set from the table schema.
// Leaves the store unavailable when the table is absent or lacks the
// required columns.
func (s *Store) refreshColumns() error {
	rows, err := s.db.Query("SELECT name FROM pragma_table_info(?)", s.table)
	if err != nil {
		return fmt.Errorf("inspect table %s: %w", s.table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan column name: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect table %s: %w", s.table, err)
	}

	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c] = true
	}
	for _, required := range normalize.RequiredColumns {
		if !present[required] {
			// Table absent or built against an incompatible schema.
			s.columns, s.formCols = nil, nil
			return nil
		}
	}

	s.columns = cols
	s.formCols = nil
	fixed := map[string]bool{
		normalize.ColID:          true,
		normalize.ColGreekVerb:   true,
		normalize.ColEnglishVerb: true,
		normalize.ColTranslation: true,
		normalize.ColVerbGroup:   true,
	}
	for _, c := range cols {
		if !fixed[c] {
			s.formCols = append(s.formCols, c)
		}
	}
	return nil
}

// createTableSQL builds the DDL for the conjugation table: ID is the
// integer primary key, everything else is non-null text defaulting to "".
func createTableSQL(table string, formCols []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" (\n\t")
	b.WriteString(quoteIdent(normalize.ColID))
	b.WriteString(" INTEGER PRIMARY KEY")
	for _, col := range []string{
		normalize.ColGreekVerb,
		normalize.ColEnglishVerb,
		normalize.ColTranslation,
		normalize.ColVerbGroup,
	} {
		b.WriteString(",\n\t")
		b.WriteString(quoteIdent(col))
		b.WriteString(" TEXT NOT NULL DEFAULT ''")
	}
	for _, col := range formCols {
		b.WriteString(",\n\t")
		b.WriteString(quoteIdent(col))
		b.WriteString(" TEXT NOT NULL DEFAULT ''")
	}
	b.WriteString("\n)")
	return b.String()
}

// insertSQL builds the parameterized insert statement and reports the
// number of bound columns.
func insertSQL(table string, formCols []string) (string, int) {
	cols := append([]string{
		normalize.ColID,
		normalize.ColGreekVerb,
		normalize.ColEnglishVerb,
		normalize.ColTranslation,
		normalize.ColVerbGroup,
	}, formCols...)

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(marks, ", ")), len(cols)
}

// quoteIdent quotes a SQL identifier. Column names come from the source
// header, so they are never interpolated unquoted.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Package normalize turns raw source rows into the admissible verb record
// set: values are trimmed, blanks collapse to empty strings, and rows
// missing any gating field are dropped rather than persisted.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"klisi/internal/source"
)

// Column names the source header must carry. Every other column is treated
// as a conjugation-form column and passed through verbatim.
const (
	ColID          = "ID"
	ColGreekVerb   = "Greek_Verb"
	ColEnglishVerb = "English_Verb"
	ColTranslation = "Translation"
	ColVerbGroup   = "Verb_Group"
)

// RequiredColumns are the gating columns: a row missing any of them is
// excluded from the build.
var RequiredColumns = []string{ColID, ColGreekVerb, ColEnglishVerb, ColTranslation}

// ErrSchemaInvalid indicates the source header omits required columns.
var ErrSchemaInvalid = errors.New("source schema invalid")

// Record is one admissible row of the conjugation table.
// Optional fields hold "" when the source value was blank or missing,
// never a null marker.
type Record struct {
	ID          int64
	GreekVerb   string
	EnglishVerb string
	Translation string
	VerbGroup   string

	// Forms maps conjugation-form column name to its value.
	// Every form column from the header is present, possibly as "".
	Forms map[string]string
}

// Result is the admissible record set plus build diagnostics.
type Result struct {
	// Records preserves source order.
	Records []Record

	// FormColumns are the conjugation-form column names in header order.
	FormColumns []string

	// RowsRead is the number of raw data rows considered.
	RowsRead int

	// RowsDropped counts rows excluded by the gating check,
	// including unparseable and duplicate IDs.
	RowsDropped int

	// DuplicateIDs counts rows dropped because an earlier row
	// already claimed their ID.
	DuplicateIDs int
}

// Normalize validates the header and produces the admissible record set.
//
// Rows failing the gate (blank ID, Greek_Verb, English_Verb or Translation,
// or a non-integer or duplicate ID) are dropped silently and counted.
// Returns an error wrapping ErrSchemaInvalid when required columns are
// missing from the header entirely.
func Normalize(rows []source.Row, header []string) (*Result, error) {
	if err := checkSchema(header); err != nil {
		return nil, err
	}

	formCols := formColumns(header)
	res := &Result{
		Records:     make([]Record, 0, len(rows)),
		FormColumns: formCols,
		RowsRead:    len(rows),
	}

	seen := make(map[int64]bool, len(rows))
	for _, row := range rows {
		rawID, ok := field(row, ColID)
		if !ok {
			res.RowsDropped++
			continue
		}
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			res.RowsDropped++
			continue
		}

		greek, ok := field(row, ColGreekVerb)
		if !ok {
			res.RowsDropped++
			continue
		}
		english, ok := field(row, ColEnglishVerb)
		if !ok {
			res.RowsDropped++
			continue
		}
		translation, ok := field(row, ColTranslation)
		if !ok {
			res.RowsDropped++
			continue
		}

		// First occurrence wins; later rows with the same ID are dropped
		// so the persisted table never violates ID uniqueness.
		if seen[id] {
			res.RowsDropped++
			res.DuplicateIDs++
			continue
		}
		seen[id] = true

		rec := Record{
			ID:          id,
			GreekVerb:   greek,
			EnglishVerb: english,
			Translation: translation,
			Forms:       make(map[string]string, len(formCols)),
		}
		rec.VerbGroup, _ = field(row, ColVerbGroup)
		for _, col := range formCols {
			v, _ := field(row, col)
			rec.Forms[col] = v
		}
		res.Records = append(res.Records, rec)
	}

	return res, nil
}

// field returns the trimmed value for col and whether it is present.
// Blank and whitespace-only values are absent; absent values read as "".
func field(row source.Row, col string) (string, bool) {
	v := strings.TrimSpace(row[col])
	return v, v != ""
}

// checkSchema verifies all required columns appear in the header.
func checkSchema(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: header missing columns %s", ErrSchemaInvalid, strings.Join(missing, ", "))
	}
	return nil
}

// formColumns returns the header columns that hold conjugation forms,
// preserving header order.
func formColumns(header []string) []string {
	fixed := map[string]bool{
		ColID:          true,
		ColGreekVerb:   true,
		ColEnglishVerb: true,
		ColTranslation: true,
		ColVerbGroup:   true,
	}

	var cols []string
	for _, h := range header {
		if h == "" || fixed[h] {
			continue
		}
		cols = append(cols, h)
	}
	return cols
}

// Package source reads the delimited verb conjugation table into raw rows.
//
// The source file is comma-separated with a header row. Files are decoded
// through an ordered encoding fallback chain so legacy single-byte Greek
// exports (ISO 8859-7, Windows-1253) load alongside UTF-8.
package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrSourceUnreadable indicates the source file is missing, undecodable in
// every configured encoding, or not parseable as delimited text.
var ErrSourceUnreadable = errors.New("source unreadable")

// Row is one raw source row, keyed by header column name.
// A missing key means the row had no cell for that column.
type Row map[string]string

// charmaps maps normalized encoding names to their single-byte decoders.
var charmaps = map[string]*charmap.Charmap{
	"iso88597":    charmap.ISO8859_7,
	"windows1253": charmap.Windows1253,
	"cp1253":      charmap.Windows1253,
	"iso88591":    charmap.ISO8859_1,
	"latin1":      charmap.ISO8859_1,
	"windows1252": charmap.Windows1252,
	"cp1252":      charmap.Windows1252,
}

// Load reads the file at path and returns its data rows in source order,
// along with the cleaned header column names.
//
// Encodings are attempted in order; the first that decodes the file wins.
// Fully empty rows are skipped. Rows shorter than the header simply omit
// the trailing columns; extra cells beyond the header are ignored.
func Load(path string, encodings []string) ([]Row, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}

	text, err := decode(data, encodings)
	if err != nil {
		return nil, nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse csv: %v", ErrSourceUnreadable, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: file has no header row", ErrSourceUnreadable)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = cleanCell(h)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if isEmptyRow(record) {
			continue
		}
		row := make(Row, len(header))
		for i, col := range header {
			if col == "" || i >= len(record) {
				continue
			}
			row[col] = record[i]
		}
		rows = append(rows, row)
	}

	return rows, header, nil
}

// decode converts raw file bytes to a string using the first encoding in
// the chain that succeeds. UTF-8 is validated strictly; single-byte
// charmaps always decode, so they terminate the chain when reached.
func decode(data []byte, encodings []string) (string, error) {
	for _, name := range encodings {
		switch key := normalizeEncoding(name); key {
		case "utf8":
			if utf8.Valid(data) {
				return string(stripBOM(data)), nil
			}
		default:
			cm, ok := charmaps[key]
			if !ok {
				return "", fmt.Errorf("unknown source encoding %q", name)
			}
			decoded, err := cm.NewDecoder().Bytes(data)
			if err != nil {
				continue
			}
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("%w: no configured encoding decodes the file", ErrSourceUnreadable)
}

// normalizeEncoding lowercases an encoding name and strips separators so
// "ISO-8859-7", "iso_8859_7" and "iso88597" all match.
func normalizeEncoding(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", "")
	name = strings.ReplaceAll(name, "_", "")
	return name
}

// stripBOM removes a leading UTF-8 byte order mark if present.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

// cleanCell removes common CSV artifacts from a header cell:
// surrounding whitespace, Excel formula prefix (="..."), stray quotes.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// isEmptyRow reports whether every cell is blank.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"klisi/internal/normalize"
)

// Verb is one persisted conjugation record as seen by the query layer.
type Verb struct {
	ID          int64             `json:"id"`
	GreekVerb   string            `json:"greek_verb"`
	EnglishVerb string            `json:"english_verb"`
	Translation string            `json:"translation"`
	VerbGroup   string            `json:"verb_group"`
	Forms       map[string]string `json:"forms"`
}

// Projection is the catalogue view of a verb, without conjugation forms.
type Projection struct {
	ID          int64  `json:"id"`
	GreekVerb   string `json:"greek_verb"`
	EnglishVerb string `json:"english_verb"`
	Translation string `json:"translation"`
	VerbGroup   string `json:"verb_group"`
}

// FormTriple pairs a verb with one non-empty conjugation-form value,
// for template-sentence generation.
type FormTriple struct {
	GreekVerb   string `json:"greek_verb"`
	FormValue   string `json:"form_value"`
	Translation string `json:"translation"`
}

// Lookup returns at most one verb matching term case-insensitively on
// Greek_Verb, English_Verb or Translation. Exact matches win over
// substring matches; ties break on the lowest ID so results are
// deterministic for a given store state.
func (s *Store) Lookup(ctx context.Context, term string) (*Verb, error) {
	if !s.Available() {
		return nil, ErrStoreUnavailable
	}
	term = Fold(strings.TrimSpace(term))
	if term == "" {
		return nil, ErrNotFound
	}

	exact := fmt.Sprintf(
		`SELECT %s FROM %s
		 WHERE ufold(%s) = ? OR ufold(%s) = ? OR ufold(%s) = ?
		 ORDER BY %s LIMIT 1`,
		s.selectList(), quoteIdent(s.table),
		quoteIdent(normalize.ColGreekVerb), quoteIdent(normalize.ColEnglishVerb), quoteIdent(normalize.ColTranslation),
		quoteIdent(normalize.ColID),
	)
	v, err := s.queryVerb(ctx, exact, term, term, term)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return v, err
	}

	// instr avoids LIKE-pattern escaping for user-supplied terms.
	substring := fmt.Sprintf(
		`SELECT %s FROM %s
		 WHERE instr(ufold(%s), ?) > 0 OR instr(ufold(%s), ?) > 0 OR instr(ufold(%s), ?) > 0
		 ORDER BY %s LIMIT 1`,
		s.selectList(), quoteIdent(s.table),
		quoteIdent(normalize.ColGreekVerb), quoteIdent(normalize.ColEnglishVerb), quoteIdent(normalize.ColTranslation),
		quoteIdent(normalize.ColID),
	)
	return s.queryVerb(ctx, substring, term, term, term)
}

// Random returns one verb drawn uniformly across all persisted records.
func (s *Store) Random(ctx context.Context) (*Verb, error) {
	if !s.Available() {
		return nil, ErrStoreUnavailable
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY RANDOM() LIMIT 1",
		s.selectList(), quoteIdent(s.table))
	return s.queryVerb(ctx, q)
}

// List returns catalogue projections for all verbs, ordered by Greek_Verb
// ascending.
func (s *Store) List(ctx context.Context) ([]Projection, error) {
	if !s.Available() {
		return nil, ErrStoreUnavailable
	}
	q := fmt.Sprintf("SELECT %s, %s, %s, %s, %s FROM %s ORDER BY %s ASC, %s ASC",
		quoteIdent(normalize.ColID),
		quoteIdent(normalize.ColGreekVerb),
		quoteIdent(normalize.ColEnglishVerb),
		quoteIdent(normalize.ColTranslation),
		quoteIdent(normalize.ColVerbGroup),
		quoteIdent(s.table),
		quoteIdent(normalize.ColGreekVerb),
		quoteIdent(normalize.ColID),
	)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list verbs: %w", err)
	}
	defer rows.Close()

	var out []Projection
	for rows.Next() {
		var p Projection
		if err := rows.Scan(&p.ID, &p.GreekVerb, &p.EnglishVerb, &p.Translation, &p.VerbGroup); err != nil {
			return nil, fmt.Errorf("scan projection: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list verbs: %w", err)
	}
	return out, nil
}

// FormTriples returns (greek_verb, form_value, translation) for every
// record whose named conjugation-form column is non-empty. The form name
// is validated against the persisted column set before it reaches SQL.
func (s *Store) FormTriples(ctx context.Context, form string) ([]FormTriple, error) {
	if !s.Available() {
		return nil, ErrStoreUnavailable
	}
	if !s.hasFormColumn(form) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownForm, form)
	}

	q := fmt.Sprintf("SELECT %s, %s, %s FROM %s WHERE %s != '' ORDER BY %s ASC",
		quoteIdent(normalize.ColGreekVerb),
		quoteIdent(form),
		quoteIdent(normalize.ColTranslation),
		quoteIdent(s.table),
		quoteIdent(form),
		quoteIdent(normalize.ColID),
	)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("form triples %q: %w", form, err)
	}
	defer rows.Close()

	var out []FormTriple
	for rows.Next() {
		var t FormTriple
		if err := rows.Scan(&t.GreekVerb, &t.FormValue, &t.Translation); err != nil {
			return nil, fmt.Errorf("scan form triple: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("form triples %q: %w", form, err)
	}
	return out, nil
}

// Count returns the number of persisted verbs.
func (s *Store) Count(ctx context.Context) (int, error) {
	if !s.Available() {
		return 0, ErrStoreUnavailable
	}
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(s.table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count verbs: %w", err)
	}
	return n, nil
}

// hasFormColumn reports whether form names a persisted conjugation-form
// column.
func (s *Store) hasFormColumn(form string) bool {
	for _, c := range s.formCols {
		if c == form {
			return true
		}
	}
	return false
}

// selectList returns the quoted column list for full-record selects, in
// table order.
func (s *Store) selectList() string {
	quoted := make([]string, len(s.columns))
	for i, c := range s.columns {
		quoted[i] = quoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// queryVerb runs a single-record query and scans it into a Verb.
// Returns ErrNotFound when the query yields no rows.
func (s *Store) queryVerb(ctx context.Context, query string, args ...any) (*Verb, error) {
	row := s.db.QueryRowContext(ctx, query, args...)

	dest := make([]any, len(s.columns))
	values := make([]string, len(s.columns))
	v := &Verb{Forms: make(map[string]string, len(s.formCols))}
	for i, col := range s.columns {
		if col == normalize.ColID {
			dest[i] = &v.ID
		} else {
			dest[i] = &values[i]
		}
	}

	if err := row.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan verb: %w", err)
	}

	for i, col := range s.columns {
		switch col {
		case normalize.ColID:
		case normalize.ColGreekVerb:
			v.GreekVerb = values[i]
		case normalize.ColEnglishVerb:
			v.EnglishVerb = values[i]
		case normalize.ColTranslation:
			v.Translation = values[i]
		case normalize.ColVerbGroup:
			v.VerbGroup = values[i]
		default:
			v.Forms[col] = values[i]
		}
	}
	return v, nil
}

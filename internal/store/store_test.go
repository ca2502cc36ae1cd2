package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"klisi/internal/normalize"
)

var testForms = []string{"Present_Ego", "Present_Esy"}

func rec(id int64, greek, english, translation, group, presentEgo, presentEsy string) normalize.Record {
	return normalize.Record{
		ID:          id,
		GreekVerb:   greek,
		EnglishVerb: english,
		Translation: translation,
		VerbGroup:   group,
		Forms: map[string]string{
			"Present_Ego": presentEgo,
			"Present_Esy": presentEsy,
		},
	}
}

func testRecords() []normalize.Record {
	return []normalize.Record{
		rec(1, "τρέχω", "to run", "τρέχω", "A", "τρέχω", "τρέχεις"),
		rec(2, "τρώω", "to eat", "τρώω", "B", "τρώω", ""),
		rec(3, "μιλάω", "to speak", "μιλάω", "", "μιλάω", "μιλάς"),
		rec(4, "γράφω", "to write", "γράφω", "A", "γράφω", "γράφεις"),
		rec(5, "βλέπω", "to see", "βλέπω", "", "βλέπω", "βλέπεις"),
	}
}

func buildStore(t *testing.T, recs []normalize.Record) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "verbs.db"), "conjugations")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	res := &normalize.Result{Records: recs, FormColumns: testForms}
	if _, err := s.Build(context.Background(), res); err != nil {
		t.Fatalf("build store: %v", err)
	}
	return s
}

func TestBuild_RoundTrip(t *testing.T) {
	s := buildStore(t, testRecords())
	ctx := context.Background()

	if !s.Available() {
		t.Fatal("store should be available after build")
	}

	v, err := s.Lookup(ctx, "to run")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if v.ID != 1 || v.GreekVerb != "τρέχω" {
		t.Errorf("got verb %+v, want id=1 greek=τρέχω", v)
	}
	if v.Forms["Present_Esy"] != "τρέχεις" {
		t.Errorf("Forms[Present_Esy] = %q, want %q", v.Forms["Present_Esy"], "τρέχεις")
	}
}

func TestLookup_CaseInsensitiveGreek(t *testing.T) {
	s := buildStore(t, testRecords())
	ctx := context.Background()

	// Uppercase Greek drops accents, so both spellings must hit.
	for _, term := range []string{"ΤΡΕΧΩ", "τρέχω", "Τρέχω"} {
		v, err := s.Lookup(ctx, term)
		if err != nil {
			t.Fatalf("Lookup(%q) error = %v", term, err)
		}
		if v.ID != 1 {
			t.Errorf("Lookup(%q) = id %d, want 1", term, v.ID)
		}
	}
}

func TestLookup_SubstringFallback(t *testing.T) {
	s := buildStore(t, testRecords())

	v, err := s.Lookup(context.Background(), "run")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if v.ID != 1 {
		t.Errorf("got id %d, want 1", v.ID)
	}
}

func TestLookup_DeterministicTieBreak(t *testing.T) {
	s := buildStore(t, testRecords())
	ctx := context.Background()

	// "to" is a substring of every English verb; lowest ID must win,
	// and repeatedly.
	for i := 0; i < 10; i++ {
		v, err := s.Lookup(ctx, "to")
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if v.ID != 1 {
			t.Fatalf("got id %d, want 1 (deterministic tie-break)", v.ID)
		}
	}
}

func TestLookup_NotFound(t *testing.T) {
	s := buildStore(t, testRecords())

	_, err := s.Lookup(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Lookup() error = %v, want ErrNotFound", err)
	}
}

func TestRandom_Coverage(t *testing.T) {
	s := buildStore(t, testRecords())
	ctx := context.Background()

	draws := 10000
	counts := make(map[int64]int)
	for i := 0; i < draws; i++ {
		v, err := s.Random(ctx)
		if err != nil {
			t.Fatalf("Random() error = %v", err)
		}
		counts[v.ID]++
	}

	if len(counts) != 5 {
		t.Fatalf("drew %d distinct verbs, want 5", len(counts))
	}
	for id, n := range counts {
		if n == 0 {
			t.Errorf("verb %d never drawn in %d draws", id, draws)
		}
	}
}

func TestList_OrderedByGreekVerb(t *testing.T) {
	s := buildStore(t, testRecords())

	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("got %d projections, want 5", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].GreekVerb > list[i].GreekVerb {
			t.Errorf("list not sorted: %q before %q", list[i-1].GreekVerb, list[i].GreekVerb)
		}
	}
}

func TestFormTriples(t *testing.T) {
	s := buildStore(t, testRecords())

	triples, err := s.FormTriples(context.Background(), "Present_Esy")
	if err != nil {
		t.Fatalf("FormTriples() error = %v", err)
	}
	// Verb 2 has an empty Present_Esy and must be excluded.
	if len(triples) != 4 {
		t.Fatalf("got %d triples, want 4", len(triples))
	}
	for _, tr := range triples {
		if tr.FormValue == "" {
			t.Errorf("triple for %q has empty form value", tr.GreekVerb)
		}
	}
}

func TestFormTriples_UnknownForm(t *testing.T) {
	s := buildStore(t, testRecords())

	_, err := s.FormTriples(context.Background(), "Nonexistent; DROP TABLE conjugations")
	if !errors.Is(err, ErrUnknownForm) {
		t.Fatalf("FormTriples() error = %v, want ErrUnknownForm", err)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	s := buildStore(t, testRecords())
	ctx := context.Background()

	first, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	res := &normalize.Result{Records: testRecords(), FormColumns: testForms}
	if _, err := s.Build(ctx, res); err != nil {
		t.Fatalf("second build: %v", err)
	}

	second, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() after rebuild error = %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("rebuild changed record count: %d != %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("record %d drifted: %+v != %+v", i, first[i], second[i])
		}
	}
}

func TestReopen_ExistingStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verbs.db")

	s, err := Open(path, "conjugations")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	res := &normalize.Result{Records: testRecords(), FormColumns: testForms}
	if _, err := s.Build(context.Background(), res); err != nil {
		t.Fatalf("build store: %v", err)
	}
	s.Close()

	// A fresh handle must introspect the persisted schema and serve
	// queries without a rebuild.
	reopened, err := Open(path, "conjugations")
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	if !reopened.Available() {
		t.Fatal("reopened store should be available")
	}
	v, err := reopened.Lookup(context.Background(), "to see")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if v.ID != 5 {
		t.Errorf("got id %d, want 5", v.ID)
	}
	if got := len(reopened.FormColumns()); got != 2 {
		t.Errorf("FormColumns() len = %d, want 2", got)
	}
}

func TestUnavailable_Queries(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "empty.db"), "conjugations")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	if s.Available() {
		t.Fatal("store without a table should be unavailable")
	}

	ctx := context.Background()
	if _, err := s.Lookup(ctx, "run"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Lookup() error = %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.Random(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Random() error = %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.List(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("List() error = %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.FormTriples(ctx, "Present_Ego"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("FormTriples() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestStale(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.db")
	if err := os.WriteFile(big, make([]byte, 8192), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	small := filepath.Join(dir, "small.db")
	if err := os.WriteFile(small, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		minSize int64
		always  bool
		want    bool
	}{
		{"missing file", filepath.Join(dir, "nope.db"), 1, false, true},
		{"below threshold", small, 4096, false, true},
		{"plausible file", big, 4096, false, false},
		{"rebuild always", big, 4096, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stale(tt.path, tt.minSize, tt.always); got != tt.want {
				t.Errorf("Stale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ΤΡΕΧΩ", "τρεχω"},
		{"τρέχω", "τρεχω"},
		{"Μιλάω", "μιλαω"},
		{"To Run", "to run"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

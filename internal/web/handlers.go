package web

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"

	"klisi/internal/store"
)

// verbResponse is the JSON body for single-verb results.
type verbResponse struct {
	Success bool        `json:"success"`
	Verb    *store.Verb `json:"verb"`
}

// listResponse is the JSON body for the catalogue listing.
type listResponse struct {
	Success bool               `json:"success"`
	Count   int                `json:"count"`
	Verbs   []store.Projection `json:"verbs"`
}

// formsResponse is the JSON body for the form-column listing.
type formsResponse struct {
	Success bool     `json:"success"`
	Forms   []string `json:"forms"`
}

// sentenceResponse is the JSON body for a generated template sentence.
type sentenceResponse struct {
	Success  bool             `json:"success"`
	Form     string           `json:"form"`
	Sentence string           `json:"sentence"`
	Verb     store.FormTriple `json:"verb"`
}

// pronouns maps the grammatical-person suffix of a form column to the
// Greek subject pronoun used in template sentences. Form columns follow
// the Tense_Person naming of the source table (e.g. Present_Ego).
var pronouns = map[string]string{
	"ego":   "Εγώ",
	"esy":   "Εσύ",
	"aftos": "Αυτός",
	"emeis": "Εμείς",
	"eseis": "Εσείς",
	"aftoi": "Αυτοί",
}

// handleIndex serves the embedded lookup page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// handleSearch looks up a single verb by search term.
// Matches Greek_Verb, English_Verb or Translation, case-insensitively,
// exact before substring.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	if term == "" {
		respondFailure(w, http.StatusBadRequest, "No search term provided.")
		return
	}

	verb, err := s.verbs.Lookup(r.Context(), term)
	if errors.Is(err, store.ErrNotFound) {
		respondFailure(w, http.StatusOK, fmt.Sprintf("Verb %q not found in the database.", term))
		return
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, verbResponse{Success: true, Verb: verb})
}

// handleRandom returns one verb drawn uniformly from the store.
func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	verb, err := s.verbs.Random(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		respondFailure(w, http.StatusOK, "The verb database is empty.")
		return
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, verbResponse{Success: true, Verb: verb})
}

// handleListVerbs returns the full catalogue, ordered by Greek verb.
func (s *Server) handleListVerbs(w http.ResponseWriter, r *http.Request) {
	verbs, err := s.verbs.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, listResponse{Success: true, Count: len(verbs), Verbs: verbs})
}

// handleListForms returns the conjugation-form column names the store
// carries, so clients can discover valid values for /api/sentence.
func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	if !s.verbs.Available() {
		s.respondError(w, r, store.ErrStoreUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, formsResponse{Success: true, Forms: s.verbs.FormColumns()})
}

// handleSentence generates a practice sentence from one randomly chosen
// verb whose named conjugation form is non-empty.
func (s *Server) handleSentence(w http.ResponseWriter, r *http.Request) {
	form := strings.TrimSpace(r.URL.Query().Get("form"))
	if form == "" {
		respondFailure(w, http.StatusBadRequest, "No conjugation form provided.")
		return
	}

	triples, err := s.verbs.FormTriples(r.Context(), form)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(triples) == 0 {
		respondFailure(w, http.StatusOK, fmt.Sprintf("No verbs carry a value for form %q.", form))
		return
	}

	t := triples[rand.Intn(len(triples))]
	respondJSON(w, http.StatusOK, sentenceResponse{
		Success:  true,
		Form:     form,
		Sentence: templateSentence(form, t),
		Verb:     t,
	})
}

// templateSentence renders a short practice sentence for the triple.
// When the form column ends in a known person suffix the matching subject
// pronoun is prepended.
func templateSentence(form string, t store.FormTriple) string {
	parts := strings.Split(form, "_")
	suffix := strings.ToLower(parts[len(parts)-1])
	if p, ok := pronouns[suffix]; ok {
		return fmt.Sprintf("%s %s. (%s)", p, t.FormValue, t.Translation)
	}
	return fmt.Sprintf("%s. (%s)", t.FormValue, t.Translation)
}

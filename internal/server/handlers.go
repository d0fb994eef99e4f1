package server

import (
	"net/http"

	"github.com/matzehuels/semiframes/pkg/buildinfo"
	"github.com/matzehuels/semiframes/pkg/canon"
	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/family"
	"github.com/matzehuels/semiframes/pkg/formula"
	"github.com/matzehuels/semiframes/pkg/search"
	"github.com/matzehuels/semiframes/pkg/sink"
)

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// =============================================================================
// Canonicalize
// =============================================================================

// CanonicalizeRequest names a family in the text notation, e.g.
// "{{}, {1}, {1, 2}}". N = 0 infers the ground set.
type CanonicalizeRequest struct {
	Family string `json:"family"`
	N      int    `json:"n,omitempty"`
}

type CanonicalizeResponse struct {
	N             int    `json:"n"`
	Input         string `json:"input"`
	Canonical     string `json:"canonical"`
	Parent        string `json:"parent,omitempty"` // canonical form minus its deleted member
	Members       int    `json:"members"`
	UnionClosed   bool   `json:"union_closed"`
	HasTop        bool   `json:"has_top"`
	Distinguished bool   `json:"distinguished"`
}

func (s *Server) handleCanonicalize(w http.ResponseWriter, r *http.Request) {
	var req CanonicalizeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	f, n, err := parseFamily(req.Family, req.N)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cz := canon.New(0)
	canonical := cz.Canonicalize(f, n)
	resp := CanonicalizeResponse{
		N:             n,
		Input:         f.Render(n),
		Canonical:     canonical.Render(n),
		Members:       f.Len(),
		UnionClosed:   f.IsUnionClosed(),
		HasTop:        f.Contains(family.Universe(n)),
		Distinguished: f.Distinguished(n),
	}
	if stripped := withoutEmpty(canonical); stripped.Len() > 1 {
		resp.Parent = cz.CanonicalDelete(stripped, n).Render(n)
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Check
// =============================================================================

type CheckRequest struct {
	Formula string `json:"formula"`
	Family  string `json:"family"`
	N       int    `json:"n,omitempty"`
}

type CheckResponse struct {
	Formula   string            `json:"formula"`
	Family    string            `json:"family"` // completed with the empty set
	Satisfied bool              `json:"satisfied"`
	Witnesses map[string]string `json:"witnesses,omitempty"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	phi, err := formula.Parse(req.Formula)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, n, err := parseFamily(req.Family, req.N)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	f = f.Complete()
	res := formula.NewChecker(n, f).Check(phi)
	resp := CheckResponse{
		Formula:   phi.String(),
		Family:    f.Render(n),
		Satisfied: res.Satisfied,
	}
	if len(res.Witnesses) > 0 {
		resp.Witnesses = make(map[string]string, len(res.Witnesses))
		for v, wit := range res.Witnesses {
			resp.Witnesses[v] = wit.Format(n)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Search
// =============================================================================

// SearchRequest runs one bounded search. Limit is mandatory so a request
// cannot enumerate an unbounded number of families.
type SearchRequest struct {
	N          int    `json:"n"`
	Limit      int    `json:"limit"`
	Semiframes bool   `json:"semiframes,omitempty"`
	Formula    string `json:"formula,omitempty"`
	Start      string `json:"start,omitempty"`
}

type SearchResponse struct {
	*search.Result
	DurationMS int64    `json:"duration_ms"`
	Families   []string `json:"families"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.searchOptions(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := sink.Collect()
	res, err := s.runner.Run(r.Context(), req.N, opts, sink.Instrument("api", out))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := SearchResponse{
		Result:     res,
		DurationMS: res.Duration.Milliseconds(),
		Families:   make([]string, 0, out.Len()),
	}
	for _, f := range out.Families() {
		resp.Families = append(resp.Families, f.Render(req.N))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) searchOptions(req SearchRequest) (search.Options, error) {
	if req.Limit <= 0 {
		return search.Options{}, errors.New(errors.ErrCodeInvalidInput, "limit is required and must be positive")
	}
	if req.Limit > s.cfg.MaxLimit {
		return search.Options{}, errors.New(errors.ErrCodeInvalidRange, "limit %d exceeds the maximum of %d", req.Limit, s.cfg.MaxLimit)
	}
	if req.N < 0 || req.N > family.MaxSize {
		return search.Options{}, errors.New(errors.ErrCodeInvalidRange, "n=%d is outside [0, %d]", req.N, family.MaxSize)
	}

	opts := s.search
	opts.Limit = req.Limit
	opts.Semiframes = req.Semiframes
	if req.Formula != "" {
		phi, err := formula.Parse(req.Formula)
		if err != nil {
			return search.Options{}, err
		}
		opts.Predicate = formula.NewPredicate(phi)
	}
	if req.Start != "" {
		start, err := family.Parse(req.Start, req.N)
		if err != nil {
			return search.Options{}, err
		}
		opts.Start = start
	}
	return opts, opts.ValidateAndSetDefaults(req.N)
}

// =============================================================================
// Helpers
// =============================================================================

func parseFamily(text string, n int) (family.Family, int, error) {
	if n != 0 {
		f, err := family.Parse(text, n)
		return f, n, err
	}
	f, err := family.Parse(text, family.MaxSize)
	if err != nil {
		return nil, 0, err
	}
	return f, family.InferSize(f), nil
}

func withoutEmpty(f family.Family) family.Family {
	if f.Len() > 0 && f[0] == 0 {
		return f[1:]
	}
	return f
}

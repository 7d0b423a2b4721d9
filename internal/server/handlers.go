package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/geonodes/pkg/buildinfo"
	"github.com/matzehuels/geonodes/pkg/descriptor"
	errs "github.com/matzehuels/geonodes/pkg/errors"
	"github.com/matzehuels/geonodes/pkg/graph"
	"github.com/matzehuels/geonodes/pkg/pipeline"
	"github.com/matzehuels/geonodes/pkg/presets"
)

var contentTypes = map[string]string{
	graph.FormatJSON: "application/json",
	graph.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	graph.FormatSVG:  "image/svg+xml",
}

// =============================================================================
// Health and Presets
// =============================================================================

type healthResponse struct {
	Status       string         `json:"status"`
	Build        buildinfo.Info `json:"build"`
	CatalogNodes int            `json:"catalog_nodes"`
	CatalogHash  string         `json:"catalog_hash"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		Build:        buildinfo.Get(),
		CatalogNodes: s.runner.Catalog.Len(),
		CatalogHash:  s.runner.Catalog.Hash(),
	})
}

type presetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	var out []presetInfo
	for _, name := range presets.Names() {
		out = append(out, presetInfo{Name: name, Description: presets.Describe(name)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, err := presets.ParseTarget(q.Get("target"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := presets.Build(chi.URLParam(r, "name"), target, q.Get("attribute"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := descriptor.Write(d, w); err != nil {
		s.logger.Error("write preset", "err", err)
	}
}

// =============================================================================
// Validation
// =============================================================================

type validateResponse struct {
	Valid   bool      `json:"valid"`
	Nodes   int       `json:"nodes,omitempty"`
	Links   int       `json:"links,omitempty"`
	Code    errs.Code `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	Index   *int      `json:"index,omitempty"`
}

// handleValidate answers 200 for both outcomes; only unreadable requests
// are errors.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	strict, err := s.strictParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	d, err := descriptor.DecodeWith(data, descriptor.DecodeOptions{Strict: strict})
	if err != nil {
		body := newErrorBody(err)
		writeJSON(w, http.StatusOK, validateResponse{
			Code:    body.Code,
			Message: body.Message,
			Reason:  body.Reason,
			Index:   body.Index,
		})
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: true, Nodes: len(d.Nodes), Links: len(d.Links)})
}

// =============================================================================
// Materialize and Render
// =============================================================================

func (s *Server) handleMaterialize(w http.ResponseWriter, r *http.Request) {
	opts, err := s.pipelineOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	d, err := s.runner.Load(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.runner.Apply(r.Context(), d, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.pipelineOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = graph.FormatSVG
	}
	opts.Formats = []string{format}
	if opts.Detailed, err = boolParam(q.Get("detailed"), false); err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// One format was requested, so there is exactly one artifact.
	for f := range out.Artifacts {
		format = f
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Run-ID", out.RunID)
	w.Header().Set("X-Diagnostics", strconv.Itoa(len(out.Result.Diagnostics)))
	if out.RenderHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Artifacts[format])
}

// pipelineOptions selects the descriptor source: ?preset= or the body.
func (s *Server) pipelineOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	strict, err := s.strictParam(r)
	if err != nil {
		return pipeline.Options{}, err
	}
	q := r.URL.Query()
	if name := q.Get("preset"); name != "" {
		return pipeline.Options{
			Preset:          name,
			Target:          q.Get("target"),
			CustomAttribute: q.Get("attribute"),
			Strict:          strict,
		}, nil
	}

	data, err := s.readBody(w, r)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{Data: data, Strict: strict}, nil
}

// =============================================================================
// Request Helpers
// =============================================================================

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errs.New(errs.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read request body")
	}
	if len(data) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "request body is empty")
	}
	return data, nil
}

func (s *Server) strictParam(r *http.Request) (bool, error) {
	return boolParam(r.URL.Query().Get("strict"), s.opts.Strict)
}

func boolParam(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errs.New(errs.ErrCodeInvalidInput, "not a boolean: %q", v)
	}
	return b, nil
}

package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/matzehuels/flat/pkg/buildinfo"
	"github.com/matzehuels/flat/pkg/chart"
	"github.com/matzehuels/flat/pkg/dataset"
	"github.com/matzehuels/flat/pkg/errors"
	pkgio "github.com/matzehuels/flat/pkg/io"
	"github.com/matzehuels/flat/pkg/nodelink"
	"github.com/matzehuels/flat/pkg/pipeline"
)

// Export formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// renderRequest is the body of render and export requests.
type renderRequest struct {
	Dataset json.RawMessage   `json:"dataset"`
	Roles   dataset.RoleNames `json:"roles"`
	Options chart.Options     `json:"options"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Info: buildinfo.Current()})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	kind, err := chart.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, d, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{
		Dataset: d,
		Kind:    kind,
		Roles:   req.Roles,
		Chart:   req.Options,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cacheStatus := "miss"
	if result.CacheInfo.ChartHit {
		cacheStatus = "hit"
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, result.Chart+"\n")
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if format != FormatDOT && format != FormatSVG {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "unknown export format %q (want dot or svg)", format))
		return
	}
	req, d, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := d.Resolve(req.Roles)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dot, err := nodelink.ToDOT(view, nodelink.Options{
		Aggregate: req.Options.Aggregate,
		Detailed:  req.Options.ShowAggregate,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format == FormatDOT {
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, dot)
		return
	}

	svg, err := nodelink.RenderSVG(r.Context(), dot)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// decode reads a render request and its inline dataset.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (renderRequest, *dataset.Dataset, error) {
	var req renderRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return req, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body")
	}
	if len(req.Dataset) == 0 {
		return req, nil, errors.New(errors.ErrCodeInvalidInput, "request has no dataset")
	}
	d, err := pkgio.ReadDatasetBytes(req.Dataset, pkgio.FormatJSON)
	if err != nil {
		return req, nil, err
	}
	return req, d, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, errorResponse{
		Error:     errors.UserMessage(err),
		Code:      string(errors.GetCode(err)),
		RequestID: RequestIDFromContext(r.Context()),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kilianp07/metroplan/auth"
	"github.com/kilianp07/metroplan/core/logger"
	"github.com/kilianp07/metroplan/core/model"
	coremon "github.com/kilianp07/metroplan/core/monitoring"
	"github.com/kilianp07/metroplan/infra/network"
	"github.com/kilianp07/metroplan/pkg/export"
)

// Planner runs one planning request.
type Planner interface {
	Plan(ctx context.Context, in model.PlanInput) (model.PlanOutput, error)
}

// NetworkRequest plans against the configured network catalog.
type NetworkRequest struct {
	Hours   []int `json:"hours"`
	Weekday int   `json:"weekday"`
	Weather int   `json:"weather"`
	Event   int   `json:"event"`
}

// Options tune the handler.
type Options struct {
	// Token enables bearer authentication on the plan endpoints.
	Token        string
	MaxBodyBytes int64
	Logger       logger.Logger
}

type handler struct {
	planner Planner
	source  network.Source
	maxBody int64
	log     logger.Logger
}

// NewHandler returns the HTTP API:
//
//	POST /api/plan          plan the request body
//	POST /api/plan/network  plan the network catalog for the given conditions
//	GET  /api/network       return the network catalog
//	GET  /healthz           liveness check
//
// Plan endpoints accept ?format=csv to export the schedule and demand.
func NewHandler(p Planner, src network.Source, opts Options) http.Handler {
	h := &handler{planner: p, source: src, maxBody: opts.MaxBodyBytes, log: logger.OrNop(opts.Logger)}
	if h.maxBody <= 0 {
		h.maxBody = 1 << 20
	}
	mux := http.NewServeMux()
	mux.Handle("POST /api/plan", auth.RequireBearer(opts.Token, http.HandlerFunc(h.plan)))
	mux.Handle("POST /api/plan/network", auth.RequireBearer(opts.Token, http.HandlerFunc(h.planNetwork)))
	mux.Handle("GET /api/network", auth.RequireBearer(opts.Token, http.HandlerFunc(h.network)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

func (h *handler) plan(w http.ResponseWriter, r *http.Request) {
	format, err := formatOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var in model.PlanInput
	if err := h.decode(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.run(w, r, format, in)
}

func (h *handler) planNetwork(w http.ResponseWriter, r *http.Request) {
	format, err := formatOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if h.source == nil {
		writeError(w, http.StatusNotFound, errors.New("no network catalog configured"))
		return
	}
	var req NetworkRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	n, err := h.source.Network(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	in := n.Input(req.Hours, model.Conditions{Weekday: req.Weekday, Weather: req.Weather, Event: req.Event})
	h.run(w, r, format, in)
}

func (h *handler) run(w http.ResponseWriter, r *http.Request, format export.Format, in model.PlanInput) {
	out, err := h.planner.Plan(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	if format == export.FormatCSV {
		w.Header().Set("Content-Type", "text/csv")
		if err := export.Write(w, format, in, out); err != nil {
			h.log.Errorf("csv export: %v", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) network(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeError(w, http.StatusNotFound, errors.New("no network catalog configured"))
		return
	}
	n, err := h.source.Network(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidConfiguration):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		h.log.Errorf("plan request failed: %v", err)
		coremon.ReportUnexpected(err, map[string]string{"module": "api"})
		writeError(w, http.StatusInternalServerError, err)
	}
}

func formatOf(r *http.Request) (export.Format, error) {
	f := r.URL.Query().Get("format")
	if f == "" {
		if strings.Contains(r.Header.Get("Accept"), "text/csv") {
			return export.FormatCSV, nil
		}
		return export.FormatJSON, nil
	}
	return export.ParseFormat(f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

package api

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/engine/aggregator"
	"FlowTagger/internal/logger"
	"FlowTagger/internal/model"
	"FlowTagger/internal/pipeline"
	"FlowTagger/internal/report"
	"FlowTagger/internal/sanitize"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

var log = logger.MustGetLogger("api")

// ClassifyResponse is the JSON body returned by the classify endpoint.
type ClassifyResponse struct {
	Records            uint64                     `json:"records"`
	TagCounts          []report.TagCount          `json:"tag_counts"`
	PortProtocolCounts []report.PortProtocolCount `json:"port_protocol_counts"`
}

// TablesResponse describes the tables the server classifies against.
type TablesResponse struct {
	ProtocolSource  string `json:"protocol_source"`
	ProtocolEntries int    `json:"protocol_entries"`
	LookupSource    string `json:"lookup_source"`
	LookupEntries   int    `json:"lookup_entries"`
}

// Handler serves classification requests. Each request is an independent
// batch run against the shared, read-only tables.
type Handler struct {
	tables       *pipeline.Tables
	sanitizeMode string
	maxBodyBytes int64
}

// NewHandler creates a handler for tables.
func NewHandler(tables *pipeline.Tables, cfg *config.Config) *Handler {
	return &Handler{
		tables:       tables,
		sanitizeMode: cfg.Sanitize,
		maxBodyBytes: cfg.API.MaxBodyBytes,
	}
}

// NewRouter registers the API routes.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/classify", h.classifyHandler).Methods("POST")
	r.HandleFunc("/api/v1/tables", h.tablesHandler).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok\n")
	}).Methods("GET")
	return r
}

// classifyHandler counts the flow log in the request body. With
// ?format=csv the response is one report as CSV, chosen by ?report=tags
// (default) or ?report=ports.
func (h *Handler) classifyHandler(w http.ResponseWriter, r *http.Request) {
	var body io.Reader = r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	// An oversized body is rejected before any of it is counted.
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var in io.Reader = bytes.NewReader(data)
	if h.sanitizeMode != config.SanitizeOff {
		in = sanitize.NewReader(in)
	}

	result, err := aggregator.Process(in, "request body", h.tables.Protocols, h.tables.Lookup)
	if err != nil {
		if errors.Is(err, model.ErrMalformedRecord) {
			writeError(w, http.StatusBadRequest, err)
		} else {
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		var t report.Table
		switch r.URL.Query().Get("report") {
		case "", "tags":
			t = report.TagTable(result.TagCounts, report.TagHeaders)
		case "ports":
			t = report.PortProtocolTable(result.PortProtocolCounts, report.PortProtocolHeaders)
		default:
			http.Error(w, "report must be 'tags' or 'ports'", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		if err := report.Render(w, t); err != nil {
			log.Errorf("Failed to write CSV response: %v", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, ClassifyResponse{
		Records:            result.Records,
		TagCounts:          report.SortedTagCounts(result.TagCounts),
		PortProtocolCounts: report.SortedPortProtocolCounts(result.PortProtocolCounts),
	})
}

func (h *Handler) tablesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TablesResponse{
		ProtocolSource:  h.tables.Protocols.Source(),
		ProtocolEntries: h.tables.Protocols.Len(),
		LookupSource:    h.tables.Lookup.Source(),
		LookupEntries:   h.tables.Lookup.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	log.Warningf("Classify request failed: %v", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/segmend/rfm/internal/contracts"
	"github.com/segmend/rfm/internal/ingest"
	"github.com/segmend/rfm/internal/pipeline"
	"github.com/segmend/rfm/pkg/logger"
	"github.com/segmend/rfm/pkg/redis"
)

// reportCacheKey is where the latest computed report lives in the cache
const reportCacheKey = "report:latest"

// RFMHandler handles segmentation API endpoints
type RFMHandler struct {
	repo     *ingest.Repository // nil when no database is configured
	loader   *ingest.CSVLoader
	pipeline *pipeline.Pipeline
	cache    *redis.Cache
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewRFMHandler creates a new segmentation handler
func NewRFMHandler(
	repo *ingest.Repository,
	loader *ingest.CSVLoader,
	pipe *pipeline.Pipeline,
	cache *redis.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *RFMHandler {
	return &RFMHandler{
		repo:     repo,
		loader:   loader,
		pipeline: pipe,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

// AnalyzeRequest describes one segmentation run
type AnalyzeRequest struct {
	Source string `json:"source"`          // "csv" or "db"
	Path   string `json:"path,omitempty"`  // csv: file path on the server
	From   string `json:"from,omitempty"`  // db: window start (2006-01-02)
	To     string `json:"to,omitempty"`    // db: window end, exclusive
	AsOf   string `json:"as_of,omitempty"` // reference instant; default: now (UTC)
}

// Analyze runs the segmentation pipeline and returns the report.
// POST /api/rfm/analyze
func (h *RFMHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	asOf, err := parseAsOf(req.AsOf)
	if err != nil {
		respondError(w, http.StatusBadRequest, "as_of must be 2006-01-02 or RFC3339")
		return
	}

	var rows []contracts.Transaction
	switch req.Source {
	case "csv":
		if req.Path == "" {
			respondError(w, http.StatusBadRequest, "path is required for source csv")
			return
		}
		rows, err = h.loader.LoadFile(req.Path)
	case "db":
		if h.repo == nil {
			respondError(w, http.StatusBadRequest, "no database configured")
			return
		}
		var from, to time.Time
		if from, to, err = parseWindow(req.From, req.To); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rows, err = h.repo.ListTransactions(ctx, from, to)
	default:
		respondError(w, http.StatusBadRequest, "source must be csv or db")
		return
	}
	if err != nil {
		h.respondRunError(w, err)
		return
	}

	result, err := h.pipeline.Run(rows, asOf)
	if err != nil {
		h.respondRunError(w, err)
		return
	}

	if err := h.cache.Set(ctx, reportCacheKey, result.Report, h.cacheTTL); err != nil {
		// Cache trouble must not fail the run; the report is still returned
		h.logger.WithError(err).Warn("Failed to cache report")
	}

	respondJSON(w, http.StatusOK, result.Report)
}

// GetReport returns the most recently computed report from the cache.
// GET /api/rfm/report
func (h *RFMHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	var report contracts.Report
	found, err := h.cache.Get(r.Context(), reportCacheKey, &report)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read cached report")
		respondError(w, http.StatusInternalServerError, "failed to read cached report")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "no report computed yet")
		return
	}

	respondJSON(w, http.StatusOK, &report)
}

// respondRunError maps pipeline failures: data-quality problems are the
// client's data (422), anything else is ours (500).
func (h *RFMHandler) respondRunError(w http.ResponseWriter, err error) {
	h.logger.WithError(err).Error("Segmentation run failed")

	if contracts.IsDataQuality(err) {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "segmentation run failed")
}

func parseAsOf(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func parseWindow(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if from != "" {
		if start, err = time.Parse("2006-01-02", from); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if to != "" {
		if end, err = time.Parse("2006-01-02", to); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

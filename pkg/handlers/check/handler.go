package check

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/de-tools/tally/pkg/models/api"
	"github.com/de-tools/tally/pkg/models/domain"
	"github.com/de-tools/tally/pkg/models/store"
	"github.com/de-tools/tally/pkg/services/loader"
	"github.com/de-tools/tally/pkg/services/recon"
	"github.com/de-tools/tally/pkg/services/rules"
	"github.com/de-tools/tally/pkg/store/duckdb/run"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultRunsLimit = 50

type Handler struct {
	runs     run.Store // optional; nil disables run history
	settings recon.Settings
}

func NewHandler(runs run.Store, settings recon.Settings) *Handler {
	return &Handler{
		runs:     runs,
		settings: settings,
	}
}

// CheckTable evaluates the submitted table against the submitted rules and
// returns the report. When a run store is configured the run is also
// persisted, but a storage failure never fails the check itself.
func (h *Handler) CheckTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if len(req.Rules) == 0 {
		writeError(w, http.StatusBadRequest, "at least one rule is required")
		return
	}

	relationships, err := rules.Convert(req.Rules)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := loader.ToTable(req.Columns, req.Rows)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings := h.settings
	if req.Tolerance != nil {
		settings.Tolerance = *req.Tolerance
	}
	if req.YellowBand != nil {
		settings.YellowBandFactor = *req.YellowBand
	}

	report, err := recon.Evaluate(table, relationships, settings)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrEmptyTable) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}

	if h.runs != nil {
		if err := h.recordRun(r, report); err != nil {
			logger.Error().
				Err(err).
				Msg("failed to persist run")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(api.ReportFromDomain(report)); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode report")
	}
}

func (h *Handler) recordRun(r *http.Request, report domain.Report) error {
	runRecord := store.Run{
		ID:           uuid.NewString(),
		Source:       "api",
		Overall:      report.Overall.String(),
		StartedAt:    time.Now().UTC(),
		FindingCount: len(report.Findings),
	}

	findings := make([]store.Finding, 0, len(report.Findings))
	for _, f := range report.Findings {
		findings = append(findings, store.Finding{
			RunID:          runRecord.ID,
			Relationship:   f.RelationshipID,
			RowIndex:       f.RowIndex,
			Computed:       f.Computed,
			Stated:         f.Stated,
			Diff:           f.Diff,
			Classification: f.Classification.String(),
			Note:           f.Note,
		})
	}
	return h.runs.RecordRun(r.Context(), runRecord, findings)
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if h.runs == nil {
		writeError(w, http.StatusNotFound, "run history is not configured")
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.runs.ListRuns(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list runs")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	response := make([]api.Run, 0, len(runs))
	for _, rec := range runs {
		response = append(response, api.Run{
			ID:           rec.ID,
			Source:       rec.Source,
			Overall:      rec.Overall,
			StartedAt:    rec.StartedAt,
			FindingCount: rec.FindingCount,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode runs")
	}
}

func (h *Handler) GetRunFindings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if h.runs == nil {
		writeError(w, http.StatusNotFound, "run history is not configured")
		return
	}

	runID := chi.URLParam(r, "run")
	findings, err := h.runs.GetFindings(ctx, runID)
	if err != nil {
		logger.Error().
			Err(err).
			Str("run", runID).
			Msg("failed to load findings")
		writeError(w, http.StatusInternalServerError, "failed to load findings")
		return
	}

	response := make([]api.Finding, 0, len(findings))
	for _, f := range findings {
		response = append(response, api.Finding{
			RelationshipID: f.Relationship,
			RowIndex:       f.RowIndex,
			Computed:       f.Computed,
			Stated:         f.Stated,
			Diff:           f.Diff,
			Classification: f.Classification,
			Note:           f.Note,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().
			Err(err).
			Str("run", runID).
			Msg("failed to encode findings")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mtlprog/finreport/internal/domain"
	"github.com/mtlprog/finreport/internal/report"
)

// maxBodyBytes bounds request bodies; a long series is still far below it.
const maxBodyBytes = 8 << 20

// Handler provides HTTP endpoints for the report API.
type Handler struct {
	reports *report.Service
}

// NewHandler creates a new API handler.
func NewHandler(reports *report.Service) *Handler {
	return &Handler{reports: reports}
}

// PushReport handles POST /api/v1/reports.
func (h *Handler) PushReport(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if !decodeBody(w, r, &raw) {
		return
	}
	var sr domain.StockReport
	if !unmarshalBody(w, raw, &sr) {
		return
	}
	var items struct {
		Data []json.RawMessage `json:"data"`
	}
	if !unmarshalBody(w, raw, &items) || !requireBaseFields(w, items.Data, dataIndex) {
		return
	}

	derived, err := h.reports.Push(r.Context(), sr)
	if err != nil {
		writeServiceError(w, err, "failed to push report", "ticker", sr.Ticker)
		return
	}
	writeJSON(w, http.StatusCreated, derived)
}

// ListReports handles GET /api/v1/reports.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	series, err := h.reports.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to list reports")
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// GetReport handles GET /api/v1/reports/{ticker}.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ticker, ok := pathTicker(w, r)
	if !ok {
		return
	}

	sr, err := h.reports.Get(r.Context(), ticker)
	if err != nil {
		writeServiceError(w, err, "failed to get report", "ticker", ticker)
		return
	}
	writeJSON(w, http.StatusOK, sr)
}

// AppendReport handles POST /api/v1/reports/{ticker}/reports.
func (h *Handler) AppendReport(w http.ResponseWriter, r *http.Request) {
	ticker, ok := pathTicker(w, r)
	if !ok {
		return
	}

	var raw json.RawMessage
	if !decodeBody(w, r, &raw) {
		return
	}
	var rep domain.Report
	if !unmarshalBody(w, raw, &rep) || !requireBaseFields(w, []json.RawMessage{raw}, nil) {
		return
	}

	derived, err := h.reports.Append(r.Context(), ticker, rep)
	if err != nil {
		writeServiceError(w, err, "failed to append report", "ticker", ticker)
		return
	}
	writeJSON(w, http.StatusCreated, derived)
}

// RederiveReport handles POST /api/v1/reports/{ticker}/rederive.
func (h *Handler) RederiveReport(w http.ResponseWriter, r *http.Request) {
	ticker, ok := pathTicker(w, r)
	if !ok {
		return
	}

	sr, err := h.reports.Rederive(r.Context(), ticker)
	if err != nil {
		writeServiceError(w, err, "failed to rederive report", "ticker", ticker)
		return
	}
	writeJSON(w, http.StatusOK, sr)
}

// DeleteReport handles DELETE /api/v1/reports/{ticker}.
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	ticker, ok := pathTicker(w, r)
	if !ok {
		return
	}

	if err := h.reports.Delete(r.Context(), ticker); err != nil {
		writeServiceError(w, err, "failed to delete report", "ticker", ticker)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathTicker(w http.ResponseWriter, r *http.Request) (string, bool) {
	ticker, err := report.NormalizeTicker(r.PathValue("ticker"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return ticker, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func unmarshalBody(w http.ResponseWriter, raw json.RawMessage, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func dataIndex(i int) string {
	return fmt.Sprintf("data[%d].", i)
}

// requireBaseFields answers 400 naming every base field the reports leave out. A non-nil
// label prefixes each missing field with the position of its report.
func requireBaseFields(w http.ResponseWriter, reports []json.RawMessage, label func(i int) string) bool {
	var missing []string
	for i, raw := range reports {
		keys, err := domain.MissingBaseFields(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return false
		}
		var prefix string
		if label != nil {
			prefix = label(i)
		}
		for _, key := range keys {
			missing = append(missing, prefix+key)
		}
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "missing base fields: "+strings.Join(missing, ", "))
		return false
	}
	return true
}

// writeServiceError maps service errors to HTTP statuses; unexpected ones are logged with args.
func writeServiceError(w http.ResponseWriter, err error, msg string, args ...any) {
	switch {
	case errors.Is(err, report.ErrNotFound):
		writeError(w, http.StatusNotFound, "report not found")
	case errors.Is(err, report.ErrInvalidTicker):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error(msg, append(args, "error", err)...)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/user/alt-audit-service/internal/delivery/http/request"
	"github.com/user/alt-audit-service/internal/delivery/http/response"
	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/progress"
	"github.com/user/alt-audit-service/internal/report"
	"github.com/user/alt-audit-service/internal/repository"
	"github.com/user/alt-audit-service/internal/usecase"
)

const (
	maxBodyBytes = 1 << 20
	writeWait    = 10 * time.Second
)

// ScanService is the part of usecase.ScanManager the handlers need.
type ScanService interface {
	Submit(ctx context.Context, urls []string, opts usecase.SubmitOptions) (*entity.Scan, error)
	Get(ctx context.Context, scanID string) (*entity.Scan, error)
	Export(ctx context.Context, scanID string) error
	ExportEnabled() bool
	Hub() *progress.Hub
}

type Handler struct {
	scans    ScanService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(scans ScanService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		scans:  scans,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) HandleSubmitScan(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitScanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	urls, rejected := req.Normalize()
	if len(urls) == 0 {
		h.writeJSON(w, http.StatusBadRequest, response.ErrorResponse{
			Error:    "No valid URLs provided",
			Rejected: rejected,
		})
		return
	}

	scan, err := h.scans.Submit(r.Context(), urls, usecase.SubmitOptions{Demo: req.Demo})
	if err != nil {
		h.logger.Error("Failed to submit scan", zap.Int("urls", len(urls)), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := response.SubmitScanResponse{
		Status:   "success",
		Message:  "Scan started",
		ScanID:   scan.ID,
		Accepted: len(scan.Pages),
		Dropped:  scan.Dropped,
		Rejected: rejected,
	}
	if scan.Dropped > 0 {
		resp.Message = "Scan started; the URL list was truncated"
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) HandleGetScan(w http.ResponseWriter, r *http.Request) {
	scan, ok := h.loadScan(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, response.NewScanResponse(scan))
}

func (h *Handler) HandleListImages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, err := report.ParseStatusFilter(q.Get("status"))
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		h.writeJSONError(w, "Invalid page parameter", http.StatusBadRequest)
		return
	}
	pageSize, err := intParam(q.Get("page_size"), report.DefaultPageSize)
	if err != nil || pageSize > 500 {
		h.writeJSONError(w, "Invalid page_size parameter", http.StatusBadRequest)
		return
	}
	dedupe, _ := strconv.ParseBool(q.Get("dedupe"))

	scan, ok := h.loadScan(w, r)
	if !ok {
		return
	}

	view := report.Apply(report.Flatten(scan.Pages), report.Query{
		Search:   q.Get("q"),
		Status:   status,
		Page:     page,
		PageSize: pageSize,
		Dedupe:   dedupe,
	})
	h.writeJSON(w, http.StatusOK, response.ImagesResponse{
		ScanID: scan.ID,
		Status: string(status),
		Search: q.Get("q"),
		View:   view,
	})
}

func (h *Handler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	status, err := report.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	scan, ok := h.loadScan(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName(status, time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	if err := report.WriteCSV(w, report.Flatten(scan.Pages), status); err != nil {
		h.logger.Error("Failed to write CSV export", zap.String("scan_id", scan.ID), zap.Error(err))
	}
}

func (h *Handler) HandleExportDB(w http.ResponseWriter, r *http.Request) {
	if !h.scans.ExportEnabled() {
		h.writeJSONError(w, usecase.ErrExportDisabled.Error(), http.StatusServiceUnavailable)
		return
	}

	scanID := chi.URLParam(r, "id")
	err := h.scans.Export(r.Context(), scanID)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "exported", "scan_id": scanID})
	case errors.Is(err, repository.ErrScanNotFound):
		h.writeJSONError(w, "Scan not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrScanRunning):
		h.writeJSONError(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("Failed to export scan", zap.String("scan_id", scanID), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// HandleStream sends the current scan snapshot over a websocket and then
// every progress event of the scan until it finishes or the client leaves.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "id")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// Subscribe before reading the snapshot so no event falls in between.
	events := h.scans.Hub().Stream(ctx, scanID)

	scan, ok := h.loadScan(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade websocket", zap.String("scan_id", scanID), zap.Error(err))
		return
	}
	defer conn.Close()

	// Reading detects a closed client.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snapshot := response.NewScanResponse(scan)
	if err := h.writeFrame(conn, response.StreamMessage{Type: "snapshot", Scan: &snapshot}); err != nil {
		return
	}
	if scan.State != entity.ScanRunning {
		h.closeStream(conn)
		return
	}

	for e := range events {
		if err := h.writeFrame(conn, response.StreamMessage{Type: "event", Event: &e}); err != nil {
			return
		}
	}
	h.closeStream(conn)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) loadScan(w http.ResponseWriter, r *http.Request) (*entity.Scan, bool) {
	scanID := chi.URLParam(r, "id")
	scan, err := h.scans.Get(r.Context(), scanID)
	if errors.Is(err, repository.ErrScanNotFound) {
		h.writeJSONError(w, "Scan not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		h.logger.Error("Failed to load scan", zap.String("scan_id", scanID), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	return scan, true
}

func (h *Handler) writeFrame(conn *websocket.Conn, msg response.StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("Websocket write failed", zap.Error(err))
		return err
	}
	return nil
}

func (h *Handler) closeStream(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "scan finished")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("must be a positive integer")
	}
	return n, nil
}

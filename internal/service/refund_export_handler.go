package service

import (
	"fmt"
	"marketplace_refunds/internal/logic"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// RefundExportHandler handles the HTTP request for exporting a month of the ledger.
type RefundExportHandler struct {
	refundLogic logic.RefundLogic
	logger      *zap.Logger
}

// NewRefundExportHandler creates a new instance of RefundExportHandler.
func NewRefundExportHandler(rl logic.RefundLogic, logger *zap.Logger) *RefundExportHandler {
	return &RefundExportHandler{refundLogic: rl, logger: logger.Named("RefundExportHandler")}
}

// ServeHTTP implements the http.Handler interface.
func (h *RefundExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	yearStr := r.URL.Query().Get("year")
	monthStr := r.URL.Query().Get("month")

	if yearStr == "" || monthStr == "" {
		WriteHttpError(w, http.StatusBadRequest, "Missing required parameters: year, month")
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		WriteHttpError(w, http.StatusBadRequest, "Invalid year format")
		return
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		WriteHttpError(w, http.StatusBadRequest, "Invalid month format")
		return
	}

	filename, csvData, err := h.refundLogic.ExportRefundsByMonth(r.Context(), year, month)
	if err != nil {
		h.logger.Error("failed to export refunds", zap.Error(err), zap.Int("year", year), zap.Int("month", month))
		WriteHttpError(w, http.StatusInternalServerError, "Failed to generate export")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(csvData); err != nil {
		h.logger.Warn("failed to write csv data to response", zap.Error(err))
	}
}

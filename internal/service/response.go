package service

import (
	"encoding/json"
	"errors"
	"marketplace_refunds/internal/dto"
	"marketplace_refunds/internal/helper"
	"marketplace_refunds/internal/logic"
	"net/http"

	"go.uber.org/zap"
)

// WriteHttpError writes a standard JSON error response to the http.ResponseWriter.
func WriteHttpError(w http.ResponseWriter, httpCode int, message string) {
	WriteJSON(w, httpCode, dto.ErrorResponse{Error: message})
}

// WriteJSON writes v as the JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, httpCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	json.NewEncoder(w).Encode(v)
}

// writeLogicError maps engine errors to the HTTP status and body the console expects.
func writeLogicError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		exceeds  *logic.ExceedsAvailableError
		rejected *logic.GatewayRejectedError
		persist  *logic.PersistenceError
	)
	switch {
	case errors.As(err, &exceeds):
		available := helper.AmountJSONNumber(exceeds.Available)
		WriteJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:           logic.ErrExceedsAvailable.Error(),
			AvailableAmount: &available,
		})
	case errors.As(err, &rejected):
		details := map[string]interface{}{
			"kind": rejected.Err.Kind,
		}
		if rejected.Refund != nil {
			details["refundId"] = rejected.Refund.ID.Hex()
		}
		WriteJSON(w, rejected.Err.Kind.HTTPStatus(), dto.ErrorResponse{
			Error:   rejected.Message(),
			Details: details,
		})
	case errors.As(err, &persist):
		logger.Error("refund applied at provider but not recorded", zap.Error(err))
		WriteJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			Error: logic.ErrNotRecorded.Error(),
			Details: map[string]interface{}{
				"externalRefundId": persist.ExternalRefundID,
				"idempotencyKey":   persist.IdempotencyKey,
				"amount":           helper.AmountJSONNumber(persist.Amount),
			},
		})
	case errors.Is(err, logic.ErrInvalidRequest),
		errors.Is(err, logic.ErrInvalidAmount),
		errors.Is(err, logic.ErrInvalidItems),
		errors.Is(err, logic.ErrPaymentMismatch):
		WriteHttpError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, logic.ErrOrderNotFound), errors.Is(err, logic.ErrRefundNotFound):
		WriteHttpError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, logic.ErrItemAlreadyRefunded), errors.Is(err, logic.ErrPaymentBusy):
		WriteHttpError(w, http.StatusConflict, err.Error())
	case errors.Is(err, logic.ErrPermissionDenied):
		WriteHttpError(w, http.StatusForbidden, err.Error())
	default:
		logger.Error("unexpected refund error", zap.Error(err))
		WriteHttpError(w, http.StatusInternalServerError, "Internal server error")
	}
}

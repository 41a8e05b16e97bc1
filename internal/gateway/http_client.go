package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"marketplace_refunds/internal/helper"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

type refundPayload struct {
	Amount *json.Number `json:"amount,omitempty"`
}

type refundResponse struct {
	ID     string      `json:"id"`
	Amount json.Number `json:"amount"`
	Status string      `json:"status"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Cause   []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"cause"`
}

// HTTPClient talks to the reference provider over its REST API.
type HTTPClient struct {
	store  *CredentialStore
	http   *http.Client
	logger *zap.Logger
}

func NewHTTPClient(store *CredentialStore, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		store:  store,
		http:   &http.Client{},
		logger: logger.Named("HTTPGateway"),
	}
}

func (c *HTTPClient) Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	cfg, err := c.store.Current()
	if err != nil {
		return nil, &Error{Kind: KindInvalidCredentials, Raw: err.Error(), Err: err}
	}

	payload := refundPayload{}
	if req.Amount != nil {
		amount := helper.AmountJSONNumber(*req.Amount)
		payload.Amount = &amount
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Raw: err.Error(), Err: err}
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/v1/payments/" + url.PathEscape(req.PaymentID) + "/refunds"

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Raw: err.Error(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.AccessToken)
	httpReq.Header.Set("X-Idempotency-Key", req.IdempotencyKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("refund call failed", zap.Error(err), zap.String("paymentID", req.PaymentID))
		return nil, &Error{Kind: KindUnknown, Raw: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Kind: KindUnknown, StatusCode: resp.StatusCode, Raw: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := classifyHTTPError(resp.StatusCode, raw)
		c.logger.Info("refund rejected by provider",
			zap.String("paymentID", req.PaymentID),
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(gwErr.Kind)))
		return nil, gwErr
	}

	var parsed refundResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &Error{Kind: KindUnknown, StatusCode: resp.StatusCode, Raw: string(raw), Err: fmt.Errorf("decode refund response: %w", err)}
	}
	return parseRefundResponse(&parsed, raw)
}

func parseRefundResponse(parsed *refundResponse, raw []byte) (*RefundResult, error) {
	status, err := normalizeStatus(parsed.Status)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Raw: string(raw), Err: err}
	}

	res := &RefundResult{
		ExternalRefundID: parsed.ID,
		Amount:           helper.ZeroDecimal128(),
		Status:           status,
	}
	if parsed.Amount != "" {
		amount, err := helper.ParseAmount(parsed.Amount.String())
		if err != nil {
			return nil, &Error{Kind: KindUnknown, Raw: string(raw), Err: err}
		}
		res.Amount = amount
	}
	return res, nil
}

func normalizeStatus(s string) (Status, error) {
	switch strings.ToLower(s) {
	case "", "approved", "succeeded", "success", "refunded", "accredited":
		return StatusSucceeded, nil
	case "pending", "in_process", "in_progress", "processing", "requires_action":
		return StatusPending, nil
	default:
		return "", fmt.Errorf("provider returned refund status %q", s)
	}
}

func classifyHTTPError(statusCode int, raw []byte) *Error {
	e := &Error{Kind: KindUnknown, StatusCode: statusCode, Raw: string(raw)}
	switch statusCode {
	case http.StatusUnauthorized:
		e.Kind = KindInvalidCredentials
	case http.StatusForbidden:
		e.Kind = KindPermissionDenied
	case http.StatusNotFound:
		e.Kind = KindPaymentNotFound
	case http.StatusBadRequest:
		e.Kind = classifyBadRequest(raw)
	}
	return e
}

func classifyBadRequest(raw []byte) Kind {
	var parsed errorResponse
	text := strings.ToLower(string(raw))
	if err := json.Unmarshal(raw, &parsed); err == nil {
		parts := []string{parsed.Message, parsed.Error}
		for _, c := range parsed.Cause {
			parts = append(parts, c.Code, c.Description)
		}
		text = strings.ToLower(strings.Join(parts, " "))
	}

	switch {
	case strings.Contains(text, "already refunded"), strings.Contains(text, "already_refunded"),
		strings.Contains(text, "already been refunded"):
		return KindAlreadyRefunded
	case strings.Contains(text, "insufficient"):
		return KindInsufficientGatewayBalance
	default:
		return KindUnknown
	}
}

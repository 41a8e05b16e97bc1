package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"marketplace_refunds/internal/dto"
	"marketplace_refunds/internal/helper"
	"marketplace_refunds/internal/logic"
	"marketplace_refunds/internal/models"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// IdempotencyKeyHeader lets a client retry POST /refunds without refunding twice.
const IdempotencyKeyHeader = "Idempotency-Key"

// RefundsHandler serves the refund endpoints of the back-office console.
type RefundsHandler struct {
	refundLogic logic.RefundLogic
	validate    *validator.Validate
	logger      *zap.Logger
}

func NewRefundsHandler(rl logic.RefundLogic, logger *zap.Logger) *RefundsHandler {
	return &RefundsHandler{
		refundLogic: rl,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.Named("RefundsHandler"),
	}
}

// CreateRefund handles POST /refunds.
func (h *RefundsHandler) CreateRefund(w http.ResponseWriter, r *http.Request) {
	operator, ok := OperatorFromContext(r.Context())
	if !ok {
		WriteHttpError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body dto.CreateRefundBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		WriteHttpError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		WriteHttpError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	var amount *primitive.Decimal128
	if body.Amount != nil {
		parsed, err := helper.ParseAmount(body.Amount.String())
		if err != nil {
			WriteHttpError(w, http.StatusBadRequest, "amount must be a number")
			return
		}
		amount = &parsed
	}

	req := dto.NewProcessRefundRequest(body.OrderID, body.PaymentID, amount, body.Reason, body.Items, operator).
		WithClientKey(strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)))

	res, err := h.refundLogic.ProcessRefund(r.Context(), req)
	if err != nil {
		writeLogicError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, dto.CreateRefundResponse{
		Success:          true,
		Refund:           dto.NewRefundView(res.Refund, res.Items),
		AllItemsRefunded: res.AllItemsRefunded,
		OrderStatus:      string(res.OrderStatus),
		Replayed:         res.Replayed,
	})
}

// ListRefunds handles GET /refunds.
func (h *RefundsHandler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.ListRefundsRequest{
		Status: q.Get("status"),
		Search: q.Get("search"),
	}
	var err error
	if req.Page, err = intParam(q.Get("page")); err != nil {
		WriteHttpError(w, http.StatusBadRequest, "Invalid page")
		return
	}
	if req.Limit, err = intParam(q.Get("limit")); err != nil {
		WriteHttpError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteHttpError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	res, err := h.refundLogic.ListRefunds(r.Context(), &req)
	if err != nil {
		writeLogicError(w, h.logger, err)
		return
	}

	refunds, _ := res.Page.Data.([]*models.Refund)
	resp := dto.ListRefundsResponse{
		Refunds: make([]*dto.RefundView, 0, len(refunds)),
		Pagination: dto.PaginationView{
			Page:       res.Page.Page,
			Limit:      res.Page.PageSize,
			Total:      res.Page.Total,
			TotalPages: res.Page.TotalPages,
		},
		Totals: make(map[string]dto.StatusTotalView, len(res.Totals)),
	}
	for _, refund := range refunds {
		resp.Refunds = append(resp.Refunds, dto.NewRefundView(refund, nil))
	}
	for _, t := range res.Totals {
		resp.Totals[t.Status] = dto.StatusTotalView{Count: t.Count, Amount: helper.AmountJSONNumber(t.Amount)}
	}
	WriteJSON(w, http.StatusOK, resp)
}

// GetRefund handles GET /refunds/{id}.
func (h *RefundsHandler) GetRefund(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		WriteHttpError(w, http.StatusBadRequest, "Invalid refund id")
		return
	}

	res, err := h.refundLogic.GetRefund(r.Context(), id)
	if err != nil {
		writeLogicError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, dto.NewRefundView(res.Refund, res.Items))
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	return fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
}

package logic

import (
	"context"
	"errors"
	"marketplace_refunds/internal/constants"
	"marketplace_refunds/internal/dao/fields"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/dto"
	"marketplace_refunds/internal/gateway"
	"marketplace_refunds/internal/helper"
	"marketplace_refunds/internal/models"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for the MongoDB collections the engine touches.
// It enforces the same unique keys as the real indexes.
type memStore struct {
	mu          sync.Mutex
	orders      map[string]*models.Order
	items       map[string]*models.OrderItem
	refunds     []*models.Refund
	refundItems []*models.RefundItem
	outbox      []*models.OutboxMessage
	audits      []*models.AuditLog

	// createRefundErrs are returned, in order, by the next CreateRefund calls.
	createRefundErrs []error
	// markItemsErrs are returned, in order, by the next MarkItemsRefunded calls.
	markItemsErrs []error
}

func newMemStore() *memStore {
	return &memStore{
		orders: make(map[string]*models.Order),
		items:  make(map[string]*models.OrderItem),
	}
}

func (s *memStore) addOrder(o *models.Order, items ...*models.OrderItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
	for _, item := range items {
		item.Order = o.ID
		s.items[item.ID] = item
	}
}

func (s *memStore) order(id string) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.orders[id]
}

func (s *memStore) item(id string) *models.OrderItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := *s.items[id]
	return &item
}

func (s *memStore) ledger() []models.Refund {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Refund, len(s.refunds))
	for i, r := range s.refunds {
		out[i] = *r
	}
	return out
}

func (s *memStore) outboxEvents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.outbox))
	for i, m := range s.outbox {
		out[i] = m.Event
	}
	return out
}

func (s *memStore) auditLogs() []*models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.AuditLog(nil), s.audits...)
}

type fakeOrders struct{ *memStore }

func (f fakeOrders) GetOrderByID(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f fakeOrders) GetOrdersByParentID(_ context.Context, parentID string) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.orders {
		if o.ParentOrderID == parentID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeOrders) GetOrderItemsByOrderIDs(_ context.Context, orderIDs []string) ([]*models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[string]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}
	out := []*models.OrderItem{}
	for _, item := range f.items {
		if wanted[item.Order] {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeOrders) UpdateOrders(_ context.Context, orderIDs []string, opts ...repository.UpdateOption) (int64, error) {
	update := repository.NewUpdateOptions()
	update.Apply(opts...)

	f.mu.Lock()
	defer f.mu.Unlock()
	var matched int64
	for _, id := range orderIDs {
		o, ok := f.orders[id]
		if !ok {
			continue
		}
		matched++
		if v, ok := update.SetFields[fields.FieldOrderPaymentStatus].(string); ok {
			o.PaymentStatus = v
		}
		if v, ok := update.SetFields[fields.FieldStatus].(string); ok {
			o.Status = v
		}
		if v, ok := update.SetFields[fields.FieldOrderCancelReason].(string); ok {
			o.CancelReason = v
		}
		if v, ok := update.SetFields[fields.FieldUpdatedBy].(*models.User); ok {
			o.UpdatedBy = v
		}
		if v, ok := update.SetFields[fields.FieldUpdatedAt].(time.Time); ok {
			o.UpdatedAt = v
		}
	}
	return matched, nil
}

func (f fakeOrders) MarkItemsRefunded(_ context.Context, itemIDs []string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.markItemsErrs) > 0 {
		err := f.markItemsErrs[0]
		f.markItemsErrs = f.markItemsErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	var modified int64
	for _, id := range itemIDs {
		item, ok := f.items[id]
		if !ok || item.IsRefunded() {
			continue
		}
		stamp := at
		item.RefundedAt = &stamp
		modified++
	}
	return modified, nil
}

type fakeRefunds struct{ *memStore }

func (f fakeRefunds) CreateRefund(_ context.Context, refund *models.Refund) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createRefundErrs) > 0 {
		err := f.createRefundErrs[0]
		f.createRefundErrs = f.createRefundErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, r := range f.refunds {
		if r.ID == refund.ID {
			return repository.ErrDuplicateKey
		}
		if refund.CommittedKey != "" && r.CommittedKey == refund.CommittedKey {
			return repository.ErrDuplicateKey
		}
	}
	cp := *refund
	f.refunds = append(f.refunds, &cp)
	return nil
}

func (f fakeRefunds) GetRefundByID(_ context.Context, id primitive.ObjectID) (*models.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.refunds {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeRefunds) GetCommittedByKey(_ context.Context, key string) (*models.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.refunds {
		if r.CommittedKey == key {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeRefunds) SumCommittedByPayment(_ context.Context, paymentID string) (primitive.Decimal128, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	amounts := []primitive.Decimal128{helper.ZeroDecimal128()}
	for _, r := range f.refunds {
		if r.PaymentID == paymentID && constants.ParseRefundStatus(r.Status).IsCommitted() {
			amounts = append(amounts, r.Amount)
		}
	}
	return helper.AddDecimal128(amounts...)
}

func (f fakeRefunds) CreateRefundItems(_ context.Context, items []*models.RefundItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range items {
		for _, existing := range f.refundItems {
			if existing.OrderItemID == item.OrderItemID {
				return repository.ErrDuplicateKey
			}
		}
	}
	for _, item := range items {
		cp := *item
		f.refundItems = append(f.refundItems, &cp)
	}
	return nil
}

func (f fakeRefunds) GetRefundItemsByRefundID(_ context.Context, refundID primitive.ObjectID) ([]*models.RefundItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.RefundItem{}
	for _, item := range f.refundItems {
		if item.RefundID == refundID {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f fakeRefunds) matches(r *models.Refund, params *repository.ListRefundsParams, withStatus bool) bool {
	if withStatus && params.Status != "" && r.Status != params.Status {
		return false
	}
	if params.Search == "" {
		return true
	}
	q := strings.ToLower(params.Search)
	for _, field := range []string{r.OrderID, r.PaymentID, r.ExternalRefundID, r.Reason} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func (f fakeRefunds) ListRefunds(_ context.Context, params *repository.ListRefundsParams) ([]*models.Refund, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*models.Refund
	for i := len(f.refunds) - 1; i >= 0; i-- {
		if f.matches(f.refunds[i], params, true) {
			matched = append(matched, f.refunds[i])
		}
	}
	total := int64(len(matched))
	if params.Offset >= len(matched) {
		return []*models.Refund{}, total, nil
	}
	end := params.Offset + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[params.Offset:end], total, nil
}

func (f fakeRefunds) TotalsByStatus(_ context.Context, params *repository.ListRefundsParams) ([]*dto.RefundStatusTotal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byStatus := map[string]*dto.RefundStatusTotal{}
	for _, r := range f.refunds {
		if !f.matches(r, params, false) {
			continue
		}
		t, ok := byStatus[r.Status]
		if !ok {
			t = &dto.RefundStatusTotal{Status: r.Status, Amount: helper.ZeroDecimal128()}
			byStatus[r.Status] = t
		}
		t.Count++
		t.Amount, _ = helper.AddDecimal128(t.Amount, r.Amount)
	}
	out := make([]*dto.RefundStatusTotal, 0, len(byStatus))
	for _, t := range byStatus {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (f fakeRefunds) GetRefundsByMonth(_ context.Context, year int, month int) ([]*models.Refund, error) {
	start, end := repository.MonthRange(year, month)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Refund
	for _, r := range f.refunds {
		if !r.CreatedAt.Before(start) && r.CreatedAt.Before(end) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f fakeRefunds) FindUnflaggedRejections(_ context.Context, gatewayKind string, limit int) ([]*models.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Refund
	for _, r := range f.refunds {
		if r.Status == constants.RefundStatusRejected.String() && r.GatewayKind == gatewayKind && r.FlaggedAt == nil {
			cp := *r
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f fakeRefunds) MarkFlagged(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.refunds {
		if r.ID == id {
			stamp := at
			r.FlaggedAt = &stamp
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeAuditLogs struct{ *memStore }

func (f fakeAuditLogs) Create(_ context.Context, log *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, log)
	return nil
}

type fakeOutbox struct{ *memStore }

func (f fakeOutbox) Create(_ context.Context, message *models.OutboxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outbox = append(f.outbox, message)
	return nil
}

func (f fakeOutbox) ClaimAndFetchEvents(context.Context, int) ([]*models.OutboxMessage, error) {
	return nil, errors.New("not implemented")
}

func (f fakeOutbox) MarkAsProcessed(context.Context, primitive.ObjectID) error {
	return errors.New("not implemented")
}

func (f fakeOutbox) IncrementRetry(context.Context, primitive.ObjectID, string) error {
	return errors.New("not implemented")
}

func (f fakeOutbox) MarkAsDeadLetter(context.Context, primitive.ObjectID, string) error {
	return errors.New("not implemented")
}

// mockGateway implements gateway.Client using testify/mock.
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Refund(ctx context.Context, req *gateway.RefundRequest) (*gateway.RefundResult, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*gateway.RefundResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// mockAlertHook implements AlertHook using testify/mock.
type mockAlertHook struct {
	mock.Mock
}

func (m *mockAlertHook) Raise(ctx context.Context, alert *models.Alert) {
	m.Called(ctx, alert)
}

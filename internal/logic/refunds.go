package logic

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"marketplace_refunds/internal/constants"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/db"
	"marketplace_refunds/internal/dto"
	"marketplace_refunds/internal/gateway"
	"marketplace_refunds/internal/helper"
	"marketplace_refunds/internal/locker"
	"marketplace_refunds/internal/models"
	"marketplace_refunds/pkg/pagination"
	"marketplace_refunds/pkg/snowflake"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/wire"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RefundLogic is the refund reconciliation engine and its read side.
type RefundLogic interface {
	ProcessRefund(ctx context.Context, req *dto.ProcessRefundRequest) (*dto.RefundResult, error)
	ListRefunds(ctx context.Context, req *dto.ListRefundsRequest) (*dto.ListRefundsResult, error)
	GetRefund(ctx context.Context, id primitive.ObjectID) (*dto.RefundWithItems, error)
	ExportRefundsByMonth(ctx context.Context, year int, month int) (string, []byte, error)
}

var _ RefundLogic = (*refundLogic)(nil)

// RetryPolicy bounds the retries of ledger writes that follow a provider call.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = p.MaxElapsedTime
	b.Reset()
	return backoff.WithContext(b, ctx)
}

type refundLogic struct {
	resolver     *OrderResolver
	ledger       *RefundLedger
	refundRepo   repository.RefundsRepository
	orderRepo    repository.OrdersRepository
	auditLogRepo repository.AuditLogRepository
	publisher    *RefundEventPublisher
	gateway      gateway.Client
	locker       locker.Locker
	txManager    db.TransactionManager
	alertHook    AlertHook
	idGenerator  *snowflake.Generator
	retry        RetryPolicy
	now          func() time.Time
	logger       *zap.Logger
}

func NewRefundLogic(resolver *OrderResolver, ledger *RefundLedger, refundRepo repository.RefundsRepository, orderRepo repository.OrdersRepository, auditLogRepo repository.AuditLogRepository, publisher *RefundEventPublisher, gw gateway.Client, lk locker.Locker, txManager db.TransactionManager, alertHook AlertHook, idGenerator *snowflake.Generator, retry RetryPolicy, logger *zap.Logger) *refundLogic {
	return &refundLogic{
		resolver:     resolver,
		ledger:       ledger,
		refundRepo:   refundRepo,
		orderRepo:    orderRepo,
		auditLogRepo: auditLogRepo,
		publisher:    publisher,
		gateway:      gw,
		locker:       lk,
		txManager:    txManager,
		alertHook:    alertHook,
		idGenerator:  idGenerator,
		retry:        retry,
		now:          time.Now,
		logger:       logger.Named("RefundLogic"),
	}
}

// refundAttempt carries one validated request from the provider call to the ledger.
type refundAttempt struct {
	key      string
	group    *OrderGroup
	plan     *refundPlan
	reason   string
	operator *models.User
	row      models.Refund
}

func (l *refundLogic) ProcessRefund(ctx context.Context, req *dto.ProcessRefundRequest) (*dto.RefundResult, error) {
	if strings.TrimSpace(req.GetOrderRef()) == "" || strings.TrimSpace(req.GetPaymentID()) == "" {
		return nil, fmt.Errorf("%w: orderId and paymentId are required", ErrInvalidRequest)
	}

	var requested *primitive.Decimal128
	if amount := req.GetAmount(); amount != nil {
		rounded, err := helper.AddDecimal128(*amount)
		if err != nil || !helper.IsPositive(rounded) {
			return nil, ErrInvalidAmount
		}
		requested = &rounded
	}

	requestedAt := req.GetRequestedAt()
	if requestedAt.IsZero() {
		requestedAt = l.now()
	}
	key := IdempotencyKey(req.GetPaymentID(), req.GetClientKey(), requestedAt)

	release, err := l.locker.Acquire(ctx, req.GetPaymentID())
	if err != nil {
		if errors.Is(err, locker.ErrLockTimeout) {
			return nil, ErrPaymentBusy
		}
		return nil, fmt.Errorf("failed to lock payment %s: %w", req.GetPaymentID(), err)
	}
	defer release()

	if res, err := l.replay(ctx, key); err != nil || res != nil {
		return res, err
	}

	group, err := l.resolver.Resolve(ctx, req.GetOrderRef())
	if err != nil {
		return nil, err
	}
	if pid := group.PaymentID(); pid != "" && pid != req.GetPaymentID() {
		return nil, ErrPaymentMismatch
	}

	prior, err := l.ledger.PriorCommitted(ctx, req.GetPaymentID())
	if err != nil {
		return nil, err
	}

	plan, err := planRefund(group, prior, requested, req.GetItemIDs())
	if err != nil {
		return nil, err
	}

	operator := req.GetOperator()
	if operator == nil {
		operator = models.SystemUser
	}
	serial, err := l.idGenerator.GetID()
	if err != nil {
		l.logger.Error("failed to generate snowflake id", zap.Error(err))
		return nil, fmt.Errorf("failed to generate refund serial: %w", err)
	}

	attempt := &refundAttempt{
		key:      key,
		group:    group,
		plan:     plan,
		reason:   strings.TrimSpace(req.GetReason()),
		operator: operator,
		row: models.Refund{
			ID:             primitive.NewObjectID(),
			Serial:         serial,
			OrderID:        group.PrimaryOrderID(),
			GroupKey:       group.Key,
			PaymentID:      req.GetPaymentID(),
			Amount:         plan.amount,
			IdempotencyKey: key,
			FullRefund:     plan.isFull,
			CreatedBy:      operator,
		},
	}

	res, err := l.gateway.Refund(ctx, &gateway.RefundRequest{
		PaymentID:      req.GetPaymentID(),
		Amount:         plan.gatewayAmount(),
		IdempotencyKey: key,
	})

	// the provider has been called; the outcome is recorded even if the caller goes away
	persistCtx := context.WithoutCancel(ctx)
	if err != nil {
		return nil, l.recordRejected(persistCtx, attempt, gateway.AsError(err))
	}
	return l.recordConfirmed(persistCtx, attempt, res)
}

// replay returns the committed result of an earlier request with the same key, or nil.
func (l *refundLogic) replay(ctx context.Context, key string) (*dto.RefundResult, error) {
	refund, items, err := l.ledger.FindCommitted(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	l.logger.Info("replaying committed refund", zap.String("refundID", refund.ID.Hex()), zap.String("paymentID", refund.PaymentID))
	return newRefundResult(refund, items, true), nil
}

func (l *refundLogic) recordRejected(ctx context.Context, a *refundAttempt, gwErr *gateway.Error) error {
	refund := a.row
	refund.Status = constants.RefundStatusRejected.String()
	refund.Reason = rejectedReason(a.reason, gwErr.Message())
	refund.GatewayKind = string(gwErr.Kind)
	refund.GatewayDetail = gwErr.Raw
	refund.CreatedAt = l.now()

	err := l.persistWithRetry(ctx, "record rejected refund",
		func(txCtx context.Context) error {
			return l.ledger.Record(txCtx, &refund)
		},
		func(txCtx context.Context) error {
			return l.publisher.PublishRefundEvent(txCtx, constants.RefundEventRejected, &refund, a.group.OrderIDs())
		},
	)
	if err != nil {
		l.logger.Error("failed to record rejected refund", zap.Error(err), zap.String("paymentID", refund.PaymentID), zap.String("kind", refund.GatewayKind))
		if gwErr.Kind == gateway.KindUnknown {
			l.alertHook.Raise(ctx, newAlert(constants.AlertKindUnreconciled, &refund, "provider outcome unknown and the attempt could not be recorded: "+err.Error()))
		} else {
			l.alertHook.Raise(ctx, newAlert(constants.AlertKindRejectionNotRecorded, &refund, "provider rejected the refund and the attempt could not be recorded: "+err.Error()))
		}
		return &GatewayRejectedError{Err: gwErr}
	}

	l.logger.Info("refund rejected by provider",
		zap.String("refundID", refund.ID.Hex()),
		zap.String("paymentID", refund.PaymentID),
		zap.String("kind", refund.GatewayKind))
	return &GatewayRejectedError{Refund: &refund, Err: gwErr}
}

func (l *refundLogic) recordConfirmed(ctx context.Context, a *refundAttempt, res *gateway.RefundResult) (*dto.RefundResult, error) {
	now := l.now()

	refund := a.row
	refund.ExternalRefundID = res.ExternalRefundID
	refund.Amount = res.Amount
	if !helper.IsPositive(refund.Amount) {
		refund.Amount = a.plan.amount
	}
	refund.Status = constants.RefundStatusApproved.String()
	event := constants.RefundEventApproved
	if res.Status == gateway.StatusPending {
		refund.Status = constants.RefundStatusPending.String()
		event = constants.RefundEventPending
	}
	refund.Reason = a.reason
	refund.AllItemsRefunded = a.plan.allItemsRefunded(a.group)
	refund.CreatedAt = now

	if cmp, err := helper.CompareDecimal128(refund.Amount, a.plan.available); err == nil && cmp > 0 {
		l.logger.Warn("provider confirmed more than was available", zap.String("confirmed", helper.FormatAmount(refund.Amount)), zap.String("available", helper.FormatAmount(a.plan.available)))
	}

	transition := orderRefundState{PaymentStatus: constants.PaymentStatusPartiallyRefunded.String()}
	updates := []repository.UpdateOption{
		repository.WithUpdatedBy(a.operator),
		repository.WithUpdatedAt(now),
	}
	if refund.AllItemsRefunded {
		transition = orderRefundState{
			PaymentStatus: constants.PaymentStatusRefunded.String(),
			Status:        constants.OrderStatusCancelled.String(),
			CancelReason:  cancelReason(a.reason),
		}
		updates = append(updates,
			repository.WithOrderStatus(transition.Status),
			repository.WithCancelReason(transition.CancelReason))
	}
	updates = append(updates, repository.WithPaymentStatus(transition.PaymentStatus))

	items := NewRefundItems(&refund, a.plan.lines, now)
	steps := []persistStep{
		func(txCtx context.Context) error {
			return l.ledger.Record(txCtx, &refund)
		},
		func(txCtx context.Context) error {
			return l.ledger.AttachItems(txCtx, items)
		},
		func(txCtx context.Context) error {
			return l.ledger.StampItems(txCtx, items, now)
		},
		func(txCtx context.Context) error {
			if _, err := l.orderRepo.UpdateOrders(txCtx, a.group.OrderIDs(), updates...); err != nil {
				return fmt.Errorf("failed to update order refund state: %w", err)
			}
			return nil
		},
	}
	for _, o := range a.group.Orders {
		after := transition
		if after.Status == "" {
			after.Status = o.Status
			after.CancelReason = o.CancelReason
		}
		steps = append(steps, func(txCtx context.Context) error {
			if err := l.auditLogRepo.Create(txCtx, buildRefundOrderAuditLog(a.operator, o, after, &refund)); err != nil {
				return fmt.Errorf("failed to create audit log: %w", err)
			}
			return nil
		})
	}
	steps = append(steps, func(txCtx context.Context) error {
		return l.publisher.PublishRefundEvent(txCtx, event, &refund, a.group.OrderIDs())
	})

	err := l.persistWithRetry(ctx, "record confirmed refund", steps...)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			if replayed, rerr := l.replay(ctx, a.key); rerr == nil && replayed != nil {
				return replayed, nil
			}
		}
		l.alertHook.Raise(ctx, newAlert(constants.AlertKindNotRecorded, &refund, err.Error()))
		return nil, &PersistenceError{
			ExternalRefundID: refund.ExternalRefundID,
			IdempotencyKey:   a.key,
			Amount:           refund.Amount,
			Err:              err,
		}
	}

	l.logger.Info("refund recorded",
		zap.String("refundID", refund.ID.Hex()),
		zap.String("paymentID", refund.PaymentID),
		zap.String("status", refund.Status),
		zap.String("amount", helper.FormatAmount(refund.Amount)),
		zap.Bool("allItemsRefunded", refund.AllItemsRefunded))
	return newRefundResult(&refund, items, false), nil
}

// persistStep is one write of a ledger transaction.
type persistStep func(txCtx context.Context) error

// persistWithRetry runs steps in a transaction until it commits or the retry budget is spent.
// Without real transactions, steps that already succeeded are not run again.
// Duplicate keys are not retried.
func (l *refundLogic) persistWithRetry(ctx context.Context, op string, steps ...persistStep) error {
	atomic := db.Atomic(l.txManager)
	attempt, done := 0, 0
	operation := func() error {
		attempt++
		_, err := db.RunInTransaction(ctx, l.txManager, func(txCtx context.Context) (struct{}, error) {
			start := 0
			if !atomic {
				start = done
			}
			for i := start; i < len(steps); i++ {
				if err := steps[i](txCtx); err != nil {
					return struct{}{}, err
				}
				if !atomic {
					done = i + 1
				}
			}
			return struct{}{}, nil
		})
		if errors.Is(err, repository.ErrDuplicateKey) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		l.logger.Warn("ledger write failed, retrying", zap.String("op", op), zap.Int("attempt", attempt), zap.Int("stepsDone", done), zap.Duration("wait", wait), zap.Error(err))
	}
	return backoff.RetryNotify(operation, l.retry.backOff(ctx), notify)
}

func (l *refundLogic) ListRefunds(ctx context.Context, req *dto.ListRefundsRequest) (*dto.ListRefundsResult, error) {
	pageReq := pagination.NewPageRequest(req.Page, req.Limit)
	params := &repository.ListRefundsParams{
		Status: req.Status,
		Search: strings.TrimSpace(req.Search),
		Limit:  pageReq.GetLimit(),
		Offset: pageReq.GetOffset(),
	}

	var (
		refunds []*models.Refund
		total   int64
		totals  []*dto.RefundStatusTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		refunds, total, err = l.refundRepo.ListRefunds(gctx, params)
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = l.refundRepo.TotalsByStatus(gctx, params)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}

	return &dto.ListRefundsResult{
		Page:   pagination.NewPageResult(refunds, total, pageReq),
		Totals: totals,
	}, nil
}

func (l *refundLogic) GetRefund(ctx context.Context, id primitive.ObjectID) (*dto.RefundWithItems, error) {
	refund, err := l.refundRepo.GetRefundByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}
	items, err := l.refundRepo.GetRefundItemsByRefundID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get refund items: %w", err)
	}
	return &dto.RefundWithItems{Refund: refund, Items: items}, nil
}

func (l *refundLogic) ExportRefundsByMonth(ctx context.Context, year int, month int) (string, []byte, error) {
	refunds, err := l.refundRepo.GetRefundsByMonth(ctx, year, month)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get refunds for export: %w", err)
	}

	filename := fmt.Sprintf("refunds-%d-%02d.csv", year, month)

	var buffer bytes.Buffer
	w := csv.NewWriter(&buffer)

	header := []string{
		"Serial", "Refund ID", "Created At", "Order ID", "Group", "Payment ID",
		"External Refund ID", "Amount", "Status", "Full Refund", "Gateway Error", "Reason", "Operator",
	}
	if err := w.Write(header); err != nil {
		return "", nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range refunds {
		operator := ""
		if r.CreatedBy != nil {
			operator = r.CreatedBy.Email
		}
		record := []string{
			strconv.FormatUint(r.Serial, 10),
			r.ID.Hex(),
			r.CreatedAt.Format(time.RFC3339),
			r.OrderID,
			r.GroupKey,
			r.PaymentID,
			r.ExternalRefundID,
			helper.FormatAmount(r.Amount),
			r.Status,
			strconv.FormatBool(r.FullRefund),
			r.GatewayKind,
			r.Reason,
			operator,
		}
		if err := w.Write(record); err != nil {
			return "", nil, fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, fmt.Errorf("csv writer error: %w", err)
	}
	return filename, buffer.Bytes(), nil
}

func newRefundResult(refund *models.Refund, items []*models.RefundItem, replayed bool) *dto.RefundResult {
	outcome := constants.OrderOutcomePartialRefund
	if refund.AllItemsRefunded {
		outcome = constants.OrderOutcomeCancelled
	}
	return &dto.RefundResult{
		Refund:           refund,
		Items:            items,
		AllItemsRefunded: refund.AllItemsRefunded,
		OrderStatus:      outcome,
		Replayed:         replayed,
	}
}

func newAlert(kind constants.AlertKind, refund *models.Refund, message string) *models.Alert {
	return &models.Alert{
		Kind:             kind.String(),
		RefundID:         refund.ID.Hex(),
		OrderID:          refund.OrderID,
		PaymentID:        refund.PaymentID,
		ExternalRefundID: refund.ExternalRefundID,
		IdempotencyKey:   refund.IdempotencyKey,
		Amount:           helper.FormatAmount(refund.Amount),
		Message:          message,
		RaisedAt:         time.Now(),
	}
}

func rejectedReason(reason, failure string) string {
	if reason == "" {
		return "rejected: " + failure
	}
	return reason + " (rejected: " + failure + ")"
}

func cancelReason(reason string) string {
	if reason == "" {
		return "refunded"
	}
	return reason
}

var RefundLogicProviderSet = wire.NewSet(
	NewOrderResolver,
	NewRefundLedger,
	NewRefundEventPublisher,
	NewRefundLogic,
	wire.Bind(new(RefundLogic), new(*refundLogic)),
)

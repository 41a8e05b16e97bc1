package logic

import (
	"context"
	"errors"
	"fmt"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/helper"
	"marketplace_refunds/internal/models"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HybridPrefix marks order references that name a hybrid group rather than a stored order.
const HybridPrefix = "hybrid_"

// OrderGroup is the refundable unit behind an order reference: either one order or every
// sub-order of a hybrid checkout. Orders and items are kept in slices and looked up by index.
type OrderGroup struct {
	Key      string
	IsHybrid bool
	Orders   []*models.Order
	Items    []*models.OrderItem
	Total    primitive.Decimal128

	orderIndex map[string]int
	itemIndex  map[string]int
}

func newOrderGroup(key string, hybrid bool, orders []*models.Order, items []*models.OrderItem) (*OrderGroup, error) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	g := &OrderGroup{
		Key:        key,
		IsHybrid:   hybrid,
		Orders:     orders,
		Items:      make([]*models.OrderItem, 0, len(items)),
		orderIndex: make(map[string]int, len(orders)),
		itemIndex:  make(map[string]int, len(items)),
	}

	totals := make([]primitive.Decimal128, 0, len(orders))
	for i, o := range orders {
		g.orderIndex[o.ID] = i
		totals = append(totals, o.Total)
	}
	for _, item := range items {
		if _, ok := g.orderIndex[item.Order]; !ok {
			continue
		}
		g.itemIndex[item.ID] = len(g.Items)
		g.Items = append(g.Items, item)
	}

	total, err := helper.AddDecimal128(totals...)
	if err != nil {
		return nil, fmt.Errorf("failed to sum order totals of %s: %w", key, err)
	}
	g.Total = total
	return g, nil
}

// PrimaryOrderID is the anchor for ledger rows: the oldest sub-order of a hybrid group.
func (g *OrderGroup) PrimaryOrderID() string {
	return g.Orders[0].ID
}

func (g *OrderGroup) OrderIDs() []string {
	ids := make([]string, len(g.Orders))
	for i, o := range g.Orders {
		ids[i] = o.ID
	}
	return ids
}

func (g *OrderGroup) Order(id string) (*models.Order, bool) {
	i, ok := g.orderIndex[id]
	if !ok {
		return nil, false
	}
	return g.Orders[i], true
}

func (g *OrderGroup) Item(id string) (*models.OrderItem, bool) {
	i, ok := g.itemIndex[id]
	if !ok {
		return nil, false
	}
	return g.Items[i], true
}

// PaymentID returns the external payment id stored on the orders, if any order carries one.
func (g *OrderGroup) PaymentID() string {
	for _, o := range g.Orders {
		if o.ExternalPaymentID != "" {
			return o.ExternalPaymentID
		}
	}
	return ""
}

// OrderResolver turns an order reference into its OrderGroup. It never writes.
type OrderResolver struct {
	orderRepo repository.OrdersRepository
}

func NewOrderResolver(orderRepo repository.OrdersRepository) *OrderResolver {
	return &OrderResolver{orderRepo: orderRepo}
}

// Resolve accepts a plain order id, a hybrid group id, or the id of any sub-order of a
// hybrid group. A sub-order id resolves to its whole group.
func (r *OrderResolver) Resolve(ctx context.Context, ref string) (*OrderGroup, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrOrderNotFound
	}

	if strings.HasPrefix(ref, HybridPrefix) {
		return r.resolveHybrid(ctx, ref)
	}

	order, err := r.orderRepo.GetOrderByID(ctx, ref)
	switch {
	case err == nil:
		if order.ParentOrderID != "" {
			return r.resolveHybrid(ctx, order.ParentOrderID)
		}
		return r.build(ctx, order.ID, false, []*models.Order{order})
	case errors.Is(err, repository.ErrNotFound):
		return r.resolveHybrid(ctx, ref)
	default:
		return nil, fmt.Errorf("failed to load order %s: %w", ref, err)
	}
}

func (r *OrderResolver) resolveHybrid(ctx context.Context, parentID string) (*OrderGroup, error) {
	orders, err := r.orderRepo.GetOrdersByParentID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sub-orders of %s: %w", parentID, err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, parentID)
	}
	return r.build(ctx, parentID, true, orders)
}

func (r *OrderResolver) build(ctx context.Context, key string, hybrid bool, orders []*models.Order) (*OrderGroup, error) {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := r.orderRepo.GetOrderItemsByOrderIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load items of %s: %w", key, err)
	}
	return newOrderGroup(key, hybrid, orders, items)
}

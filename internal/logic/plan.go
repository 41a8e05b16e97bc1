package logic

import (
	"fmt"
	"marketplace_refunds/internal/helper"
	"marketplace_refunds/internal/models"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// refundPlan is the validated shape of a refund before the provider is called.
type refundPlan struct {
	amount    primitive.Decimal128
	available primitive.Decimal128
	isFull    bool
	lines     []ItemLine
}

// gatewayAmount is nil for a full refund so the provider refunds whatever is left on its side.
func (p *refundPlan) gatewayAmount() *primitive.Decimal128 {
	if p.isFull {
		return nil
	}
	amount := p.amount
	return &amount
}

// allItemsRefunded reports whether every item of the group is refunded once this plan is applied.
// A group without items is fully refunded only by a full refund.
func (p *refundPlan) allItemsRefunded(group *OrderGroup) bool {
	if len(group.Items) == 0 {
		return p.isFull
	}
	covered := make(map[string]struct{}, len(p.lines))
	for _, line := range p.lines {
		covered[line.Item.ID] = struct{}{}
	}
	for _, item := range group.Items {
		if item.IsRefunded() {
			continue
		}
		if _, ok := covered[item.ID]; !ok {
			return false
		}
	}
	return true
}

// planRefund decides amount and item coverage. requested is already rounded to two decimals.
func planRefund(group *OrderGroup, prior primitive.Decimal128, requested *primitive.Decimal128, itemIDs []string) (*refundPlan, error) {
	available, err := helper.SubDecimal128(group.Total, prior)
	if err != nil {
		return nil, fmt.Errorf("failed to compute available amount: %w", err)
	}
	if !helper.IsPositive(available) {
		available = helper.ZeroDecimal128()
	}

	selected, err := selectItems(group, itemIDs)
	if err != nil {
		return nil, err
	}

	wholeOrder := false
	var amount primitive.Decimal128
	switch {
	case requested != nil:
		amount = *requested
	case len(selected) > 0:
		lineAmounts := make([]primitive.Decimal128, len(selected))
		for i, line := range selected {
			lineAmounts[i] = line.Amount
		}
		if amount, err = helper.AddDecimal128(lineAmounts...); err != nil {
			return nil, fmt.Errorf("failed to sum item amounts: %w", err)
		}
	default:
		amount = group.Total
		wholeOrder = true
	}

	if !helper.IsPositive(amount) {
		if wholeOrder {
			return nil, &ExceedsAvailableError{Requested: group.Total, Available: available}
		}
		return nil, ErrInvalidAmount
	}

	after, err := helper.AddDecimal128(prior, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to compute refunded total: %w", err)
	}
	cmp, err := helper.CompareDecimal128(after, group.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to compare refunded total: %w", err)
	}
	if cmp > 0 {
		return nil, &ExceedsAvailableError{Requested: amount, Available: available}
	}

	plan := &refundPlan{
		amount:    amount,
		available: available,
		isFull:    wholeOrder || cmp == 0,
		lines:     selected,
	}
	if len(plan.lines) == 0 && plan.isFull && len(itemIDs) == 0 {
		for _, item := range group.Items {
			if item.IsRefunded() {
				continue
			}
			line, err := itemLine(item)
			if err != nil {
				return nil, err
			}
			plan.lines = append(plan.lines, line)
		}
	}
	return plan, nil
}

// selectItems resolves explicit item ids against the group, keeping the caller's order.
func selectItems(group *OrderGroup, itemIDs []string) ([]ItemLine, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(itemIDs))
	var missing, refunded []string
	lines := make([]ItemLine, 0, len(itemIDs))
	for _, id := range itemIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		item, ok := group.Item(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		if item.IsRefunded() {
			refunded = append(refunded, id)
			continue
		}
		line, err := itemLine(item)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidItems, strings.Join(missing, ", "))
	}
	if len(refunded) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemAlreadyRefunded, strings.Join(refunded, ", "))
	}
	if len(lines) == 0 {
		return nil, ErrInvalidItems
	}
	return lines, nil
}

func itemLine(item *models.OrderItem) (ItemLine, error) {
	amount, err := helper.MulDecimal128(item.UnitPrice, item.Quantity)
	if err != nil {
		return ItemLine{}, fmt.Errorf("failed to price item %s: %w", item.ID, err)
	}
	return ItemLine{Item: item, Amount: amount}, nil
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/orderzap/orderzap/internal/models"
	"github.com/orderzap/orderzap/internal/reconcile"
)

// OrderService is the GORM-backed order store for the reconciler.
type OrderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// MarkPaid flips the order to paid with a single conditioned UPDATE. The
// is_paid filter is the idempotence mechanism: under concurrent
// redeliveries at most one UPDATE affects a row, the rest see zero rows.
func (s *OrderService) MarkPaid(ctx context.Context, tenantID, orderID uint) (reconcile.MarkResult, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND tenant_id = ? AND is_paid = ? AND is_cancelled = ?", orderID, tenantID, false, false).
		Updates(map[string]interface{}{"is_paid": true, "paid_at": &now})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		return reconcile.MarkPaid, nil
	}

	// Zero rows: either the order is already paid/cancelled (duplicate
	// delivery, benign) or it does not exist for this tenant at all
	var order models.Order
	err := s.db.WithContext(ctx).Select("id").
		Where("id = ? AND tenant_id = ?", orderID, tenantID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return reconcile.MarkNotFound, nil
		}
		return 0, err
	}
	return reconcile.MarkAlreadyPaid, nil
}

// FirstUnpaidByLinkFragment resolves the lowest-id unpaid order whose
// stored payment link contains the fragment. Best-effort fallback for
// payments whose external reference is not an order id.
func (s *OrderService) FirstUnpaidByLinkFragment(ctx context.Context, tenantID uint, fragment string) (uint, bool, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Select("id").
		Where("tenant_id = ? AND is_paid = ? AND is_cancelled = ?", tenantID, false, false).
		Where("payment_link ILIKE ?", "%"+escapeLike(fragment)+"%").
		Order("id asc").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return order.ID, true, nil
}

// FindByID loads one order scoped by tenant, for confirmation tasks and
// the return-page flow.
func (s *OrderService) FindByID(ctx context.Context, tenantID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", orderID, tenantID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// escapeLike neutralizes LIKE wildcards inside a lookup fragment so a
// reference containing % or _ cannot widen the match.
func escapeLike(fragment string) string {
	fragment = strings.ReplaceAll(fragment, `\`, `\\`)
	fragment = strings.ReplaceAll(fragment, "%", `\%`)
	fragment = strings.ReplaceAll(fragment, "_", `\_`)
	return fragment
}

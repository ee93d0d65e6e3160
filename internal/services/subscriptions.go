package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/orderzap/orderzap/internal/models"
	"github.com/orderzap/orderzap/internal/reconcile"
)

// SubscriptionService extends tenant subscription windows. Extending a
// date is not replay-safe by itself, so the processed-payment ledger
// insert lives in the same transaction: a redelivered payment id hits the
// unique index, the whole transaction rolls back, nothing moves twice.
type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

var errDuplicatePayment = errors.New("payment already processed")
var errTenantNotFound = errors.New("tenant not found")

// resolveExtensionDays picks the extension length for a renewal: a found
// plan's days win over the reference's days field. Resolving to zero is an
// error, not a zero-day extension; that would set the window to now and
// consume the payment id for nothing.
func resolveExtensionDays(ref reconcile.SubscriptionReference, plan *models.Plan) (int, error) {
	days := ref.Days
	if plan != nil && plan.Days > 0 {
		days = plan.Days
	}
	if days <= 0 {
		return 0, fmt.Errorf("no extension days for tenant %d (plan %d)", ref.TenantID, ref.PlanID)
	}
	return days, nil
}

func (s *SubscriptionService) ExtendSubscription(ctx context.Context, paymentID string, ref reconcile.SubscriptionReference) (reconcile.ExtendResult, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant models.Tenant
		if err := tx.First(&tenant, ref.TenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errTenantNotFound
			}
			return err
		}

		ledger := models.ProcessedPayment{
			Provider:  models.PaymentGatewayMercadoPago,
			PaymentID: paymentID,
			TenantID:  ref.TenantID,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicatePayment
			}
			return err
		}

		var plan *models.Plan
		if ref.PlanID != 0 {
			var p models.Plan
			if err := tx.First(&p, ref.PlanID).Error; err == nil {
				plan = &p
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			// Unknown plan id: fall back to the days field from the
			// reference, keep the current plan type
		}

		days, err := resolveExtensionDays(ref, plan)
		if err != nil {
			return fmt.Errorf("payment %s: %w", paymentID, err)
		}

		updates := map[string]interface{}{"is_blocked": false}
		if plan != nil {
			updates["plan_type"] = models.PlanType(plan.Code)
		}

		endsAt := time.Now().AddDate(0, 0, days)
		updates["subscription_ends_at"] = &endsAt

		if err := tx.Model(&tenant).Updates(updates).Error; err != nil {
			return err
		}

		log.Printf("[subscription] tenant %d extended %d days by payment %s (until %s)",
			ref.TenantID, days, paymentID, endsAt.Format(time.RFC3339))
		return nil
	})

	switch {
	case err == nil:
		return reconcile.ExtendApplied, nil
	case errors.Is(err, errDuplicatePayment):
		return reconcile.ExtendDuplicate, nil
	case errors.Is(err, errTenantNotFound):
		return reconcile.ExtendTenantNotFound, nil
	default:
		return 0, err
	}
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/expense-reporting/internal/core/database"
	refundDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/refund"
	"github.com/frahmantamala/expense-reporting/internal/refund"
	"gorm.io/gorm"
)

type RefundRepository struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) Create(ctx context.Context, rf *refundDatamodel.Refund) error {
	return database.GetDB(ctx, r.db).Create(rf).Error
}

func (r *RefundRepository) GetByID(ctx context.Context, id int64) (*refundDatamodel.Refund, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *RefundRepository) GetByTrip(ctx context.Context, tripID int64) (*refundDatamodel.Refund, error) {
	return r.first(ctx, "trip_id = ?", tripID)
}

func (r *RefundRepository) first(ctx context.Context, query string, arg interface{}) (*refundDatamodel.Refund, error) {
	var rf refundDatamodel.Refund
	err := database.GetDB(ctx, r.db).Where(query, arg).First(&rf).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rf, nil
}

// List filters on the read-time status: overdue and pending are split on the due date.
func (r *RefundRepository) List(ctx context.Context, filter refund.ListFilter, now time.Time) ([]*refundDatamodel.Refund, error) {
	query := database.GetDB(ctx, r.db).Model(&refundDatamodel.Refund{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	switch filter.Status {
	case "":
	case refund.StatusOverdue:
		query = query.Where("status = ? AND due_date IS NOT NULL AND due_date < ?", refund.StatusPending, now)
	case refund.StatusPending:
		query = query.Where("status = ? AND (due_date IS NULL OR due_date >= ?)", refund.StatusPending, now)
	default:
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var refunds []*refundDatamodel.Refund
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset(filter.Offset).
		Find(&refunds).Error
	return refunds, err
}

// ApplyPayment adds the payment in one conditional UPDATE so concurrent payments cannot overpay.
func (r *RefundRepository) ApplyPayment(ctx context.Context, id int64, p refund.Payment) (bool, error) {
	updates := map[string]interface{}{
		"refunded_amount": gorm.Expr("refunded_amount + ?", p.Amount),
		"status": gorm.Expr("CASE WHEN refunded_amount + ? >= excess_amount THEN ? ELSE ? END",
			p.Amount, refund.StatusCompleted, refund.StatusPartial),
		"completed_date": gorm.Expr("CASE WHEN refunded_amount + ? >= excess_amount THEN ? ELSE completed_date END",
			p.Amount, p.At),
		"refund_method": p.Method,
		"updated_at":    p.At,
	}
	if p.Notes != nil {
		updates["notes"] = *p.Notes
	}
	if p.ReceiptURL != nil {
		updates["receipt_url"] = *p.ReceiptURL
	}

	result := database.GetDB(ctx, r.db).
		Model(&refundDatamodel.Refund{}).
		Where("id = ? AND refunded_amount + ? <= excess_amount AND status IN ?",
			id, p.Amount, []string{refund.StatusPending, refund.StatusPartial, refund.StatusOverdue}).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *RefundRepository) Update(ctx context.Context, rf *refundDatamodel.Refund) error {
	return database.GetDB(ctx, r.db).Save(rf).Error
}

func (r *RefundRepository) Delete(ctx context.Context, id int64) error {
	return database.GetDB(ctx, r.db).Delete(&refundDatamodel.Refund{}, id).Error
}

package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/expense-reporting/internal/core/database"
	approvalDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/approval"
	expenseDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/expense"
	refundDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/refund"
	reportDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/report"
	tripDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/trip"
	"github.com/frahmantamala/expense-reporting/internal/trip"
	"gorm.io/gorm"
)

type TripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{db: db}
}

func (r *TripRepository) Create(ctx context.Context, t *tripDatamodel.Trip) error {
	return database.GetDB(ctx, r.db).Create(t).Error
}

func (r *TripRepository) GetByID(ctx context.Context, id int64) (*tripDatamodel.Trip, error) {
	var t tripDatamodel.Trip
	err := database.GetDB(ctx, r.db).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TripRepository) List(ctx context.Context, filter trip.ListFilter) ([]*tripDatamodel.Trip, error) {
	query := database.GetDB(ctx, r.db).Model(&tripDatamodel.Trip{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var trips []*tripDatamodel.Trip
	err := query.
		Order("start_date DESC").
		Order("id DESC").
		Offset(filter.Offset).
		Find(&trips).Error
	return trips, err
}

func (r *TripRepository) Update(ctx context.Context, t *tripDatamodel.Trip) error {
	return database.GetDB(ctx, r.db).Save(t).Error
}

func (r *TripRepository) ListExpenses(ctx context.Context, tripID int64) ([]*expenseDatamodel.Expense, error) {
	var expenses []*expenseDatamodel.Expense
	err := database.GetDB(ctx, r.db).
		Where("trip_id = ?", tripID).
		Order("expense_date ASC").
		Order("id ASC").
		Find(&expenses).Error
	return expenses, err
}

type tripTotal struct {
	TripID int64
	Total  int64
}

// ExpenseTotals sums expense amounts per trip. Trips without expenses are absent from the map.
func (r *TripRepository) ExpenseTotals(ctx context.Context, tripIDs []int64) (map[int64]int64, error) {
	totals := make(map[int64]int64, len(tripIDs))
	if len(tripIDs) == 0 {
		return totals, nil
	}

	var rows []tripTotal
	err := database.GetDB(ctx, r.db).
		Model(&expenseDatamodel.Expense{}).
		Select("trip_id, COALESCE(SUM(amount), 0) AS total").
		Where("trip_id IN ?", tripIDs).
		Group("trip_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		totals[row.TripID] = row.Total
	}
	return totals, nil
}

// AttachExpenses never moves an expense that already belongs to another report.
func (r *TripRepository) AttachExpenses(ctx context.Context, tripID, reportID int64) (int64, error) {
	result := database.GetDB(ctx, r.db).
		Model(&expenseDatamodel.Expense{}).
		Where("trip_id = ? AND report_id IS NULL", tripID).
		Update("report_id", reportID)
	return result.RowsAffected, result.Error
}

func (r *TripRepository) DeleteCascade(ctx context.Context, tripID int64) error {
	db := database.GetDB(ctx, r.db)
	reportIDs := db.Model(&reportDatamodel.Report{}).Select("id").Where("trip_id = ?", tripID)

	if err := db.Where("report_id IN (?)", reportIDs).Delete(&approvalDatamodel.Approval{}).Error; err != nil {
		return err
	}
	// expenses from outside the trip may sit on the trip's report
	if err := db.Model(&expenseDatamodel.Expense{}).
		Where("report_id IN (?)", reportIDs).
		Update("report_id", nil).Error; err != nil {
		return err
	}
	if err := db.Where("trip_id = ?", tripID).Delete(&expenseDatamodel.Expense{}).Error; err != nil {
		return err
	}
	if err := db.Where("trip_id = ?", tripID).Delete(&refundDatamodel.Refund{}).Error; err != nil {
		return err
	}
	if err := db.Where("trip_id = ?", tripID).Delete(&reportDatamodel.Report{}).Error; err != nil {
		return err
	}
	return db.Delete(&tripDatamodel.Trip{}, tripID).Error
}

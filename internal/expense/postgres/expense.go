package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/expense-reporting/internal/core/database"
	expenseDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-reporting/internal/expense"
	"gorm.io/gorm"
)

// ExpenseRepository implements the expense.RepositoryAPI interface using GORM
type ExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create saves a new expense to the database
func (r *ExpenseRepository) Create(ctx context.Context, exp *expenseDatamodel.Expense) error {
	return database.GetDB(ctx, r.db).Create(exp).Error
}

// GetByID retrieves an expense by its ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error) {
	var exp expenseDatamodel.Expense
	err := database.GetDB(ctx, r.db).Where("id = ?", id).First(&exp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &exp, nil
}

// List applies the optional filters, newest expense date first.
func (r *ExpenseRepository) List(ctx context.Context, filter expense.ListFilter) ([]*expenseDatamodel.Expense, error) {
	query := database.GetDB(ctx, r.db).Model(&expenseDatamodel.Expense{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.TripID != nil {
		query = query.Where("trip_id = ?", *filter.TripID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var expenses []*expenseDatamodel.Expense
	err := query.
		Order("expense_date DESC").
		Order("id DESC").
		Offset(filter.Offset).
		Find(&expenses).Error
	return expenses, err
}

// ListByReport returns the live expense set of a report.
func (r *ExpenseRepository) ListByReport(ctx context.Context, reportID int64) ([]*expenseDatamodel.Expense, error) {
	var expenses []*expenseDatamodel.Expense
	err := database.GetDB(ctx, r.db).
		Where("report_id = ?", reportID).
		Order("expense_date ASC").
		Order("id ASC").
		Find(&expenses).Error
	return expenses, err
}

// Update saves every column of the expense.
func (r *ExpenseRepository) Update(ctx context.Context, exp *expenseDatamodel.Expense) error {
	return database.GetDB(ctx, r.db).Save(exp).Error
}

func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	return database.GetDB(ctx, r.db).Delete(&expenseDatamodel.Expense{}, id).Error
}

// ListByReports returns the expenses of several reports in one query.
func (r *ExpenseRepository) ListByReports(ctx context.Context, reportIDs []int64) ([]*expenseDatamodel.Expense, error) {
	var expenses []*expenseDatamodel.Expense
	if len(reportIDs) == 0 {
		return expenses, nil
	}
	err := database.GetDB(ctx, r.db).
		Where("report_id IN ?", reportIDs).
		Find(&expenses).Error
	return expenses, err
}

// AttachToReport assigns the expense to reportID only while it has no report.
// It reports false when another report already holds the expense.
func (r *ExpenseRepository) AttachToReport(ctx context.Context, id, reportID int64) (bool, error) {
	result := database.GetDB(ctx, r.db).
		Model(&expenseDatamodel.Expense{}).
		Where("id = ? AND report_id IS NULL", id).
		Update("report_id", reportID)
	return result.RowsAffected == 1, result.Error
}

// DetachFromReport clears the report of an expense currently held by reportID.
func (r *ExpenseRepository) DetachFromReport(ctx context.Context, id, reportID int64) (bool, error) {
	result := database.GetDB(ctx, r.db).
		Model(&expenseDatamodel.Expense{}).
		Where("id = ? AND report_id = ?", id, reportID).
		Update("report_id", nil)
	return result.RowsAffected == 1, result.Error
}

// SetStatusByReport moves every expense of a report to status in one statement.
func (r *ExpenseRepository) SetStatusByReport(ctx context.Context, reportID int64, status string) (int64, error) {
	result := database.GetDB(ctx, r.db).
		Model(&expenseDatamodel.Expense{}).
		Where("report_id = ?", reportID).
		Update("status", status)
	return result.RowsAffected, result.Error
}

package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	refundDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/refund"
	tripDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/trip"
	"github.com/frahmantamala/expense-reporting/internal/statistics"
)

// StatisticsRepository runs the aggregate read queries with sqlx. Queries are written with
// ? placeholders and rebound for the connected driver.
type StatisticsRepository struct {
	db *sqlx.DB
}

func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

func (r *StatisticsRepository) sqlite() bool {
	return strings.HasPrefix(r.db.DriverName(), "sqlite")
}

func (r *StatisticsRepository) yearExpr(col string) string {
	if r.sqlite() {
		return "CAST(strftime('%Y', " + col + ") AS INTEGER)"
	}
	return "CAST(EXTRACT(YEAR FROM " + col + ") AS INTEGER)"
}

func (r *StatisticsRepository) monthExpr(col string) string {
	if r.sqlite() {
		return "CAST(strftime('%m', " + col + ") AS INTEGER)"
	}
	return "CAST(EXTRACT(MONTH FROM " + col + ") AS INTEGER)"
}

// scoped appends an owner filter to a WHERE clause.
func scoped(where string, col string, scope statistics.Scope, args []interface{}) (string, []interface{}) {
	if scope.UserID == nil {
		return where, args
	}
	if where == "" {
		return " WHERE " + col + " = ?", append(args, *scope.UserID)
	}
	return where + " AND " + col + " = ?", append(args, *scope.UserID)
}

func (r *StatisticsRepository) Overview(ctx context.Context, scope statistics.Scope, rng statistics.Range) (statistics.OverviewRow, error) {
	var row statistics.OverviewRow

	where, args := scoped(" WHERE expense_date >= ? AND expense_date < ?", "user_id", scope,
		[]interface{}{rng.Start, rng.End})
	expenseQuery := `SELECT CAST(COALESCE(SUM(amount), 0) AS BIGINT) AS total_spent,
		COUNT(*) AS expenses_count
		FROM expenses` + where
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(expenseQuery), args...); err != nil {
		return row, err
	}

	where, args = scoped("", "user_id", scope, []interface{}{tripDatamodel.StatusActive, tripDatamodel.StatusCompleted})
	tripQuery := `SELECT COUNT(*) AS trips_count,
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active_trips,
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed_trips
		FROM trips` + where
	var trips struct {
		TripsCount     int64 `db:"trips_count"`
		ActiveTrips    int64 `db:"active_trips"`
		CompletedTrips int64 `db:"completed_trips"`
	}
	if err := r.db.GetContext(ctx, &trips, r.db.Rebind(tripQuery), args...); err != nil {
		return row, err
	}
	row.TripsCount = trips.TripsCount
	row.ActiveTrips = trips.ActiveTrips
	row.CompletedTrips = trips.CompletedTrips

	where, args = scoped(" WHERE status = ?", "user_id", scope, []interface{}{refundDatamodel.StatusPending})
	refundQuery := `SELECT CAST(COALESCE(SUM(excess_amount - refunded_amount), 0) AS BIGINT)
		FROM refunds` + where
	if err := r.db.GetContext(ctx, &row.PendingRefunds, r.db.Rebind(refundQuery), args...); err != nil {
		return row, err
	}

	return row, nil
}

func (r *StatisticsRepository) ByCategory(ctx context.Context, scope statistics.Scope, rng statistics.Range) ([]statistics.CategoryRow, error) {
	where, args := scoped(" WHERE e.expense_date >= ? AND e.expense_date < ?", "e.user_id", scope,
		[]interface{}{rng.Start, rng.End})
	query := `SELECT c.id AS category_id, c.name AS category_name, COALESCE(c.color, '') AS color,
		CAST(SUM(e.amount) AS BIGINT) AS total_amount, COUNT(e.id) AS expenses_count
		FROM categories c
		JOIN expenses e ON e.category_id = c.id` + where + `
		GROUP BY c.id, c.name, c.color
		ORDER BY total_amount DESC, c.id ASC`

	rows := []statistics.CategoryRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *StatisticsRepository) MonthlyTrend(ctx context.Context, scope statistics.Scope, since time.Time) ([]statistics.MonthRow, error) {
	where, args := scoped(" WHERE expense_date >= ?", "user_id", scope, []interface{}{since})
	year, month := r.yearExpr("expense_date"), r.monthExpr("expense_date")
	query := `SELECT ` + year + ` AS period_year, ` + month + ` AS period_month,
		CAST(SUM(amount) AS BIGINT) AS total_amount, COUNT(*) AS expenses_count
		FROM expenses` + where + `
		GROUP BY ` + year + `, ` + month + `
		ORDER BY period_year ASC, period_month ASC`

	rows := []statistics.MonthRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *StatisticsRepository) TopUsers(ctx context.Context, limit int) ([]statistics.UserRow, error) {
	query := `SELECT u.id AS user_id, u.full_name, u.email,
		CAST(SUM(e.amount) AS BIGINT) AS total_amount, COUNT(e.id) AS expenses_count
		FROM users u
		JOIN expenses e ON e.user_id = u.id
		GROUP BY u.id, u.full_name, u.email
		ORDER BY total_amount DESC, u.id ASC
		LIMIT ?`

	rows := []statistics.UserRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), limit); err != nil {
		return nil, err
	}
	return rows, nil
}

// BudgetCompliance counts budgeted trips and those whose expenses stay within budget.
// Rejected expenses still count towards the spend.
func (r *StatisticsRepository) BudgetCompliance(ctx context.Context, scope statistics.Scope) (statistics.ComplianceRow, error) {
	where, args := scoped(" WHERE t.budget IS NOT NULL", "t.user_id", scope, nil)
	query := `SELECT COUNT(*) AS total_trips,
		COALESCE(SUM(CASE WHEN COALESCE(s.total, 0) <= t.budget THEN 1 ELSE 0 END), 0) AS within_budget
		FROM trips t
		LEFT JOIN (
			SELECT trip_id, SUM(amount) AS total
			FROM expenses
			WHERE trip_id IS NOT NULL
			GROUP BY trip_id
		) s ON s.trip_id = t.id` + where

	var row statistics.ComplianceRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...)
	return row, err
}

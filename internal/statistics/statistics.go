package statistics

import (
	"time"

	"github.com/frahmantamala/expense-reporting/internal/core/common/money"
)

const (
	DefaultRangeDays = 30

	DefaultMonths = 6
	MaxMonths     = 24

	DefaultTopUsers = 10
	MaxTopUsers     = 50
)

// Scope restricts a query to one user's records; a nil UserID means everyone.
type Scope struct {
	UserID *int64
}

// Range is a half-open [Start, End) window over expense dates.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange defaults to the last 30 days ending today. Both bounds are whole days and the
// end day is included.
func NewRange(now time.Time, start, end *time.Time) Range {
	today := truncateDay(now)
	r := Range{
		Start: today.AddDate(0, 0, -DefaultRangeDays),
		End:   today.AddDate(0, 0, 1),
	}
	if start != nil {
		r.Start = truncateDay(*start)
	}
	if end != nil {
		r.End = truncateDay(*end).AddDate(0, 0, 1)
	}
	return r
}

// LastDay is the inclusive end date reported back to clients.
func (r Range) LastDay() time.Time {
	return r.End.AddDate(0, 0, -1)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TrendStart is the first day of the oldest month covered by a trend of the given length.
func TrendStart(now time.Time, months int) time.Time {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(months - 1), 0)
}

type OverviewRow struct {
	TotalSpent     int64 `db:"total_spent"`
	ExpensesCount  int64 `db:"expenses_count"`
	TripsCount     int64 `db:"trips_count"`
	ActiveTrips    int64 `db:"active_trips"`
	CompletedTrips int64 `db:"completed_trips"`
	PendingRefunds int64 `db:"pending_refunds"`
}

type CategoryRow struct {
	CategoryID    int64  `db:"category_id"`
	CategoryName  string `db:"category_name"`
	Color         string `db:"color"`
	TotalAmount   int64  `db:"total_amount"`
	ExpensesCount int64  `db:"expenses_count"`
}

type MonthRow struct {
	Year          int   `db:"period_year"`
	Month         int   `db:"period_month"`
	TotalAmount   int64 `db:"total_amount"`
	ExpensesCount int64 `db:"expenses_count"`
}

type UserRow struct {
	UserID        int64  `db:"user_id"`
	FullName      string `db:"full_name"`
	Email         string `db:"email"`
	TotalAmount   int64  `db:"total_amount"`
	ExpensesCount int64  `db:"expenses_count"`
}

type ComplianceRow struct {
	TotalTrips   int64 `db:"total_trips"`
	WithinBudget int64 `db:"within_budget"`
}

type OverviewResponse struct {
	TotalSpent     int64  `json:"total_spent"`
	ExpensesCount  int64  `json:"expenses_count"`
	TripsCount     int64  `json:"trips_count"`
	ActiveTrips    int64  `json:"active_trips"`
	CompletedTrips int64  `json:"completed_trips"`
	PendingRefunds int64  `json:"pending_refunds"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
}

type CategoryResponse struct {
	CategoryID    int64   `json:"category_id"`
	CategoryName  string  `json:"category_name"`
	Color         string  `json:"color,omitempty"`
	TotalAmount   int64   `json:"total_amount"`
	ExpensesCount int64   `json:"expenses_count"`
	Percentage    float64 `json:"percentage"`
}

type MonthResponse struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	MonthName     string `json:"month_name"`
	TotalAmount   int64  `json:"total_amount"`
	ExpensesCount int64  `json:"expenses_count"`
}

type UserResponse struct {
	UserID        int64  `json:"user_id"`
	UserName      string `json:"user_name"`
	UserEmail     string `json:"user_email"`
	TotalAmount   int64  `json:"total_amount"`
	ExpensesCount int64  `json:"expenses_count"`
}

type ComplianceResponse struct {
	TotalTrips     int64   `json:"total_trips"`
	WithinBudget   int64   `json:"within_budget"`
	OverBudget     int64   `json:"over_budget"`
	ComplianceRate float64 `json:"compliance_rate"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

type TrendResponse struct {
	Months []MonthResponse `json:"months"`
}

type TopUsersResponse struct {
	Users []UserResponse `json:"users"`
}

func ToOverviewResponse(row OverviewRow, r Range) OverviewResponse {
	return OverviewResponse{
		TotalSpent:     row.TotalSpent,
		ExpensesCount:  row.ExpensesCount,
		TripsCount:     row.TripsCount,
		ActiveTrips:    row.ActiveTrips,
		CompletedTrips: row.CompletedTrips,
		PendingRefunds: row.PendingRefunds,
		StartDate:      r.Start.Format(time.DateOnly),
		EndDate:        r.LastDay().Format(time.DateOnly),
	}
}

// CategoryBreakdown attaches each category's share of the grand total.
func CategoryBreakdown(rows []CategoryRow) []CategoryResponse {
	var total int64
	for _, row := range rows {
		total += row.TotalAmount
	}

	out := make([]CategoryResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, CategoryResponse{
			CategoryID:    row.CategoryID,
			CategoryName:  row.CategoryName,
			Color:         row.Color,
			TotalAmount:   row.TotalAmount,
			ExpensesCount: row.ExpensesCount,
			Percentage:    money.Percentage(row.TotalAmount, total),
		})
	}
	return out
}

func ToMonthResponses(rows []MonthRow) []MonthResponse {
	out := make([]MonthResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, MonthResponse{
			Year:          row.Year,
			Month:         row.Month,
			MonthName:     time.Date(row.Year, time.Month(row.Month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006"),
			TotalAmount:   row.TotalAmount,
			ExpensesCount: row.ExpensesCount,
		})
	}
	return out
}

func ToUserResponses(rows []UserRow) []UserResponse {
	out := make([]UserResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, UserResponse{
			UserID:        row.UserID,
			UserName:      row.FullName,
			UserEmail:     row.Email,
			TotalAmount:   row.TotalAmount,
			ExpensesCount: row.ExpensesCount,
		})
	}
	return out
}

func ToComplianceResponse(row ComplianceRow) ComplianceResponse {
	return ComplianceResponse{
		TotalTrips:     row.TotalTrips,
		WithinBudget:   row.WithinBudget,
		OverBudget:     row.TotalTrips - row.WithinBudget,
		ComplianceRate: money.Percentage(row.WithinBudget, row.TotalTrips),
	}
}

package trip

import (
	"time"

	"github.com/frahmantamala/expense-reporting/internal/core/common/dates"
	"github.com/frahmantamala/expense-reporting/internal/core/common/money"
	tripDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/trip"
)

const (
	StatusActive    = tripDatamodel.StatusActive
	StatusCompleted = tripDatamodel.StatusCompleted
	StatusCancelled = tripDatamodel.StatusCancelled
)

type Trip struct {
	ID          int64
	UserID      int64
	Name        string
	Destination string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Budget      *int64
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t *Trip) IsCompleted() bool {
	return t.Status == StatusCompleted
}

func (t *Trip) IsCancelled() bool {
	return t.Status == StatusCancelled
}

// ExceedsBudget holds only when a budget is set and total spending is above it.
func (t *Trip) ExceedsBudget(total int64) bool {
	return t.Budget != nil && total > *t.Budget
}

// BudgetUsedPercentage is zero for a trip without a positive budget.
func BudgetUsedPercentage(budget *int64, total int64) float64 {
	if budget == nil {
		return 0
	}
	return money.Percentage(total, *budget)
}

func NewTrip(userID int64, dto CreateTripDTO) *Trip {
	now := time.Now()
	return &Trip{
		UserID:      userID,
		Name:        dto.Name,
		Destination: dto.Destination,
		Description: dto.Description,
		StartDate:   dto.StartDate.Time,
		EndDate:     dto.EndDate.Time,
		Budget:      dto.Budget,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (t *Trip) ToResponse(total int64) TripResponse {
	return TripResponse{
		ID:                   t.ID,
		UserID:               t.UserID,
		Name:                 t.Name,
		Destination:          t.Destination,
		Description:          t.Description,
		StartDate:            dates.New(t.StartDate),
		EndDate:              dates.New(t.EndDate),
		Budget:               t.Budget,
		Status:               t.Status,
		TotalExpenses:        total,
		BudgetUsedPercentage: BudgetUsedPercentage(t.Budget, total),
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

func ToDataModel(t *Trip) *tripDatamodel.Trip {
	return &tripDatamodel.Trip{
		ID:          t.ID,
		UserID:      t.UserID,
		Name:        t.Name,
		Destination: t.Destination,
		Description: t.Description,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Budget:      t.Budget,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromDataModel(t *tripDatamodel.Trip) *Trip {
	return &Trip{
		ID:          t.ID,
		UserID:      t.UserID,
		Name:        t.Name,
		Destination: t.Destination,
		Description: t.Description,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Budget:      t.Budget,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

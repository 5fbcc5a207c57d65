package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/expense-reporting/internal/core/database"
	reportDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/report"
	"github.com/frahmantamala/expense-reporting/internal/report"
	"gorm.io/gorm"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rep *reportDatamodel.Report) error {
	return database.GetDB(ctx, r.db).Create(rep).Error
}

func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*reportDatamodel.Report, error) {
	var rep reportDatamodel.Report
	err := database.GetDB(ctx, r.db).Where("id = ?", id).First(&rep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rep, nil
}

// GetByTrip returns the report linked to a trip, or nil.
func (r *ReportRepository) GetByTrip(ctx context.Context, tripID int64) (*reportDatamodel.Report, error) {
	var rep reportDatamodel.Report
	err := database.GetDB(ctx, r.db).Where("trip_id = ?", tripID).First(&rep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rep, nil
}

// List orders the approval queue by submission time and everything else by creation time.
func (r *ReportRepository) List(ctx context.Context, filter report.ListFilter) ([]*reportDatamodel.Report, error) {
	query := database.GetDB(ctx, r.db).Model(&reportDatamodel.Report{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Status == reportDatamodel.StatusSubmitted {
		query = query.Order("submitted_at DESC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var reports []*reportDatamodel.Report
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset(filter.Offset).
		Find(&reports).Error
	return reports, err
}

func (r *ReportRepository) Update(ctx context.Context, rep *reportDatamodel.Report) error {
	return database.GetDB(ctx, r.db).Save(rep).Error
}

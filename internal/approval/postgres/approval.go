package postgres

import (
	"context"

	"github.com/frahmantamala/expense-reporting/internal/core/database"
	approvalDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/approval"
	"gorm.io/gorm"
)

type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

func (r *ApprovalRepository) Create(ctx context.Context, a *approvalDatamodel.Approval) error {
	return database.GetDB(ctx, r.db).Create(a).Error
}

func (r *ApprovalRepository) ListByReport(ctx context.Context, reportID int64) ([]*approvalDatamodel.Approval, error) {
	var approvals []*approvalDatamodel.Approval
	err := database.GetDB(ctx, r.db).
		Where("report_id = ?", reportID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&approvals).Error
	return approvals, err
}

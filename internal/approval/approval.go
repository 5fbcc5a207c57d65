package approval

import (
	"strings"
	"time"

	approvalDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/approval"
)

type Decision struct {
	Comments *string `json:"comments,omitempty"`
}

// Normalize drops blank comments.
func (d *Decision) Normalize() {
	if d.Comments == nil {
		return
	}
	trimmed := strings.TrimSpace(*d.Comments)
	if trimmed == "" {
		d.Comments = nil
		return
	}
	d.Comments = &trimmed
}

type Response struct {
	ID         int64     `json:"id"`
	ReportID   int64     `json:"report_id"`
	ApproverID int64     `json:"approver_id"`
	Approved   bool      `json:"approved"`
	Comments   *string   `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
}

type HistoryResponse struct {
	Approvals []Response `json:"approvals"`
}

func ToResponse(a *approvalDatamodel.Approval) Response {
	return Response{
		ID:         a.ID,
		ReportID:   a.ReportID,
		ApproverID: a.ApproverID,
		Approved:   a.Approved,
		Comments:   a.Comments,
		CreatedAt:  a.CreatedAt,
	}
}

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/expense-reporting/internal/core/common/money"
)

const (
	FormatPDF   = "pdf"
	FormatExcel = "excel"

	dateLayout      = "02/01/2006"
	timestampLayout = "02/01/2006 15:04"
	notAvailable    = "N/A"
)

// Row is one expense line of an exported report.
type Row struct {
	Date        time.Time
	Category    string
	Description string
	Merchant    string
	Amount      int64
}

// Document is everything a renderer needs; renderers do no lookups of their own.
type Document struct {
	Title       string
	UserName    string
	TripName    string
	StartDate   *time.Time
	EndDate     *time.Time
	Currency    string
	GeneratedAt time.Time
	Rows        []Row
}

// File is a rendered export ready to be streamed.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (d Document) Heading() string {
	return "Expense Report - " + d.Title
}

func (d Document) Total() int64 {
	var total int64
	for _, row := range d.Rows {
		total += row.Amount
	}
	return total
}

func (d Document) Period() string {
	if d.StartDate == nil && d.EndDate == nil {
		return notAvailable
	}
	return orNA(formatDate(d.StartDate)) + " - " + orNA(formatDate(d.EndDate))
}

func (d Document) trip() string {
	return orNA(d.TripName)
}

func (d Document) countLabel() string {
	if len(d.Rows) == 1 {
		return "1 expense"
	}
	return fmt.Sprintf("%d expenses", len(d.Rows))
}

func (d Document) amount(minor int64) string {
	return strings.TrimSpace(d.Currency + " " + money.Format(minor))
}

// Render dispatches to the renderer for format. reportID only names the file.
func Render(format string, reportID int64, doc Document) (*File, error) {
	switch format {
	case FormatPDF:
		data, err := RenderPDF(doc)
		if err != nil {
			return nil, err
		}
		return &File{
			Filename:    fmt.Sprintf("report_%d.pdf", reportID),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	case FormatExcel:
		data, err := RenderExcel(doc)
		if err != nil {
			return nil, err
		}
		return &File{
			Filename:    fmt.Sprintf("report_%d.xlsx", reportID),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func ValidFormat(format string) bool {
	return format == FormatPDF || format == FormatExcel
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

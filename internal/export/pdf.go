package export

import (
	"bytes"

	"github.com/go-pdf/fpdf"
)

var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 25, "C"},
	{"Category", 32, "L"},
	{"Description", 50, "L"},
	{"Merchant", 35, "L"},
	{"Amount", 28, "R"},
}

// RenderPDF lays the document out on A4 pages.
func RenderPDF(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(37, 99, 235)
	pdf.CellFormat(0, 12, tr(doc.Heading()), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	info := [][2]string{
		{"User:", doc.UserName},
		{"Trip:", doc.trip()},
		{"Period:", doc.Period()},
		{"Generated:", doc.GeneratedAt.Format(timestampLayout)},
	}
	pdf.SetTextColor(55, 65, 81)
	for _, line := range info {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(35, 7, line[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, tr(line[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(30, 64, 175)
	pdf.CellFormat(0, 9, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(55, 65, 81)
	pdf.CellFormat(35, 7, "Expenses:", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, doc.countLabel(), "", 1, "L", false, 0, "")
	pdf.CellFormat(35, 7, "Total:", "", 0, "L", false, 0, "")
	pdf.SetTextColor(5, 150, 105)
	pdf.CellFormat(0, 7, doc.amount(doc.Total()), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(30, 64, 175)
	pdf.CellFormat(0, 9, "Expense Detail", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(37, 99, 235)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetDrawColor(209, 213, 219)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(17, 24, 39)
	pdf.SetFillColor(243, 244, 246)
	for i, row := range doc.Rows {
		values := []string{
			orNA(formatDate(&row.Date)),
			orNA(row.Category),
			truncate(row.Description, 30),
			truncate(orNA(row.Merchant), 20),
			doc.amount(row.Amount),
		}
		fill := i%2 == 1
		for j, col := range pdfColumns {
			pdf.CellFormat(col.width, 7, tr(values[j]), "1", 0, col.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

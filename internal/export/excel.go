package export

import (
	"github.com/frahmantamala/expense-reporting/internal/core/common/money"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Expense Report"

var excelHeaders = []string{"Date", "Category", "Description", "Merchant", "Amount"}

// RenderExcel writes the document as a single-sheet xlsx workbook.
func RenderExcel(doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	styles, err := newExcelStyles(f)
	if err != nil {
		return nil, err
	}

	if err := f.MergeCell(sheetName, "A1", "E1"); err != nil {
		return nil, err
	}
	set := func(cell string, value interface{}, style int) {
		if err != nil {
			return
		}
		if err = f.SetCellValue(sheetName, cell, value); err != nil {
			return
		}
		if style != 0 {
			err = f.SetCellStyle(sheetName, cell, cell, style)
		}
	}

	set("A1", doc.Heading(), styles.title)
	set("A3", "User:", styles.label)
	set("B3", doc.UserName, 0)
	set("A4", "Trip:", styles.label)
	set("B4", doc.trip(), 0)
	set("A5", "Period:", styles.label)
	set("B5", doc.Period(), 0)
	set("A6", "Generated:", styles.label)
	set("B6", doc.GeneratedAt.Format(timestampLayout), 0)
	set("A8", "Expenses:", styles.label)
	set("B8", doc.countLabel(), 0)
	set("A9", "Total:", styles.totalLabel)
	set("B9", money.Major(doc.Total()).InexactFloat64(), styles.total)
	if err != nil {
		return nil, err
	}
	if err := f.SetRowHeight(sheetName, 1, 30); err != nil {
		return nil, err
	}

	row := 12
	for i, header := range excelHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		set(cell, header, styles.header)
	}
	for _, r := range doc.Rows {
		row++
		values := []interface{}{
			orNA(formatDate(&r.Date)),
			orNA(r.Category),
			r.Description,
			orNA(r.Merchant),
			money.Major(r.Amount).InexactFloat64(),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			style := styles.body
			if i == len(values)-1 {
				style = styles.amount
			}
			set(cell, v, style)
		}
	}
	if err != nil {
		return nil, err
	}

	for col, width := range map[string]float64{"A": 14, "B": 20, "C": 40, "D": 26, "E": 16} {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type excelStyles struct {
	title, label, totalLabel, total, header, body, amount int
}

func newExcelStyles(f *excelize.File) (excelStyles, error) {
	var s excelStyles
	currency := `"$"#,##0.00`
	border := []excelize.Border{
		{Type: "left", Color: "D1D5DB", Style: 1},
		{Type: "right", Color: "D1D5DB", Style: 1},
		{Type: "top", Color: "D1D5DB", Style: 1},
		{Type: "bottom", Color: "D1D5DB", Style: 1},
	}

	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 16, Color: "2563EB"},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.label, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&s.totalLabel, &excelize.Style{Font: &excelize.Font{Bold: true, Color: "059669"}}},
		{&s.total, &excelize.Style{
			Font:         &excelize.Font{Bold: true, Size: 14, Color: "059669"},
			CustomNumFmt: &currency,
		}},
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2563EB"}},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    border,
		}},
		{&s.body, &excelize.Style{Border: border}},
		{&s.amount, &excelize.Style{Border: border, CustomNumFmt: &currency}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, err
		}
		*d.dst = id
	}
	return s, nil
}

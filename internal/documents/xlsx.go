package documents

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	headerRow    = 6
	currencyFmt  = `"R$" #,##0.00`
	headerFill   = "4F46E5"
	stripeFill   = "F8FAFC"
	totalFill    = "EEF2FF"
	lastColumn   = "H"
	defaultSheet = "Sheet1"
)

var (
	xlsxHeaders = []string{"#", "Código", "Produto", "Marca", "Quantidade", "Unidade", "Valor Unit.", "Valor Total"}
	xlsxWidths  = []float64{5, 15, 30, 15, 12, 12, 15, 15}
)

// XLSXRenderer writes documents as a single-sheet workbook.
type XLSXRenderer struct{}

// NewXLSXRenderer constructs an XLSXRenderer.
func NewXLSXRenderer() *XLSXRenderer { return &XLSXRenderer{} }

func sheetName(kind Kind) string {
	switch kind {
	case KindReturnNote:
		return "Nota de Retorno"
	case KindOrder:
		return "Pedido"
	default:
		return "Produtos"
	}
}

type xlsxStyles struct {
	title, header, text, stripeText, money, stripeMoney, totalLabel, totalMoney int
}

func newStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	numFmt := currencyFmt
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16, Color: headerFill}}},
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.text, &excelize.Style{}},
		{&s.stripeText, &excelize.Style{Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{stripeFill}}}},
		{&s.money, &excelize.Style{CustomNumFmt: &numFmt}},
		{&s.stripeMoney, &excelize.Style{
			CustomNumFmt: &numFmt,
			Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{stripeFill}},
		}},
		{&s.totalLabel, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&s.totalMoney, &excelize.Style{
			CustomNumFmt: &numFmt,
			Font:         &excelize.Font{Bold: true, Size: 12},
			Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{totalFill}},
		}},
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

// Render builds the workbook: title, client and reference rows, the styled
// header at row 6, one row per item and the grand total cell.
func (XLSXRenderer) Render(_ context.Context, doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := sheetName(doc.Kind)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, err
	}
	styles, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("xlsx styles: %w", err)
	}

	set := func(cell string, v any) {
		if err == nil {
			err = f.SetCellValue(sheet, cell, v)
		}
	}
	style := func(from, to string, id int) {
		if err == nil {
			err = f.SetCellStyle(sheet, from, to, id)
		}
	}

	set("A1", doc.Title)
	if err == nil {
		err = f.MergeCell(sheet, "A1", lastColumn+"1")
	}
	style("A1", "A1", styles.title)
	set("A2", "Cliente:")
	set("B2", doc.Client.DisplayName())
	set("A3", "Referência:")
	set("B3", doc.Reference)
	set("A4", "Data:")
	set("B4", doc.GeneratedAt.UTC().Format("02/01/2006"))
	if doc.EntityName != "" {
		set("D2", "Tabela:")
		set("E2", doc.EntityName)
	}

	for i, h := range xlsxHeaders {
		cell, cerr := excelize.CoordinatesToCellName(i+1, headerRow)
		if cerr != nil {
			return nil, cerr
		}
		set(cell, h)
	}
	style("A6", lastColumn+"6", styles.header)

	row := headerRow
	for i, r := range doc.Rows {
		row = headerRow + 1 + i
		n := fmt.Sprint(row)
		set("A"+n, r.Index)
		set("B"+n, r.Code)
		set("C"+n, r.Product)
		set("D"+n, r.Brand)
		set("E"+n, r.Quantity.InexactFloat64())
		set("F"+n, r.Unit)
		set("G"+n, r.UnitPrice.InexactFloat64())
		set("H"+n, r.Total.InexactFloat64())
		text, money := styles.text, styles.money
		if i%2 == 1 {
			text, money = styles.stripeText, styles.stripeMoney
		}
		style("A"+n, "F"+n, text)
		style("G"+n, "H"+n, money)
	}

	total := fmt.Sprint(row + 2)
	set("G"+total, doc.TotalLabel)
	set("H"+total, doc.Total.InexactFloat64())
	style("G"+total, "G"+total, styles.totalLabel)
	style("H"+total, "H"+total, styles.totalMoney)

	for i, w := range xlsxWidths {
		col, cerr := excelize.ColumnNumberToName(i + 1)
		if cerr != nil {
			return nil, cerr
		}
		if err == nil {
			err = f.SetColWidth(sheet, col, col, w)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

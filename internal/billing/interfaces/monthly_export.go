package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	billing "kitchen-billing/internal/billing/domain"
)

const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

var columnTitles = []string{"Name", "Adresse", "Preis", "Essen", "Zustellungen", "Zustellung", "Zusatz", "Gesamt"}

// PDFRenderer lays the report out as an A4 document.
type PDFRenderer struct {
	money *MoneyFormatter
}

// NewPDFRenderer constructs a PDFRenderer.
func NewPDFRenderer(money *MoneyFormatter) *PDFRenderer {
	if money == nil {
		money = DefaultMoneyFormatter()
	}
	return &PDFRenderer{money: money}
}

func (r *PDFRenderer) Format() string      { return FormatPDF }
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Render returns the PDF bytes.
func (r *PDFRenderer) Render(report billing.Report) ([]byte, error) {
	if err := r.money.valid(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(12, 14, 12)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("{nb}")
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 7, tr(report.Organization), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 6, tr(report.Title()), "B", 1, "L", false, 0, "")
		pdf.Ln(3)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Seite %d / {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	widths := []float64{38, 52, 14, 12, 18, 18, 16, 18}
	aligns := []string{"L", "L", "R", "R", "R", "R", "R", "R"}

	if report.Empty() {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr("Keine Bestellungen in diesem Monat."), "", 1, "L", false, 0, "")
	}
	for _, section := range report.Sections {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 7, tr(section.Title), "", 1, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 8)
		pdf.SetFillColor(220, 220, 220)
		for i, title := range columnTitles {
			pdf.CellFormat(widths[i], 6, tr(title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		pdf.SetFillColor(245, 245, 245)
		for i, row := range section.Rows {
			cells := []string{
				row.Name,
				strings.ReplaceAll(row.Address, "\n", ", "),
				r.money.Amount(row.UnitPrice),
				r.money.Integer(row.Quantity),
				r.money.Integer(row.DeliveryCount),
				r.money.Amount(row.DeliveryAmount()),
				r.money.Amount(row.AdditionalCharges),
				r.money.Amount(row.Total),
			}
			fill := i%2 == 1
			for j, cell := range cells {
				pdf.CellFormat(widths[j], 5.5, tr(fitText(pdf, cell, widths[j])), "1", 0, aligns[j], fill, 0, "")
			}
			pdf.Ln(-1)
		}
		r.totalsLine(pdf, tr, widths, "Summe "+section.Title, section.Totals)
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, tr("Gesamtsumme: "+r.money.Money(report.Totals.Total)), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) totalsLine(pdf *gofpdf.Fpdf, tr func(string) string, widths []float64, label string, totals billing.Totals) {
	pdf.SetFont("Arial", "B", 8)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 6, tr(label), "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[3], 6, r.money.Integer(totals.Quantity), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 6, r.money.Integer(totals.Deliveries), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[5], 6, r.money.Amount(totals.DeliveryAmount), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[6], 6, r.money.Amount(totals.AdditionalCharges), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[7], 6, r.money.Amount(totals.Total), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
}

func fitText(pdf *gofpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// XLSXRenderer writes one worksheet with all sections.
type XLSXRenderer struct{}

// NewXLSXRenderer constructs an XLSXRenderer.
func NewXLSXRenderer() *XLSXRenderer { return &XLSXRenderer{} }

func (r *XLSXRenderer) Format() string { return FormatXLSX }
func (r *XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// SheetName is the worksheet holding the report.
const SheetName = "Sammelabrechnung"

// Render returns the XLSX bytes.
func (r *XLSXRenderer) Render(report billing.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", SheetName)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	_ = f.SetCellValue(SheetName, "A1", report.Organization)
	_ = f.SetCellValue(SheetName, "A2", report.Title())
	_ = f.SetCellStyle(SheetName, "A1", "A2", bold)

	line := 4
	for _, section := range report.Sections {
		_ = f.SetCellValue(SheetName, cell("A", line), section.Title)
		_ = f.SetCellStyle(SheetName, cell("A", line), cell("A", line), bold)
		line++
		for i, title := range columnTitles {
			col, _ := excelize.ColumnNumberToName(i + 1)
			_ = f.SetCellValue(SheetName, cell(col, line), title)
		}
		_ = f.SetCellStyle(SheetName, cell("A", line), cell("H", line), bold)
		line++
		for _, row := range section.Rows {
			_ = f.SetCellValue(SheetName, cell("A", line), row.Name)
			_ = f.SetCellValue(SheetName, cell("B", line), strings.ReplaceAll(row.Address, "\n", ", "))
			_ = f.SetCellValue(SheetName, cell("C", line), row.UnitPrice.InexactFloat64())
			_ = f.SetCellValue(SheetName, cell("D", line), row.Quantity)
			_ = f.SetCellValue(SheetName, cell("E", line), row.DeliveryCount)
			_ = f.SetCellValue(SheetName, cell("F", line), row.DeliveryAmount().InexactFloat64())
			_ = f.SetCellValue(SheetName, cell("G", line), row.AdditionalCharges.InexactFloat64())
			_ = f.SetCellValue(SheetName, cell("H", line), row.Total.InexactFloat64())
			_ = f.SetCellStyle(SheetName, cell("C", line), cell("C", line), money)
			_ = f.SetCellStyle(SheetName, cell("F", line), cell("H", line), money)
			line++
		}
		writeTotals(f, line, "Summe "+section.Title, section.Totals, bold, money)
		line += 2
	}
	writeTotals(f, line, "Gesamtsumme", report.Totals, bold, money)

	_ = f.SetColWidth(SheetName, "A", "A", 28)
	_ = f.SetColWidth(SheetName, "B", "B", 40)
	_ = f.SetColWidth(SheetName, "C", "H", 13)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTotals(f *excelize.File, line int, label string, totals billing.Totals, bold, money int) {
	_ = f.SetCellValue(SheetName, cell("A", line), label)
	_ = f.SetCellValue(SheetName, cell("D", line), totals.Quantity)
	_ = f.SetCellValue(SheetName, cell("E", line), totals.Deliveries)
	_ = f.SetCellValue(SheetName, cell("F", line), totals.DeliveryAmount.InexactFloat64())
	_ = f.SetCellValue(SheetName, cell("G", line), totals.AdditionalCharges.InexactFloat64())
	_ = f.SetCellValue(SheetName, cell("H", line), totals.Total.InexactFloat64())
	_ = f.SetCellStyle(SheetName, cell("A", line), cell("H", line), bold)
	_ = f.SetCellStyle(SheetName, cell("F", line), cell("H", line), money)
}

func cell(col string, line int) string {
	return fmt.Sprintf("%s%d", col, line)
}

// CSVRenderer writes one semicolon separated line per row.
type CSVRenderer struct{}

// NewCSVRenderer constructs a CSVRenderer.
func NewCSVRenderer() *CSVRenderer { return &CSVRenderer{} }

func (r *CSVRenderer) Format() string      { return FormatCSV }
func (r *CSVRenderer) ContentType() string { return "text/csv; charset=utf-8" }

// Render returns the CSV bytes. Amounts use a dot as decimal separator.
func (r *CSVRenderer) Render(report billing.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	header := append([]string{"Kategorie"}, columnTitles...)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, section := range report.Sections {
		for _, row := range section.Rows {
			record := []string{
				section.Title,
				row.Name,
				strings.ReplaceAll(row.Address, "\n", ", "),
				row.UnitPrice.StringFixed(2),
				fmt.Sprint(row.Quantity),
				fmt.Sprint(row.DeliveryCount),
				row.DeliveryAmount().StringFixed(2),
				row.AdditionalCharges.StringFixed(2),
				row.Total.StringFixed(2),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}
	if err := w.Write([]string{"Gesamt", "", "", "", fmt.Sprint(report.Totals.Quantity), fmt.Sprint(report.Totals.Deliveries),
		report.Totals.DeliveryAmount.StringFixed(2), report.Totals.AdditionalCharges.StringFixed(2), report.Totals.Total.StringFixed(2)}); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	billing "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/domain"
)

// BuildInvoicePDF renders a minimal PDF for a card invoice.
func BuildInvoicePDF(invoice *billing.Invoice, items []*billing.Purchase) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Card Invoice")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Card: %s", invoice.CardID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Competency: %s", invoice.Competency))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", invoice.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Due: %s", invoice.DueDate.Format("2006-01-02")))
	pdf.Ln(5)
	if invoice.Status != billing.InvoiceStatusOpen {
		pdf.Cell(0, 6, fmt.Sprintf("Closed Amount: %s", invoice.ClosedAmount.StringFixed(2)))
		pdf.Ln(5)
	}
	if invoice.Status == billing.InvoiceStatusPaid {
		pdf.Cell(0, 6, fmt.Sprintf("Paid Amount: %s", invoice.PaidAmount.StringFixed(2)))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Paid: %s from %s", invoice.PaidDate.Format("2006-01-02"), invoice.PaidFromID))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	// Items table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(90, 6, "Description", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Part", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, item := range items {
		pdf.CellFormat(30, 6, item.PurchaseDate.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(90, 6, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d/%d", item.InstallmentSeq, item.InstallmentTotal), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, item.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildInvoiceXLSX renders a minimal XLSX for a card invoice.
func BuildInvoiceXLSX(invoice *billing.Invoice, items []*billing.Purchase) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	itemsSheet := "items"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(itemsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Card Invoice")
	_ = f.SetCellValue(summarySheet, "A3", "Card")
	_ = f.SetCellValue(summarySheet, "B3", invoice.CardID)
	_ = f.SetCellValue(summarySheet, "A4", "Competency")
	_ = f.SetCellValue(summarySheet, "B4", invoice.Competency.String())
	_ = f.SetCellValue(summarySheet, "A5", "Status")
	_ = f.SetCellValue(summarySheet, "B5", invoice.Status)
	_ = f.SetCellValue(summarySheet, "A6", "Due Date")
	_ = f.SetCellValue(summarySheet, "B6", invoice.DueDate.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A7", "Closed Amount")
	_ = f.SetCellValue(summarySheet, "B7", invoice.ClosedAmount.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A8", "Paid Amount")
	_ = f.SetCellValue(summarySheet, "B8", invoice.PaidAmount.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A9", "Paid From")
	_ = f.SetCellValue(summarySheet, "B9", invoice.PaidFromID)

	_ = f.SetCellValue(itemsSheet, "A1", "Date")
	_ = f.SetCellValue(itemsSheet, "B1", "Description")
	_ = f.SetCellValue(itemsSheet, "C1", "Part")
	_ = f.SetCellValue(itemsSheet, "D1", "Amount")
	for i, item := range items {
		row := i + 2
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), item.PurchaseDate.Format("2006-01-02"))
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), item.Description)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), fmt.Sprintf("%d/%d", item.InstallmentSeq, item.InstallmentTotal))
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), item.Amount.StringFixed(2))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

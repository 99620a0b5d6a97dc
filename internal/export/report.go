// Package export renders audit-session reports for download.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/akozyrev/stocktake/internal/models"
)

// Format names a supported report format.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatCSV Format = "csv"
)

// ErrUnsupportedFormat is returned for any format other than pdf or csv.
var ErrUnsupportedFormat = fmt.Errorf("unsupported export format")

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}

// Report writes the session report in the requested format.
func Report(w io.Writer, format Format, sess *models.AuditSession, logs []models.AuditLog) error {
	switch format {
	case FormatPDF:
		return pdfReport(w, sess, logs)
	case FormatCSV:
		return csvReport(w, sess, logs)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

const timeLayout = "2006-01-02 15:04:05"

func pdfReport(w io.Writer, sess *models.AuditSession, logs []models.AuditLog) error {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Inventory Audit Report - Session %s", sess.SessionID))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	line := func(s string) {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}
	line(fmt.Sprintf("User: %s", sess.User))
	line(fmt.Sprintf("Start Time: %s", sess.StartTime.Format(timeLayout)))
	if sess.EndTime != nil {
		line(fmt.Sprintf("End Time: %s", sess.EndTime.Format(timeLayout)))
	}
	line(fmt.Sprintf("Items Scanned: %d", sess.ItemsScanned))
	line(fmt.Sprintf("Discrepancies Found: %d", sess.DiscrepanciesFound))
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	line("Audit Log:")

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range logs {
		line(fmt.Sprintf("%s - %s (%s)", l.Timestamp.Format(timeLayout), l.ItemName, l.ItemSKU))
		line(fmt.Sprintf("    Action: %s, Old: %d, New: %d, Discrepancy: %d",
			l.Action, l.OldQuantity, l.NewQuantity, l.Discrepancy))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func csvReport(w io.Writer, sess *models.AuditSession, logs []models.AuditLog) error {
	cw := csv.NewWriter(w)

	endTime := "Active"
	if sess.EndTime != nil {
		endTime = sess.EndTime.Format(timeLayout)
	}
	header := [][]string{
		{"Session Info"},
		{"Session ID", sess.SessionID},
		{"User", sess.User},
		{"Start Time", sess.StartTime.Format(timeLayout)},
		{"End Time", endTime},
		{"Items Scanned", strconv.Itoa(sess.ItemsScanned)},
		{"Discrepancies Found", strconv.Itoa(sess.DiscrepanciesFound)},
		{},
		{"Audit Logs"},
		{"Timestamp", "Item Name", "SKU", "Action", "Old Quantity", "New Quantity", "Discrepancy", "Notes"},
	}
	for _, row := range header {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}

	for _, l := range logs {
		row := []string{
			l.Timestamp.Format(timeLayout),
			l.ItemName,
			l.ItemSKU,
			l.Action,
			strconv.Itoa(l.OldQuantity),
			strconv.Itoa(l.NewQuantity),
			strconv.Itoa(l.Discrepancy),
			l.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename returns the download name for a session report.
func Filename(sessionID string, format Format) string {
	return fmt.Sprintf("audit_report_%s.%s", sessionID, format)
}

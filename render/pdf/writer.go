/*
Package pdf materializes laid-out quotation pages as PDF files.

PURPOSE:
  Implements engine.DocumentWriter on gofpdf. Pagination is decided by the
  layout engine; this writer draws exactly the pages it is given and never
  breaks pages itself.

FILE NAMING:
  One file per (number, version), named Cotizacion_{number}_v{version}.pdf
  so a later lookup can locate the document without consulting the store.

SEE ALSO:
  - engine/layout.go: Produces the Page sequence drawn here
*/
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/lumen/quotation-engine/engine"
)

// column widths of the item table, in mm. Description gets the remainder.
var colWidths = [4]float64{90, 20, 30, 30}

// Writer renders page sequences into a directory of PDF files.
type Writer struct {
	Dir    string
	Images engine.ImageResolver
}

func NewWriter(dir string, images engine.ImageResolver) *Writer {
	return &Writer{Dir: dir, Images: images}
}

// Filename is the deterministic document name for a record.
func Filename(number string, version int) string {
	return fmt.Sprintf("Cotizacion_%s_v%d.pdf", number, version)
}

// Write draws every page and stores the result under Dir.
func (w *Writer) Write(_ context.Context, record engine.QuotationRecord, pages []engine.Page) (string, error) {
	if len(pages) == 0 {
		return "", fmt.Errorf("no pages to write for %s", record.Key())
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", err
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Cotización %s", record.Number), true)
	doc.SetAutoPageBreak(false, 0)
	// Core fonts are cp1252; translate the UTF-8 strings we draw.
	tr := doc.UnicodeTranslatorFromDescriptor("")

	symbol := record.Currency.Symbol()
	for _, page := range pages {
		doc.AddPage()
		w.drawHeader(doc, tr, page.Header)
		if len(page.Rows) > 0 {
			w.drawTableHeader(doc, tr)
			for _, row := range page.Rows {
				w.drawRow(doc, tr, row, symbol)
			}
		}
		if page.Totals != nil {
			w.drawTotals(doc, tr, *page.Totals)
		}
		w.drawFooter(doc, tr, page.Footer)
	}
	if err := doc.Error(); err != nil {
		return "", err
	}

	path := filepath.Join(w.Dir, Filename(record.Number, record.Version))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := doc.Output(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (w *Writer) drawHeader(doc *gofpdf.Fpdf, tr func(string) string, h engine.Header) {
	if h.Company.LogoRef != "" && w.Images != nil && w.Images.Exists(h.Company.LogoRef) {
		if data, err := w.Images.Read(h.Company.LogoRef); err == nil {
			opts := gofpdf.ImageOptions{ImageType: imageType(h.Company.LogoRef), ReadDpi: true}
			doc.RegisterImageOptionsReader(h.Company.LogoRef, opts, bytes.NewReader(data))
			doc.ImageOptions(h.Company.LogoRef, 10, 8, 30, 0, false, opts, 0, "")
		} else {
			log.Printf("pdf: logo %s unreadable: %v", h.Company.LogoRef, err)
		}
	}

	doc.SetXY(45, 10)
	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 8, tr(h.Company.Name), "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	if h.Company.TaxID != "" {
		doc.SetX(45)
		doc.CellFormat(0, 5, tr("RUC: "+h.Company.TaxID), "", 1, "L", false, 0, "")
	}
	if h.Company.Address != "" {
		doc.SetX(45)
		doc.CellFormat(0, 5, tr("Dirección: "+h.Company.Address), "", 1, "L", false, 0, "")
	}

	doc.Ln(5)
	doc.SetFont("Helvetica", "B", 15)
	title := fmt.Sprintf("Cotización N°: %s", h.Number)
	if h.Version > 1 {
		title = fmt.Sprintf("%s (rev. %d)", title, h.Version)
	}
	doc.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")

	doc.SetDrawColor(200, 200, 200)
	doc.SetLineWidth(0.2)
	doc.Line(10, doc.GetY(), 200, doc.GetY())
	doc.Ln(3)

	doc.SetFont("Helvetica", "", 11)
	doc.SetTextColor(40, 40, 40)
	doc.CellFormat(0, 6, tr("Fecha: "+h.Date), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, tr("Cliente: "+h.Client.Name), "", 1, "L", false, 0, "")
	if h.Client.TaxID != "" {
		doc.CellFormat(0, 6, tr("RUC: "+h.Client.TaxID), "", 1, "L", false, 0, "")
	}
	if h.Client.Address != "" {
		doc.CellFormat(0, 6, tr("Dirección: "+h.Client.Address), "", 1, "L", false, 0, "")
	}
	if h.Client.Email != "" {
		doc.CellFormat(0, 6, tr("Email: "+h.Client.Email), "", 1, "L", false, 0, "")
	}
	doc.Ln(4)
}

func (w *Writer) drawTableHeader(doc *gofpdf.Fpdf, tr func(string) string) {
	doc.SetFont("Helvetica", "B", 11)
	doc.SetFillColor(240, 240, 240)
	doc.SetDrawColor(200, 200, 200)
	doc.SetTextColor(30, 30, 30)
	headers := [4]string{"Descripción", "Cant.", "Precio", "Subtotal"}
	for i, hd := range headers {
		doc.CellFormat(colWidths[i], 8, tr(hd), "1", 0, "C", true, 0, "")
	}
	doc.Ln(-1)
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(50, 50, 50)
}

func (w *Writer) drawRow(doc *gofpdf.Fpdf, tr func(string) string, row engine.RenderedRow, symbol string) {
	x, y := doc.GetXY()

	textHeight := 6 * float64(len(row.Lines))
	for _, line := range row.Lines {
		doc.SetX(x)
		doc.CellFormat(colWidths[0], 6, tr(line), "LR", 1, "L", false, 0, "")
	}

	if row.HasImage {
		imgY := doc.GetY()
		if w.Images != nil {
			if data, err := w.Images.Read(row.Item.ImageRef); err == nil {
				opts := gofpdf.ImageOptions{ImageType: imageType(row.Item.ImageRef), ReadDpi: true}
				doc.RegisterImageOptionsReader(row.Item.ImageRef, opts, bytes.NewReader(data))
				doc.ImageOptions(row.Item.ImageRef, x+1, imgY+1, 0, row.Height-textHeight-2, false, opts, 0, "")
			} else {
				log.Printf("pdf: image %s unreadable: %v", row.Item.ImageRef, err)
			}
		}
		doc.SetXY(x, imgY)
		doc.CellFormat(colWidths[0], row.Height-textHeight, "", "LR", 1, "L", false, 0, "")
	}

	// Close the description cell and draw the numeric columns at full
	// row height so the borders line up.
	doc.SetXY(x, y)
	doc.CellFormat(colWidths[0], row.Height, "", "1", 0, "L", false, 0, "")
	doc.CellFormat(colWidths[1], row.Height, row.Item.Quantity.StringFixed(2), "1", 0, "R", false, 0, "")
	doc.CellFormat(colWidths[2], row.Height, tr(symbol+" "+row.Item.UnitPrice.StringFixed(2)), "1", 0, "R", false, 0, "")
	doc.CellFormat(colWidths[3], row.Height, tr(symbol+" "+row.Item.Subtotal.StringFixed(2)), "1", 1, "R", false, 0, "")
}

func (w *Writer) drawTotals(doc *gofpdf.Fpdf, tr func(string) string, t engine.TotalsBlock) {
	doc.Ln(5)
	tableWidth := colWidths[0] + colWidths[1] + colWidths[2] + colWidths[3]
	labelW, valueW := 80.0, 30.0
	startX := 10 + tableWidth - (labelW + valueW)

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(40, 40, 40)

	doc.SetX(startX)
	doc.CellFormat(labelW, 8, "SUBTOTAL:", "", 0, "R", false, 0, "")
	doc.CellFormat(valueW, 8, tr(t.Subtotal), "1", 1, "R", false, 0, "")

	if t.HasDiscount {
		doc.SetX(startX)
		doc.CellFormat(labelW, 8, "DESCUENTO:", "", 0, "R", false, 0, "")
		doc.CellFormat(valueW, 8, tr(t.Discount), "1", 1, "R", false, 0, "")
	}
	if t.TaxIncluded {
		doc.SetX(startX)
		doc.CellFormat(labelW, 8, "IGV:", "", 0, "R", false, 0, "")
		doc.CellFormat(valueW, 8, tr(t.TaxAmount), "1", 1, "R", false, 0, "")
	}

	doc.SetX(startX)
	doc.SetFont("Helvetica", "B", 11)
	doc.SetFillColor(230, 230, 250)
	doc.CellFormat(labelW, 8, "TOTAL:", "", 0, "R", true, 0, "")
	doc.CellFormat(valueW, 8, tr(t.Total), "1", 1, "R", true, 0, "")

	if t.Terms != "" {
		doc.Ln(10)
		doc.SetFont("Helvetica", "B", 11)
		doc.SetTextColor(40, 40, 40)
		doc.CellFormat(0, 6, tr("Términos y Condiciones:"), "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 9)
		doc.SetTextColor(50, 50, 50)
		doc.MultiCell(0, 5, tr(t.Terms), "", "L", false)
	}
}

func (w *Writer) drawFooter(doc *gofpdf.Fpdf, tr func(string) string, f engine.Footer) {
	doc.SetY(-15)
	doc.SetFont("Helvetica", "I", 8)
	doc.SetTextColor(100, 100, 100)
	doc.CellFormat(0, 10, tr(fmt.Sprintf("Página %d de %d", f.PageNumber, f.TotalPages)), "", 0, "C", false, 0, "")
}

func imageType(ref string) string {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".jpg", ".jpeg":
		return "JPG"
	default:
		return "PNG"
	}
}

/*
layout.go - Multi-page document layout

PURPOSE:
  Converts a finalized quotation record into an ordered sequence of page
  descriptions: a header repeated on every page, item rows of variable
  measured height, a totals block on the final page, and a footer carrying
  the page count.

ALGORITHM (two-pass):
  Pass 1 - measure and pack:
    Each row's height is the base row height plus one line height per
    extra description line, plus a fixed thumbnail height when an image is
    attached. Rows accumulate greedily into the page body; when the next
    row would overflow the remaining body height a new page starts. A row
    taller than the body gets a dedicated page; it is an error only when
    it exceeds the printable height even alone. The totals block lands
    below the last row, spilling to its own page when it does not fit.
  Pass 2 - stamp:
    The total page count is known only after packing, so footers are
    stamped in a second pass.

DETERMINISM:
  Layout is a pure function of the record and the page geometry. The same
  input always yields the same page sequence.
*/
package engine

// =============================================================================
// GEOMETRY
// =============================================================================

type Margins struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// PageSpec is the page geometry and row metrics, in document units
// (millimetres for the PDF writer).
type PageSpec struct {
	Width  float64
	Height float64
	Margin Margins

	// LineHeight is the height of one text line inside a row.
	LineHeight float64
	// BaseRowHeight is the height of a single-line row including padding.
	BaseRowHeight float64
	// ThumbnailHeight is added once when a row carries an image.
	ThumbnailHeight float64
}

// A4Spec is the default geometry: A4 portrait in millimetres.
func A4Spec() PageSpec {
	return PageSpec{
		Width:  210,
		Height: 297,
		Margin: Margins{Top: 10, Bottom: 15, Left: 10, Right: 10},

		LineHeight:      6,
		BaseRowHeight:   6,
		ThumbnailHeight: 30,
	}
}

// Printable is the height available between the vertical margins.
func (s PageSpec) Printable() float64 {
	return s.Height - s.Margin.Top - s.Margin.Bottom
}

// =============================================================================
// PAGE MODEL
// =============================================================================

// Header is computed once per document and repeated unmodified on every
// page.
type Header struct {
	Company CompanyProfile
	Client  Client
	Number  string
	Version int
	Date    string
	Height  float64
}

// RenderedRow is one measured item row. Lines preserves the original line
// breaks of the description.
type RenderedRow struct {
	Index    int
	Item     ItemLine
	Lines    []string
	HasImage bool
	Height   float64
}

// TotalsBlock renders on the final page only, below the last item row.
type TotalsBlock struct {
	Symbol      string
	Subtotal    string
	Discount    string
	TaxAmount   string
	Total       string
	TaxIncluded bool
	HasDiscount bool
	Terms       string
	Height      float64
}

type Footer struct {
	PageNumber int
	TotalPages int
	Height     float64
}

type Page struct {
	Header Header
	Rows   []RenderedRow
	Totals *TotalsBlock
	Footer Footer
}

// =============================================================================
// LAYOUT ENGINE
// =============================================================================

// LayoutEngine lays quotation records out into page sequences.
type LayoutEngine struct {
	Company CompanyProfile
	// Images is consulted so rows reserve thumbnail space only for
	// resolvable references. A nil resolver reserves space for every
	// non-empty reference.
	Images ImageResolver
}

func NewLayoutEngine(company CompanyProfile, images ImageResolver) *LayoutEngine {
	return &LayoutEngine{Company: company, Images: images}
}

const (
	headerBaseLines  = 4 // company name, title, date, spacing
	footerLineCount  = 1
	totalsLineHeight = 8
	termsLineHeight  = 5
)

// Layout produces the full page sequence for record under spec.
func (e *LayoutEngine) Layout(record QuotationRecord, spec PageSpec) ([]Page, error) {
	header := e.buildHeader(record, spec)
	footerHeight := float64(footerLineCount) * spec.LineHeight
	body := spec.Printable() - header.Height - footerHeight

	rows, err := e.measureRows(record, spec, body)
	if err != nil {
		return nil, err
	}
	totals := buildTotals(record, spec)

	// Pass 1: pack rows.
	var pages []Page
	current := Page{Header: header}
	remaining := body
	for _, row := range rows {
		if row.Height > remaining && len(current.Rows) > 0 {
			pages = append(pages, current)
			current = Page{Header: header}
			remaining = body
		}
		current.Rows = append(current.Rows, row)
		remaining -= row.Height
	}

	// Totals below the last row, or on a dedicated page when they do not
	// fit in what remains.
	if totals.Height <= remaining {
		current.Totals = &totals
		pages = append(pages, current)
	} else {
		pages = append(pages, current)
		pages = append(pages, Page{Header: header, Totals: &totals})
	}

	// Pass 2: stamp the now-known page count into every footer.
	for i := range pages {
		pages[i].Footer = Footer{
			PageNumber: i + 1,
			TotalPages: len(pages),
			Height:     footerHeight,
		}
	}
	return pages, nil
}

func (e *LayoutEngine) buildHeader(record QuotationRecord, spec PageSpec) Header {
	lines := headerBaseLines
	for _, s := range []string{e.Company.TaxID, e.Company.Address} {
		if s != "" {
			lines++
		}
	}
	for _, s := range []string{record.Client.Name, record.Client.Address, record.Client.TaxID, record.Client.Email} {
		if s != "" {
			lines++
		}
	}
	return Header{
		Company: e.Company,
		Client:  record.Client,
		Number:  record.Number,
		Version: record.Version,
		Date:    record.CreatedAt,
		Height:  float64(lines) * spec.LineHeight,
	}
}

func (e *LayoutEngine) measureRows(record QuotationRecord, spec PageSpec, body float64) ([]RenderedRow, error) {
	printable := spec.Printable()
	rows := make([]RenderedRow, 0, len(record.Items))
	for i, item := range record.Items {
		lines := item.DescriptionLines()
		hasImage := item.ImageRef != "" && (e.Images == nil || e.Images.Exists(item.ImageRef))
		height := spec.BaseRowHeight + float64(len(lines)-1)*spec.LineHeight
		if hasImage {
			height += spec.ThumbnailHeight
		}
		// A row may exceed the shared body height if it fits a dedicated
		// page on its own; beyond that it cannot be rendered at all.
		if height > printable {
			return nil, &RowTooLargeError{
				Index:       i,
				Description: item.SummaryDescription(),
				RowHeight:   height,
				Printable:   printable,
			}
		}
		rows = append(rows, RenderedRow{
			Index:    i,
			Item:     item,
			Lines:    lines,
			HasImage: hasImage,
			Height:   height,
		})
	}
	return rows, nil
}

func buildTotals(record QuotationRecord, spec PageSpec) TotalsBlock {
	symbol := record.Currency.Symbol()
	block := TotalsBlock{
		Symbol:      symbol,
		Subtotal:    symbol + " " + record.Subtotal.StringFixed(2),
		Discount:    symbol + " " + record.Discount.StringFixed(2),
		TaxAmount:   symbol + " " + record.TaxAmount.StringFixed(2),
		Total:       symbol + " " + record.Total.StringFixed(2),
		TaxIncluded: record.TaxIncluded,
		HasDiscount: record.Discount.IsPositive(),
		Terms:       record.Terms,
	}

	lines := 2 // subtotal, total
	if block.HasDiscount {
		lines++
	}
	if block.TaxIncluded {
		lines++
	}
	block.Height = float64(lines) * totalsLineHeight
	if record.Terms != "" {
		termLines := 1 + len(splitLines(record.Terms)) // heading + body
		block.Height += float64(termLines) * termsLineHeight
	}
	return block
}

func splitLines(s string) []string {
	return ItemLine{Description: s}.DescriptionLines()
}

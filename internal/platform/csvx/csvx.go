// Package csvx writes CSV files the way French spreadsheet tools expect
// them: semicolon-separated, comma decimals, UTF-8 with a BOM so Excel
// detects the encoding.
package csvx

import (
	"encoding/csv"
	"io"
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Writer wraps encoding/csv with the French dialect.
type Writer struct {
	csv     *csv.Writer
	printer *message.Printer
}

// NewWriter emits the BOM immediately and configures the semicolon
// delimiter.
func NewWriter(w io.Writer) (*Writer, error) {
	if _, err := w.Write(bom); err != nil {
		return nil, err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	return &Writer{csv: cw, printer: message.NewPrinter(language.French)}, nil
}

// Write emits one record.
func (w *Writer) Write(record []string) error {
	return w.csv.Write(record)
}

// Amount renders a monetary value with two decimals and a comma separator,
// without grouping so the cell stays machine-readable.
func (w *Writer) Amount(v float64) string {
	s := w.printer.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2), number.NoSeparator()))
	// x/text uses a narrow no-break space for French grouping; NoSeparator
	// should prevent it, but normalize anyway.
	return strings.ReplaceAll(s, " ", "")
}

// Shares renders a tantieme count, trimming trailing zeros.
func (w *Writer) Shares(v float64) string {
	return w.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2), number.NoSeparator()))
}

// Flush flushes the underlying csv writer and reports any buffered error.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// SetAttachmentHeaders prepares an HTTP response for a CSV download.
func SetAttachmentHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}

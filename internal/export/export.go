// Package export renders flattened KPI records as downloadable documents.
//
// The CSV output keeps the legacy single-record layout: one header line of
// keys and one line of JSON-serialized values, joined with bare commas.
// Values are never CSV-escaped, so a string holding a comma shifts the
// columns for naive readers. Callers that need a well-formed file must ask
// for FormatCSVStrict explicitly.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/roledash/internal/flatten"
)

// Format selects the output document type.
type Format string

const (
	FormatCSV       Format = "csv"
	FormatCSVStrict Format = "rfc4180"
	FormatPDF       Format = "pdf"
	FormatXLSX      Format = "xlsx"
)

// BaseFilename is the stem shared by every exported document.
const BaseFilename = "dashboard_data"

// TableHeader is the header of the two-column field/value table.
var TableHeader = [2]string{"Field", "Value"}

// ErrUnknownFormat is returned for formats the exporter cannot produce.
var ErrUnknownFormat = errors.New("unknown export format")

// Document is a rendered export ready to be sent to the client.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Row is one line of the field/value table.
type Row struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatCSVStrict, FormatPDF, FormatXLSX:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Filename returns the download name for f.
func (f Format) Filename() string {
	switch f {
	case FormatCSV, FormatCSVStrict:
		return BaseFilename + ".csv"
	case FormatPDF:
		return BaseFilename + ".pdf"
	case FormatXLSX:
		return BaseFilename + ".xlsx"
	default:
		return BaseFilename
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV, FormatCSVStrict:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// ToCSV renders rec in the legacy single-record format.
func ToCSV(rec *flatten.Record) string {
	keys := rec.Keys()
	values := make([]string, len(keys))
	for i, k := range keys {
		v, _ := rec.Get(k)
		values[i] = v.JSON()
	}
	return strings.Join(keys, ",") + "\n" + strings.Join(values, ",")
}

// ToCSVStrict renders rec as an RFC 4180 file with a header row and a single
// value row. Strings are written raw and quoted only where needed.
func ToCSVStrict(rec *flatten.Record) (string, error) {
	keys := rec.Keys()
	values := make([]string, len(keys))
	for i, k := range keys {
		v, _ := rec.Get(k)
		values[i] = v.Text()
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(keys); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	if err := w.Write(values); err != nil {
		return "", fmt.Errorf("write values: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// ToRows converts rec to field/value rows in record order.
func ToRows(rec *flatten.Record) []Row {
	rows := make([]Row, 0, rec.Len())
	rec.Each(func(key string, v flatten.Value) {
		rows = append(rows, Row{Field: key, Value: v.Text()})
	})
	return rows
}

// PDFRenderer produces a PDF document from a titled field/value table.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, title string, rows []Row) ([]byte, error)
}

// Exporter renders records in every supported format.
type Exporter struct {
	pdf   PDFRenderer
	title string
}

// New returns an Exporter. pdf may be nil, in which case PDF export fails
// with ErrPDFUnavailable.
func New(pdf PDFRenderer, title string) *Exporter {
	if title == "" {
		title = "Dashboard Data"
	}
	return &Exporter{pdf: pdf, title: title}
}

// ErrPDFUnavailable is returned when no PDF renderer is configured.
var ErrPDFUnavailable = errors.New("pdf export unavailable")

// Export renders rec as format f.
func (e *Exporter) Export(ctx context.Context, f Format, rec *flatten.Record) (*Document, error) {
	var body []byte

	switch f {
	case FormatCSV:
		body = []byte(ToCSV(rec))

	case FormatCSVStrict:
		s, err := ToCSVStrict(rec)
		if err != nil {
			return nil, fmt.Errorf("export csv: %w", err)
		}
		body = []byte(s)

	case FormatPDF:
		if e.pdf == nil {
			return nil, ErrPDFUnavailable
		}
		b, err := e.pdf.RenderPDF(ctx, e.title, ToRows(rec))
		if err != nil {
			return nil, fmt.Errorf("export pdf: %w", err)
		}
		body = b

	case FormatXLSX:
		b, err := ToXLSX(e.title, ToRows(rec))
		if err != nil {
			return nil, fmt.Errorf("export xlsx: %w", err)
		}
		body = b

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}

	return &Document{
		Filename:    f.Filename(),
		ContentType: f.ContentType(),
		Body:        body,
	}, nil
}

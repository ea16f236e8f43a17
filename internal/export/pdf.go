package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultPDFTimeout bounds a single headless print.
const DefaultPDFTimeout = 20 * time.Second

// ChromeRenderer prints the field/value table to PDF with headless Chrome.
type ChromeRenderer struct {
	Timeout time.Duration
}

// NewChromeRenderer returns a renderer that gives up after timeout.
func NewChromeRenderer(timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = DefaultPDFTimeout
	}
	return &ChromeRenderer{Timeout: timeout}
}

// RenderPDF implements PDFRenderer.
func (c *ChromeRenderer) RenderPDF(ctx context.Context, title string, rows []Row) ([]byte, error) {
	var html bytes.Buffer
	if err := TableDocument(title, rows).Render(ctx, &html); err != nil {
		return nil, fmt.Errorf("render table html: %w", err)
	}

	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()

	timeoutCtx, cancelTimeout := context.WithTimeout(parent, c.Timeout)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html.Bytes())
	var pdf []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return pdf, nil
}

// TableDocument is a standalone HTML page holding the field/value table.
func TableDocument(title string, rows []Row) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b bytes.Buffer
		b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>`)
		b.WriteString(templ.EscapeString(title))
		b.WriteString(`</title><style>`)
		b.WriteString(`body{font-family:sans-serif;margin:24px}h1{font-size:18px}`)
		b.WriteString(`table{border-collapse:collapse;width:100%;font-size:11px}`)
		b.WriteString(`th,td{border:1px solid #ccc;padding:4px 6px;text-align:left;vertical-align:top}`)
		b.WriteString(`th{background:#f3f4f6}td{word-break:break-all}`)
		b.WriteString(`</style></head><body><h1>`)
		b.WriteString(templ.EscapeString(title))
		b.WriteString(`</h1><table><thead><tr><th>`)
		b.WriteString(TableHeader[0])
		b.WriteString(`</th><th>`)
		b.WriteString(TableHeader[1])
		b.WriteString(`</th></tr></thead><tbody>`)
		for _, row := range rows {
			b.WriteString(`<tr><td>`)
			b.WriteString(templ.EscapeString(row.Field))
			b.WriteString(`</td><td>`)
			b.WriteString(templ.EscapeString(row.Value))
			b.WriteString(`</td></tr>`)
		}
		b.WriteString(`</tbody></table></body></html>`)
		_, err := w.Write(b.Bytes())
		return err
	})
}

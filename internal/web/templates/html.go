// Package templates renders the dashboard's HTML as templ components.
package templates

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
)

// page accumulates markup. Dynamic text goes through text or attr, which
// escape it; raw is for literal markup only.
type page struct {
	b bytes.Buffer
}

func (p *page) raw(parts ...string) {
	for _, s := range parts {
		p.b.WriteString(s)
	}
}

func (p *page) text(s string) {
	p.b.WriteString(templ.EscapeString(s))
}

func (p *page) attr(name, value string) {
	p.raw(" ", name, `="`)
	p.text(value)
	p.raw(`"`)
}

func (p *page) textf(format string, args ...any) {
	p.text(fmt.Sprintf(format, args...))
}

// child renders a nested component into the page.
func (p *page) child(ctx context.Context, c templ.Component) error {
	if c == nil {
		return nil
	}
	return c.Render(ctx, &p.b)
}

// component wraps a build function as a templ.Component that writes its
// output in one call.
func component(build func(ctx context.Context, p *page) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var p page
		if err := build(ctx, &p); err != nil {
			return err
		}
		_, err := w.Write(p.b.Bytes())
		return err
	})
}

// withQuery returns path with q encoded, dropping empty values.
func withQuery(path string, q map[string]string) string {
	v := url.Values{}
	for k, val := range q {
		if val != "" {
			v.Set(k, val)
		}
	}
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

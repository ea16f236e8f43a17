package templates

import (
	"context"

	"github.com/a-h/templ"
)

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f8fafc;color:#0f172a}
header{display:flex;justify-content:space-between;align-items:center;padding:12px 24px;background:#1e293b;color:#fff}
header form{display:inline}
main{padding:24px}
.cards{display:flex;flex-wrap:wrap;gap:12px;margin-bottom:24px}
.card{background:#fff;border:1px solid #e2e8f0;border-radius:8px;padding:12px 16px;min-width:180px}
.card .label{font-size:12px;color:#64748b}
.card .value{font-size:22px;font-weight:600}
table{border-collapse:collapse;width:100%;background:#fff;font-size:13px}
th,td{border-bottom:1px solid #e2e8f0;padding:6px 8px;text-align:left}
.tone-good{color:#15803d}.tone-warn{color:#b45309}.tone-bad{color:#b91c1c}.tone-accent{color:#4f46e5}
.tag{display:inline-block;background:#eef2ff;border-radius:4px;padding:0 6px;margin-right:4px}
.sub{display:block;font-size:11px;color:#64748b}
.status{border:1px solid #fecaca;background:#fef2f2;border-radius:8px;padding:12px 16px;margin:12px 0}
.muted{color:#64748b}
.pager{display:flex;gap:8px;align-items:center;margin:8px 0}
iframe.charts{width:100%;height:980px;border:0}
`

// Header describes the signed-in user shown in the page header.
type Header struct {
	Email         string
	Role          string
	AdminLoggedIn bool
	RoleOptions   []string
}

// Layout wraps body in the page shell.
func Layout(title string, h *Header, body templ.Component) templ.Component {
	return component(func(ctx context.Context, p *page) error {
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		p.text(title)
		p.raw(`</title><script src="https://unpkg.com/htmx.org@1.9.12"></script><style>`, styles, `</style></head><body>`)
		if h != nil {
			renderHeader(p, h)
		}
		p.raw(`<main>`)
		if err := p.child(ctx, body); err != nil {
			return err
		}
		p.raw(`</main></body></html>`)
		return nil
	})
}

func renderHeader(p *page, h *Header) {
	p.raw(`<header><strong>Dashboard</strong><div>`)
	p.text(h.Email)
	p.raw(` <span class="muted">`)
	p.text(h.Role)
	p.raw(`</span> `)
	if h.AdminLoggedIn {
		p.raw(`<form method="post" action="/session/role"><select name="role" onchange="this.form.submit()">`)
		for _, r := range h.RoleOptions {
			p.raw(`<option`)
			p.attr("value", r)
			if r == h.Role {
				p.raw(` selected`)
			}
			p.raw(`>`)
			p.text(r)
			p.raw(`</option>`)
		}
		p.raw(`</select></form> `)
	}
	p.raw(`<form method="post" action="/logout"><button type="submit">Log out</button></form></div></header>`)
}

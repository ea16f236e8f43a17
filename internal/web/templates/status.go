package templates

import (
	"context"

	"github.com/a-h/templ"
)

// ErrorAlert renders an error fragment without a retry action.
func ErrorAlert(message, action, code string) templ.Component {
	return StatusMessage(message, action, code, "")
}

// StatusMessage renders a failed fetch: what happened, what to do, the
// support code and, when retryURL is set, a Retry link to the same URL.
func StatusMessage(message, action, code, retryURL string) templ.Component {
	return component(func(_ context.Context, p *page) error {
		renderStatus(p, message, action, code, retryURL)
		return nil
	})
}

func renderStatus(p *page, message, action, code, retryURL string) {
	p.raw(`<div class="status" role="alert"><strong>`)
	p.text(message)
	p.raw(`</strong>`)
	if action != "" {
		p.raw(`<div>`)
		p.text(action)
		p.raw(`</div>`)
	}
	if code != "" {
		p.raw(`<div class="muted">Code: `)
		p.text(code)
		p.raw(`</div>`)
	}
	if retryURL != "" {
		p.raw(`<a`)
		p.attr("href", retryURL)
		p.raw(`>Retry</a>`)
	}
	p.raw(`</div>`)
}

package templates

import (
	"context"

	"github.com/a-h/templ"
)

// LoginForm renders the sign-in form. errMsg is shown above the form when
// the previous attempt failed.
func LoginForm(email, errMsg string) templ.Component {
	return component(func(_ context.Context, p *page) error {
		p.raw(`<h1>Sign in</h1>`)
		if errMsg != "" {
			renderStatus(p, errMsg, "", "", "")
		}
		p.raw(`<form method="post" action="/login">`)
		p.raw(`<label>Email <input type="email" name="email" required autocomplete="username"`)
		p.attr("value", email)
		p.raw(`></label> `)
		p.raw(`<label>Password <input type="password" name="password" required autocomplete="current-password"></label> `)
		p.raw(`<button type="submit">Sign in</button></form>`)
		return nil
	})
}

// LoginPage is the full sign-in page.
func LoginPage(email, errMsg string) templ.Component {
	return Layout("Sign in", nil, LoginForm(email, errMsg))
}

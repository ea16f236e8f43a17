package views

import (
	"github.com/JonMunkholm/roledash/internal/core"
	"github.com/JonMunkholm/roledash/internal/roles"
)

func init() {
	registerDefault()
}

// The default view serves admins and every role without a dedicated view.
func registerDefault() {
	core.RegisterView(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:   roles.ViewDefault,
			Title: "Dashboard",
			Role:  roles.NameAdmin,
			Order: 0,
		},
		Aggregate: true,
	})
}

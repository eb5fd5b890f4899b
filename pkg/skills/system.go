package skills

import (
	"context"
	"strings"

	"github.com/aretw0/reflex/internal/dto"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/registry"
)

// System pages understood by robots.
const (
	PageSettings  = "SETTINGS"
	PageMapEditor = "MAP_EDITOR"
	PageContacts  = "CONTACTS"
	PageLocations = "LOCATIONS"
	PageAllApps   = "ALL_APPS"
	PageHome      = "HOME"
	PageTours     = "TOURS"
)

var systemPages = map[string]string{
	"settings":   PageSettings,
	"map":        PageMapEditor,
	"map editor": PageMapEditor,
	"contacts":   PageContacts,
	"locations":  PageLocations,
	"apps":       PageAllApps,
	"all apps":   PageAllApps,
	"app list":   PageAllApps,
	"home":       PageHome,
	"tours":      PageTours,
}

// System opens system pages and apps.
type System struct {
	base
	pages map[string]string
}

// NewSystem creates the System skill. Extra page names may be configured under "pages".
func NewSystem(deps Deps, options map[string]any) (*System, error) {
	b, err := newBase("System", deps, true)
	if err != nil {
		return nil, err
	}
	var opts dto.SystemOptions
	if err := dto.Decode(options, &opts); err != nil {
		return nil, err
	}

	pages := make(map[string]string, len(systemPages)+len(opts.Pages))
	for k, v := range systemPages {
		pages[k] = v
	}
	for k, v := range opts.Pages {
		pages[strings.ToLower(strings.TrimSpace(k))] = v
	}

	s := &System{base: b, pages: pages}
	s.ops = registry.Operations{
		"openApp": oneString(s.openApp),
	}
	return s, nil
}

// Page maps a spoken app name to a system page. Names containing a dot are
// treated as package names and passed through unchanged.
func (s *System) Page(app string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(app))
	if page, ok := s.pages[key]; ok {
		return page, true
	}
	if strings.Contains(key, ".") {
		return strings.TrimSpace(app), true
	}
	return "", false
}

func (s *System) openApp(ctx context.Context, app string) (domain.Value, error) {
	if strings.TrimSpace(app) == "" {
		s.deps.Logger.Error("App name cannot be empty")
		return domain.Nothing, nil
	}

	page, ok := s.Page(app)
	if !ok {
		s.deps.Logger.Warn("Could not find app to open", "app", app)
		return domain.Nothing, nil
	}
	if err := s.deps.Robot.OpenPage(ctx, page); err != nil {
		s.deps.Logger.Error("Failed to open app", "app", app, "err", err)
	}
	return domain.Nothing, nil
}

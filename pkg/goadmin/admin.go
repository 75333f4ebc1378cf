package goadmin

import (
	"context"
	"errors"

	core "github.com/goliatone/go-emailbuilder/components/builder"
	"github.com/goliatone/go-emailbuilder/pkg/activity/usersink"
	builderpkg "github.com/goliatone/go-emailbuilder/pkg/builder"
)

// MenuBuilder ensures builder entries exist within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures builder link metadata.
type MenuItem struct {
	Label    string
	Route    string
	Icon     string
	Position int
}

// Config wires an editor session and feature flags into an admin shell.
type Config struct {
	EnableBuilder   bool
	MenuCode        string
	MenuBuilder     MenuBuilder
	Session         builderpkg.SessionOptions
	DefaultMenuItem MenuItem
	ActivitySink    usersink.ActivitySink
	ActivityChannel string
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg     Config
	session *builderpkg.Session
}

// New creates an Admin helper. When the builder is enabled it opens an
// editor session whose changes are also written to ActivitySink.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableBuilder && cfg.Session.Repository == nil {
		return nil, errors.New("goadmin: builder repository is required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	if cfg.DefaultMenuItem.Label == "" {
		cfg.DefaultMenuItem.Label = "Email Builder"
	}
	if cfg.DefaultMenuItem.Route == "" {
		cfg.DefaultMenuItem.Route = "admin.email_builder"
	}
	if cfg.DefaultMenuItem.Icon == "" {
		cfg.DefaultMenuItem.Icon = "mail"
	}
	admin := &Admin{cfg: cfg}
	if !cfg.EnableBuilder {
		return admin, nil
	}
	opts := cfg.Session
	if cfg.ActivitySink != nil {
		hooks := core.ChangeHooks{usersink.Hook{Sink: cfg.ActivitySink, Channel: cfg.ActivityChannel}}
		if opts.ChangeHook != nil {
			hooks = append(core.ChangeHooks{opts.ChangeHook}, hooks...)
		}
		opts.ChangeHook = hooks
	}
	admin.session = builderpkg.NewSession(opts)
	return admin, nil
}

// Builder exposes the editor session when enabled.
func (a *Admin) Builder() *builderpkg.Session {
	if !a.cfg.EnableBuilder {
		return nil
	}
	return a.session
}

// Bootstrap seeds menu entries when builder support is enabled.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableBuilder || a.cfg.MenuBuilder == nil {
		return nil
	}
	return a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, a.cfg.DefaultMenuItem)
}

// Close flushes pending edits and stops auto-save.
func (a *Admin) Close(ctx context.Context) error {
	if a.session == nil {
		return nil
	}
	return a.session.Close(ctx)
}

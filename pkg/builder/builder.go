package builder

import (
	core "github.com/goliatone/go-emailbuilder/components/builder"
)

// Session exposes the underlying components/builder.Session type.
type Session = core.Session

// SessionOptions re-export for convenience.
type SessionOptions = core.SessionOptions

// Config re-exports the YAML configuration.
type Config = core.Config

// Repository is the persistence collaborator a Session saves to.
type Repository = core.Repository

// NewSession proxies to the internal constructor.
func NewSession(opts SessionOptions) *Session {
	return core.NewSession(opts)
}

// LoadConfig proxies to the internal config loader.
func LoadConfig(path string) (Config, error) {
	return core.LoadConfig(path)
}

// Package commands holds the lazygrid subcommands.
package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rebeliceyang/lazygrid/internal/api"
	"github.com/rebeliceyang/lazygrid/internal/config"
)

// Env is what the root command prepares for every subcommand
type Env struct {
	Config *config.Config
	Logger *slog.Logger
}

// Client returns an API client for the configured backend
func (e *Env) Client() *api.Client {
	return api.NewClient(e.Config.API.BaseURL, nil, e.Logger)
}

type envKey struct{}

// WithEnv stores env in ctx
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// EnvFrom returns the Env stored by the root command
func EnvFrom(ctx context.Context) (*Env, error) {
	env, ok := ctx.Value(envKey{}).(*Env)
	if !ok || env == nil {
		return nil, errors.New("configuration not loaded")
	}
	return env, nil
}

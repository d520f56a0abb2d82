package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/SEMOSS/procode-training/internal/credentials"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

// errNotLoggedIn is returned by commands that need a session when none can be
// established.
var errNotLoggedIn = errors.New("not logged in: run `procode login` first")

func newClient() (*pixel.Client, error) {
	return pixel.New(cfg.Server.URL, pixel.Options{
		Timeout:       cfg.Server.Timeout,
		Insight:       cfg.Server.Insight,
		RetryAttempts: cfg.Client.RetryAttempts,
		RetryBackoff:  cfg.Client.RetryBackoff,
		RatePerSecond: cfg.Client.RatePerSecond,
		RateBurst:     cfg.Client.RateBurst,
		Breaker:       cfg.Client.BreakerEnabled,
		Logger:        logger.Named("pixel"),
	})
}

// signIn logs in with the credentials stored for the configured server, or
// falls back to whatever session the backend already recognises.
func signIn(ctx context.Context, client *pixel.Client) (pixel.User, error) {
	login, err := credentials.Load(cfg.Server.URL)
	switch {
	case err == nil:
		u, err := client.Login(ctx, login.Username, login.Password)
		if err != nil {
			return pixel.User{}, fmt.Errorf("sign in as %s: %w", login.Username, err)
		}
		logger.Debug("signed in with stored credentials", zap.String("user", u.Name))
		return u, nil
	case !errors.Is(err, credentials.ErrNotFound):
		logger.Warn("read stored credentials", zap.Error(err))
	}

	u, err := client.UserInfo(ctx)
	if errors.Is(err, pixel.ErrUnauthorized) {
		return pixel.User{}, errNotLoggedIn
	}
	return u, err
}

// connect builds a client and signs it in.
func connect(ctx context.Context) (*pixel.Client, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	if _, err := signIn(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

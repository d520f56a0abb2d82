package main

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SEMOSS/procode-training/internal/appctx"
	"github.com/SEMOSS/procode-training/internal/config"
	"github.com/SEMOSS/procode-training/internal/credentials"
	"github.com/SEMOSS/procode-training/internal/logging"
	"github.com/SEMOSS/procode-training/internal/tui"
)

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	err := config.Watch(configPath, func(c config.Config, err error) {
		if err != nil {
			logger.Warn("reload config", zap.Error(err))
			return
		}
		if err := logging.SetLevel(logLevel, c.Log.Level); err != nil {
			logger.Warn("reload log level", zap.Error(err))
		}
	})
	if err != nil {
		logger.Debug("config not watched", zap.Error(err))
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	provider := appctx.NewProvider(ctx, client, appctx.SettingsFrom(cfg.Vector), logger.Named("app"))

	// A stored login skips the sign in form. Failure just shows the form.
	var username string
	if login, err := credentials.Load(cfg.Server.URL); err == nil {
		username = login.Username
		if _, err := provider.SignIn(ctx, login.Username, login.Password); err != nil {
			logger.Info("stored credentials rejected", zap.Error(err))
		}
	}

	notifier := tui.NewNotifier()
	app := tui.New(ctx, provider, notifier, tui.Options{
		Server:   client.BaseURL(),
		Username: username,
		Remember: func(username, password string) error {
			return credentials.Save(cfg.Server.URL, credentials.Login{Username: username, Password: password})
		},
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	notifier.Attach(p)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

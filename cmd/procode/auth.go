package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SEMOSS/procode-training/internal/config"
	"github.com/SEMOSS/procode-training/internal/credentials"
)

var (
	loginUsername      string
	loginPasswordStdin bool
	loginServer        string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the credentials in the OS keyring",
	Long: `Sign in to the backend with a native username and password. On success the
credentials are stored in the OS keyring and used by every other command.

--server also saves the backend URL to the config file.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		if client, err := connect(cmd.Context()); err == nil {
			if err := client.Logout(cmd.Context()); err != nil {
				logger.Debug("server logout failed", zap.Error(err))
			}
		}
		err := credentials.Delete(cfg.Server.URL)
		if errors.Is(err, credentials.ErrNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "no stored credentials for", cfg.Server.URL)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "removed credentials for", cfg.Server.URL)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username (prompted when empty)")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "read the password from stdin")
	loginCmd.Flags().StringVar(&loginServer, "server", "", "backend URL to save in the config file")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if loginServer != "" {
		cfg.Server.URL = strings.TrimRight(loginServer, "/")
		if err := config.Save(cfg, configPath); err != nil {
			return err
		}
	}

	username := strings.TrimSpace(loginUsername)
	var err error
	if username == "" {
		if username, err = prompt("Username", false); err != nil {
			return err
		}
	}
	var password string
	if loginPasswordStdin {
		password, err = readLine(cmd.InOrStdin())
	} else {
		password, err = prompt("Password", true)
	}
	if err != nil {
		return err
	}
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	user, err := client.Login(cmd.Context(), username, password)
	if err != nil {
		return err
	}
	if err := credentials.Save(cfg.Server.URL, credentials.Login{Username: username, Password: password}); err != nil {
		return fmt.Errorf("signed in but could not store credentials: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "signed in to %s as %s\n", client.BaseURL(), user.Name)
	return nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

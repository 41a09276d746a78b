package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"github.com/sgaunet/repohost/internal/ui"
	"github.com/sgaunet/repohost/pkg/auth"
	"github.com/sgaunet/repohost/pkg/config"
	"github.com/sgaunet/repohost/pkg/platform"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errEmptyToken = errors.New("host returned an empty access token")

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Obtain an access token and store it in the configuration",
	Long: `login exchanges your GitLab username and password for an OAuth token,
or runs the GitHub device flow. The token is written to the configuration
file once and reused by every other command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLogin(cmd.Context(), cmd.ErrOrStderr())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the stored configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with the token masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runConfigShow(cmd.Context(), cmd.OutOrStdout())
	},
}

var configSetCmd = &cobra.Command{
	Use:       "set KEY VALUE",
	Short:     "Set one configuration key",
	Long:      "Set one key of the configuration file. Keys: " + strings.Join(config.Keys(), ", "),
	Args:      cobra.ExactArgs(2), //nolint:mnd // key and value
	ValidArgs: config.Keys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigSet(cmd.Context(), args[0], args[1])
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configPathCmd)
}

// loadFileConfig reads the file alone, so saving it never persists environment values.
func loadFileConfig(ctx context.Context) (*config.Config, string, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadWith(ctx, path, envconfig.MapLookuper(nil))
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, path, nil
}

func runLogin(ctx context.Context, stderr io.Writer) error {
	cfg, path, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	s := &session{cfg: cfg, repo: openLocal()}
	if err := s.detectPlatform(); err != nil {
		return err
	}

	transport, err := platform.NewTransport(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create HTTP transport: %w", err)
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}
	httpClient := &http.Client{Transport: transport, Timeout: timeout}

	prompt := func(uri, code string) { ui.ShowDeviceCode(stderr, uri, code) }
	issuer, err := auth.NewIssuer(cfg, httpClient, prompt, log)
	if err != nil {
		return fmt.Errorf("failed to start login: %w", err)
	}

	var creds auth.Credentials
	if cfg.Platform == config.PlatformGitLab {
		user, pass, err := ui.NewPrompter().Credentials(cfg.Username)
		if err != nil {
			return err
		}
		creds = auth.Credentials{Username: user, Password: pass}
	}

	log.Info(fmt.Sprintf("Requesting a token from %s", cfg.Platform))
	tok, err := issuer.Issue(ctx, creds)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if tok.AccessToken == "" {
		return errEmptyToken
	}

	stored, _, err := loadFileConfig(ctx)
	if err != nil {
		return err
	}
	stored.Token = tok.AccessToken
	stored.TokenType = config.TokenTypeOAuth
	if stored.Platform == "" {
		stored.Platform = cfg.Platform
	}
	if stored.BaseURL == "" {
		stored.BaseURL = cfg.BaseURL
	}
	if creds.Username != "" {
		stored.Username = creds.Username
	}
	if err := stored.Save(path); err != nil {
		return err
	}
	log.Info(fmt.Sprintf("Token %s stored in %s", stored.SecureToken(), path))
	return nil
}

func runConfigShow(ctx context.Context, out io.Writer) error {
	cfg, _, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg.Masked())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func runConfigSet(ctx context.Context, key, value string) error {
	cfg, path, err := loadFileConfig(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	log.Info(fmt.Sprintf("Set %s in %s", key, path))
	return nil
}

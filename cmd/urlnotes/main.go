package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/urlnotes/urlnotes-go/client"
	"github.com/urlnotes/urlnotes-go/internal/config"
)

var serviceURL string
var tokenPath string
var debug bool

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "urlnotes",
		Short: "urlnotes CLI for attaching notes to URLs",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.InitLogger()

			if debug {
				config.SetLogLevel(zerolog.DebugLevel)
				os.Setenv("URLNOTES_DEBUG", "true")
				log.Debug().Msg("debug logging enabled")
			} else {
				config.SetLogLevel(zerolog.InfoLevel)
			}
		},
	}

	defaultURL := config.GetEnvOrDefault("URLNOTES_SERVICE_URL", "http://localhost:8000")
	rootCmd.PersistentFlags().StringVar(&serviceURL, "service-url", defaultURL, "Base URL of the urlnotes backend")
	rootCmd.PersistentFlags().StringVar(&tokenPath, "token-path", os.Getenv("URLNOTES_TOKEN_PATH"), "Where the session token is kept (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newSignupCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newNoteCmd())
	rootCmd.AddCommand(newPingCmd())

	return rootCmd
}

// newClient builds an SDK client from environment configuration with a file
// token store so the session survives between invocations. Flags override
// the base URL and token path from the environment.
func newClient() (*client.Client, error) {
	cfg, err := client.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if serviceURL != "" {
		cfg.BaseURL = serviceURL
	}
	if tokenPath != "" {
		cfg.TokenPath = tokenPath
	}
	return client.NewFromConfig(cfg)
}

func opCtx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 15*time.Second)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func newSignupCmd() *cobra.Command {
	var username, password, email string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := opCtx(cmd)
			defer cancel()

			user, err := c.Signup(ctx, client.UserCreate{Username: username, Password: password, Email: email})
			if err != nil {
				return err
			}
			log.Info().Str("username", user.Username).Msg("account created")
			return printJSON(user)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := opCtx(cmd)
			defer cancel()

			user, err := c.Login(ctx, client.Credentials{Username: username, Password: password})
			if err != nil {
				return err
			}
			log.Info().Str("username", user.Username).Msg("logged in")
			return printJSON(user)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := opCtx(cmd)
			defer cancel()

			user, err := c.GetCurrentUser(ctx)
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := opCtx(cmd)
			defer cancel()

			if err := c.Logout(ctx); err != nil {
				return err
			}
			log.Info().Msg("logged out")
			return nil
		},
	}
}

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <url>",
		Short: "Fetch the resource for a URL, creating it when absent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := opCtx(cmd)
			defer cancel()

			res, err := c.GetOrCreateResource(ctx, args[0])
			if err != nil {
				return err
			}
			disp := client.FormatURL(res.URL)
			log.Debug().Str("hostname", disp.Hostname).Str("path", disp.Path).Msg("resolved")
			return printJSON(res)
		},
	}
	return cmd
}

func newNoteCmd() *cobra.Command {
	noteCmd := &cobra.Command{
		Use:   "note",
		Short: "Manage notes attached to a URL",
	}

	var addURL, content string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Attach a note to a URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := opCtx(cmd)
			defer cancel()

			// The resource must exist before a note can hang off it.
			if _, err := c.GetOrCreateResource(ctx, addURL); err != nil {
				return err
			}
			note, err := c.CreateNote(ctx, addURL, client.CreateNoteRequest{Content: content})
			if err != nil {
				return err
			}
			return printJSON(note)
		},
	}
	addCmd.Flags().StringVar(&addURL, "url", "", "URL the note attaches to (required)")
	addCmd.Flags().StringVar(&content, "content", "", "Note content (required)")
	_ = addCmd.MarkFlagRequired("url")
	_ = addCmd.MarkFlagRequired("content")

	var listURL string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the notes attached to a URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := opCtx(cmd)
			defer cancel()

			notes, err := c.GetNotes(ctx, listURL)
			if err != nil {
				return err
			}
			return printJSON(notes)
		},
	}
	listCmd.Flags().StringVar(&listURL, "url", "", "URL whose notes to list (required)")
	_ = listCmd.MarkFlagRequired("url")

	noteCmd.AddCommand(addCmd)
	noteCmd.AddCommand(listCmd)
	return noteCmd
}

func newPingCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the backend is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			if wait {
				if err := c.WaitReady(ctx); err != nil {
					return err
				}
			} else if err := c.Ping(ctx); err != nil {
				return err
			}
			log.Info().Str("service_url", serviceURL).Msg("backend reachable")
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Keep polling with backoff until the backend answers")
	return cmd
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"gitlab.com/dirk.krummacker/person-palace/internal/client"
	"gitlab.com/dirk.krummacker/person-palace/internal/config"
	"gitlab.com/dirk.krummacker/person-palace/internal/logging"
	"gitlab.com/dirk.krummacker/person-palace/internal/notify"
	"gitlab.com/dirk.krummacker/person-palace/internal/page"
)

// app is shared by all subcommands. It is filled in before a subcommand runs.
type app struct {
	apiRoot string

	api  *client.Client
	page *page.Page
	log  *logrus.Logger
	in   *bufio.Reader
	out  io.Writer
}

// shown marks an error that was already presented to the user, so Execute does not print it a
// second time.
type shown struct {
	error
}

func (s shown) Unwrap() error { return s.error }

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "persons",
		Short:         "List, create, edit and delete persons",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&a.apiRoot, "api-root", "", "root URL of the persons API (overrides PERSONS_API_ROOT)")
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newCreateCmd(a))
	cmd.AddCommand(newUpdateCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newBenchCmd(a))
	return cmd
}

// setup reads the configuration and wires the API client, the page and the notifications.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if a.apiRoot != "" {
		cfg.APIRoot = a.apiRoot
	}
	a.log = logging.NewWithOutput(cfg.Log, cmd.ErrOrStderr())
	a.out = cmd.OutOrStdout()
	a.in = bufio.NewReader(cmd.InOrStdin())

	lang, err := language.Parse(cfg.Locale)
	if err != nil {
		a.log.WithError(err).WithField("locale", cfg.Locale).Warn("unknown locale, sorting with English rules")
		lang = language.English
	}

	opts := []client.Option{client.WithLogger(a.log)}
	if cfg.HTTPTimeout > 0 {
		opts = append(opts, client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
	}
	a.api = client.New(cfg.APIRoot, opts...)

	notifier := notify.Multi{
		notify.Console{Out: a.out},
		notify.Log{Logger: a.log.WithField("component", "notify")},
	}
	a.page = page.New(a.api, notifier, page.WithLogger(a.log), page.WithLocale(lang))
	return nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		var s shown
		if !errors.As(err, &s) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/omarluq/itemdesk/internal/apiclient"
	"github.com/omarluq/itemdesk/internal/config"
	"github.com/omarluq/itemdesk/internal/credentials"
)

// cliSession is the command-line browser: a cookie jar persisted between
// runs and a client bound to it.
type cliSession struct {
	cfg    *config.Config
	source *credentials.BrowserCookieSource
	client *apiclient.Client
	path   string
}

// openSession loads the config and the stored cookies for cmd.
func openSession(cmd *cobra.Command) (*cliSession, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	jar, err := credentials.NewJar()
	if err != nil {
		return nil, err
	}
	names := cfg.Cookies.Names()
	source, err := credentials.NewBrowserCookieSource(cfg.Backend.GetBaseURL(), jar, names)
	if err != nil {
		return nil, err
	}

	path := cfg.Client.GetSessionFile()
	if err := credentials.LoadSession(path, source); err != nil && !errors.Is(err, credentials.ErrNoSessionFile) {
		log.Warn().Err(err).Str("path", path).Msg("ignoring unreadable session file")
	}

	client := apiclient.New(cfg.Backend.GetBaseURL(), source, names,
		apiclient.WithTimeout(cfg.Backend.GetTimeout()))

	return &cliSession{cfg: cfg, source: source, client: client, path: path}, nil
}

// save persists the cookies the backend set during this run.
func (s *cliSession) save() error {
	if err := credentials.SaveSession(s.path, s.source); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// explain adds a next step to failures the user can act on.
func explain(err error) error {
	switch apiclient.KindOf(err) {
	case apiclient.KindUnauthenticated:
		return fmt.Errorf("%w (run: itemdesk login)", err)
	case apiclient.KindForbidden:
		if f, ok := apiclient.AsFailure(err); ok && f.CSRFRejected() {
			return fmt.Errorf("%w (session token is stale, run: itemdesk login)", err)
		}
	}
	return err
}

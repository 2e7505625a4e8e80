package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	"golang.org/x/oauth2"
	"golang.org/x/term"

	"github.com/Tiliavir/harvestctl/harvest"
	"github.com/Tiliavir/harvestctl/internal/cache"
	"github.com/Tiliavir/harvestctl/internal/config"
)

// session is the client plus the cache store backing it. Commands must call
// Close when done.
type session struct {
	cfg    config.Config
	client *harvest.Client
	store  cache.Persistent // nil unless the backend survives the process
	closer io.Closer
}

func (s *session) Close() {
	if s.closer == nil {
		return
	}
	if err := s.closer.Close(); err != nil {
		log.WithError(err).Warn("closing cache")
	}
}

// openSession loads the config, opens the cache backend and builds the
// client. Failures are configuration errors.
func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, usageErr(err)
	}
	if cfg.Harvest.Token == "" && cfg.Harvest.Password == "" && cfg.Harvest.Email != "" {
		pw, err := promptPassword(cfg.Harvest.Email)
		if err != nil {
			return nil, usageErr(err)
		}
		cfg.Harvest.Password = pw
	}
	return newSession(cfg)
}

func newSession(cfg config.Config) (*session, error) {
	s := &session{cfg: cfg}
	c, err := openCache(cfg.Cache)
	if err != nil {
		return nil, usageErr(err)
	}
	if p, ok := c.(cache.Persistent); ok {
		s.store = p
	}
	if cl, ok := c.(io.Closer); ok {
		s.closer = cl
	}
	s.client = newClient(cfg.Harvest, c)
	return s, nil
}

// newClient maps the harvest config section onto client options.
func newClient(hc config.HarvestConfig, c harvest.Cache) *harvest.Client {
	opts := []harvest.Option{
		harvest.WithTimeout(time.Duration(hc.TimeoutSeconds) * time.Second),
		harvest.WithUserAgent(hc.UserAgent),
		harvest.WithURLTemplate(hc.URLTemplate),
	}
	if hc.StrictStatus {
		opts = append(opts, harvest.WithStatusPolicy(harvest.StatusStrict))
	}
	if hc.Token != "" {
		opts = append(opts, harvest.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: hc.Token})))
	}
	if c != nil {
		opts = append(opts, harvest.WithCache(c))
	}
	return harvest.New(hc.Email, hc.Password, hc.Account, opts...)
}

// openCache returns the configured store, or nil for the none backend.
func openCache(cc config.CacheConfig) (harvest.Cache, error) {
	switch cc.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendMemory:
		return cache.NewMemory(cc.Size), nil
	case config.BackendFile:
		dir := cc.Path
		if dir == "" {
			var err error
			if dir, err = cache.DefaultDir(); err != nil {
				return nil, err
			}
		}
		f, err := cache.NewFile(dir)
		if err != nil {
			return nil, err
		}
		return f, nil
	case config.BackendSQLite, "":
		path := cc.Path
		if path == "" {
			var err error
			if path, err = cache.DefaultDBPath(); err != nil {
				return nil, err
			}
		}
		db, err := cache.NewSQLite(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cc.Backend)
	}
}

// promptPassword reads the password from the terminal without echo. When
// stdin is not a terminal the password stays empty and the first request
// reports the missing credential.
func promptPassword(email string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprintf(os.Stderr, "Harvest password for %s: ", email)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(string(pw)), nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/cleared-dev/estatement/internal/accounts"
	"github.com/cleared-dev/estatement/internal/auth"
	"github.com/cleared-dev/estatement/internal/client"
	"github.com/cleared-dev/estatement/internal/config"
	"github.com/cleared-dev/estatement/internal/export"
	"github.com/cleared-dev/estatement/internal/logging"
	"github.com/cleared-dev/estatement/internal/query"
	"github.com/cleared-dev/estatement/internal/session"
	"github.com/cleared-dev/estatement/internal/storage"
	"github.com/cleared-dev/estatement/internal/uploadlog"
)

type rootOptions struct {
	v *viper.Viper
}

// runtime is the resolved configuration of one command invocation.
type runtime struct {
	dir     string
	cfgPath string
	cfg     *config.Config
	logger  *slog.Logger
}

func (o *rootOptions) configPath() string {
	if p := o.v.GetString(keyConfig); p != "" {
		return p
	}
	return filepath.Join(o.v.GetString(keyDataDir), config.FileName)
}

// runtime loads the config file, falling back to defaults when it does not
// exist, and applies flag and environment overrides.
func (o *rootOptions) runtime() (*runtime, error) {
	path := o.configPath()
	cfg, err := config.Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
	case err != nil:
		return nil, err
	}

	if lvl := o.v.GetString(keyLogLevel); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if format := o.v.GetString(keyLogFormat); format != "" {
		cfg.Logging.Format = format
	}
	if secret := o.v.GetString(keyJWTSecret); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &runtime{
		dir:     o.v.GetString(keyDataDir),
		cfgPath: path,
		cfg:     cfg,
		logger:  logging.New(cfg.Logging, os.Stderr),
	}, nil
}

func (r *runtime) path(p string) string {
	return config.Resolve(r.dir, p)
}

func (r *runtime) openStore(ctx context.Context) (*storage.DB, error) {
	return storage.Open(ctx, r.path(r.cfg.Database.Path), r.logger)
}

func (r *runtime) history() *uploadlog.Log {
	return uploadlog.New(r.dir)
}

func (r *runtime) roster() *accounts.Service {
	return accounts.FromConfig(r.cfg.BankAccounts)
}

// backend is where a session reads its dataset from: the local store, or a
// remote server when --server is set.
type backend struct {
	source   session.Source
	exporter session.Exporter
	creds    session.Credentials
	remote   *client.Client
	store    *storage.DB
}

func (o *rootOptions) remote(rt *runtime) (*client.Client, bool) {
	url := o.v.GetString(keyServer)
	if url == "" {
		return nil, false
	}
	return client.New(url, client.WithLogger(rt.logger)), true
}

func (o *rootOptions) openBackend(ctx context.Context, rt *runtime) (*backend, error) {
	if c, ok := o.remote(rt); ok {
		return &backend{
			source:   c,
			exporter: c,
			creds:    auth.Token(o.v.GetString(keyToken)),
			remote:   c,
		}, nil
	}

	db, err := rt.openStore(ctx)
	if err != nil {
		return nil, err
	}
	return &backend{
		source:   db,
		exporter: export.NewService(db, rt.logger),
		store:    db,
	}, nil
}

func (b *backend) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}

// session creates a controller over the backend. The sort and page size come
// from the config unless f overrides them.
func (b *backend) session(rt *runtime, f *filterFlags) *session.Controller {
	sort := query.SortSpec{
		Field: query.SortField(rt.cfg.Search.SortField),
		Order: query.SortOrder(rt.cfg.Search.SortOrder),
	}
	size := rt.cfg.Search.PageSize
	if f != nil {
		if f.sortBy != "" {
			sort = query.SortSpec{Field: query.SortField(f.sortBy), Order: query.Desc}
		}
		if f.sortOrder != "" {
			sort.Order = query.SortOrder(f.sortOrder)
		}
		if f.size > 0 {
			size = f.size
		}
	}

	return session.New(session.Options{
		Source:      b.source,
		Exporter:    b.exporter,
		Credentials: b.creds,
		PageSize:    size,
		Sort:        sort,
		Logger:      rt.logger,
	})
}

// describe appends the cause to a session transport error, which otherwise
// only carries a generic message.
func describe(err error) error {
	var te *session.TransportError
	if errors.As(err, &te) && te.Err != nil {
		return fmt.Errorf("%s: %w", te.UserMessage, te.Err)
	}
	return err
}

package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophvault/internal/config"
	"github.com/dmitrijs2005/gophvault/internal/decrypt"
	"github.com/dmitrijs2005/gophvault/internal/identity"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/objectstore"
	"github.com/dmitrijs2005/gophvault/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophvault/internal/services"
)

// App holds everything a vaultctl command needs.
type App struct {
	config   *config.Config
	db       *sql.DB
	repos    repomanager.RepositoryManager
	identity identity.Provider
	logger   logging.Logger

	vault   *services.VaultService
	folders *services.FolderService
	access  *services.AccessService
}

// AppFactory builds the App for a parsed configuration. Tests swap it.
type AppFactory func(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error)

// NewApp connects to the metadata store and the configured object store.
func NewApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error) {
	logger := logging.NewJSONLogger(logOut, cfg.LogLevel)

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("object store: %w", err)
	}

	return newApp(cfg, db, repomanager.NewPostgresRepositoryManager(), store, newIdentity(cfg), logger), nil
}

func newApp(cfg *config.Config, db *sql.DB, repos repomanager.RepositoryManager, store objectstore.Store,
	id identity.Provider, logger logging.Logger) *App {
	resolver := decrypt.NewResolver(id, cfg.LegacySalt, logger)
	return &App{
		config:   cfg,
		db:       db,
		repos:    repos,
		identity: id,
		logger:   logger,
		vault:    services.NewVaultService(db, repos, store, resolver, logger),
		folders:  services.NewFolderService(db, repos, store, logger),
		access:   services.NewAccessService(db, repos, logger),
	}
}

func newStore(ctx context.Context, cfg *config.Config) (objectstore.Store, error) {
	switch cfg.ObjectStore {
	case config.StoreS3:
		return objectstore.NewS3Store(ctx, objectstore.S3Options{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Timeout:      cfg.S3Timeout,
		})
	case config.StoreFS:
		return objectstore.NewFileStore(cfg.FileStoreRoot)
	case config.StoreMemory:
		return objectstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown object store %q", cfg.ObjectStore)
	}
}

// newIdentity prefers a token over a fixed principal.
func newIdentity(cfg *config.Config) identity.Provider {
	if cfg.AccessToken != "" {
		return identity.NewTokenProvider([]byte(cfg.TokenSecret), cfg.AccessToken)
	}
	return identity.NewStaticProvider(cfg.PrincipalID, cfg.PrincipalEmail)
}

func (a *App) principal(ctx context.Context) (string, error) {
	return a.identity.PrincipalID(ctx)
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

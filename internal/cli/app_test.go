package cli

import (
	"context"
	"io"
	"testing"

	"github.com/dmitrijs2005/gophvault/internal/config"
	"github.com/dmitrijs2005/gophvault/internal/identity"
	"github.com/dmitrijs2005/gophvault/internal/objectstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.ObjectStore = config.StoreMemory
	s, err := newStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &objectstore.MemoryStore{}, s)

	cfg.ObjectStore = config.StoreFS
	cfg.FileStoreRoot = t.TempDir()
	s, err = newStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &objectstore.FileStore{}, s)

	cfg.ObjectStore = config.StoreS3
	s, err = newStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &objectstore.S3Store{}, s)

	cfg.ObjectStore = "tape"
	_, err = newStore(ctx, cfg)
	assert.Error(t, err)
}

func TestNewIdentity(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.PrincipalID = "u1"
	cfg.PrincipalEmail = "u1@example.com"
	id := newIdentity(cfg)
	assert.IsType(t, &identity.StaticProvider{}, id)
	got, err := id.PrincipalID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", got)

	token, err := identity.GenerateToken("u9", "u9@example.com", []byte(cfg.TokenSecret), 0)
	require.NoError(t, err)
	cfg.AccessToken = token
	id = newIdentity(cfg)
	assert.IsType(t, &identity.TokenProvider{}, id)
}

func TestNewApp_BadDSN(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseDSN = "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"
	_, err := NewApp(context.Background(), cfg, io.Discard)
	assert.ErrorContains(t, err, "metadata store")
}

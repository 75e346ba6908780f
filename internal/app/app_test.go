package app

import (
	"testing"

	"go-bazaar-admin/internal/config"
	"go-bazaar-admin/internal/model"
	"go-bazaar-admin/internal/repository/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedConfig() *config.Config {
	return &config.Config{
		SeedAdminUsername: "root",
		SeedAdminEmail:    "root@x.com",
		SeedAdminPassword: "hunter22",
	}
}

func TestSeedAdmin_CreatesOnce(t *testing.T) {
	store := memstore.New()
	cfg := seedConfig()

	require.NoError(t, SeedAdmin(store, cfg, zap.NewNop()))
	require.NoError(t, SeedAdmin(store, cfg, zap.NewNop()))
	assert.Equal(t, 1, store.UserCount())

	admin, err := store.Users().FindByUsername("root")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.True(t, admin.Verified)
	assert.True(t, admin.CheckPassword("hunter22"))
}

func TestSeedAdmin_SkippedWhenUnset(t *testing.T) {
	store := memstore.New()
	cfg := seedConfig()
	cfg.SeedAdminPassword = ""

	require.NoError(t, SeedAdmin(store, cfg, zap.NewNop()))
	assert.Equal(t, 0, store.UserCount())
}

func TestSeedAdmin_EmailCollision(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.Users().Create(&model.User{Username: "someone", Email: "root@x.com"}))

	err := SeedAdmin(store, seedConfig(), zap.NewNop())
	assert.Error(t, err)
	assert.Equal(t, 1, store.UserCount())
}

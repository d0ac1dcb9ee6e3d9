package db_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arkade-os/l2wallet/internal/core/domain"
	"github.com/arkade-os/l2wallet/internal/infrastructure/db"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		config func(dir string) db.ServiceConfig
	}{
		{
			name: "repo_manager_with_badger_stores",
			config: func(dir string) db.ServiceConfig {
				return db.ServiceConfig{
					DataStoreType:   "badger",
					DataStoreConfig: []interface{}{dir, nil},
				}
			},
		},
		{
			name: "repo_manager_with_file_stores",
			config: func(dir string) db.ServiceConfig {
				return db.ServiceConfig{
					DataStoreType:   "file",
					DataStoreConfig: []interface{}{dir},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()

			svc, err := db.NewService(tt.config(dir))
			require.NoError(t, err)
			require.NotNil(t, svc)

			wallet, err := svc.Wallet().Get(ctx)
			require.NoError(t, err)
			require.Nil(t, wallet)

			now := time.Now().Unix()
			expected := domain.Wallet{Layer2: "opaque", CreatedAt: now, UpdatedAt: now}
			require.NoError(t, svc.Wallet().Upsert(ctx, expected))
			svc.Close()

			// State survives a restart.
			svc, err = db.NewService(tt.config(dir))
			require.NoError(t, err)
			defer svc.Close()

			wallet, err = svc.Wallet().Get(ctx)
			require.NoError(t, err)
			require.NotNil(t, wallet)
			require.Equal(t, expected, *wallet)
		})
	}
}

func TestServiceInvalid(t *testing.T) {
	dir := t.TempDir()

	fixtures := []db.ServiceConfig{
		{DataStoreType: "postgres", DataStoreConfig: []interface{}{dir}},
		{DataStoreType: "badger", DataStoreConfig: []interface{}{dir}},
		{DataStoreType: "badger", DataStoreConfig: []interface{}{42, nil}},
		{DataStoreType: "badger", DataStoreConfig: []interface{}{dir, "logger"}},
		{DataStoreType: "file", DataStoreConfig: []interface{}{""}},
		{DataStoreType: "file"},
	}

	for _, cfg := range fixtures {
		svc, err := db.NewService(cfg)
		require.Error(t, err)
		require.Nil(t, svc)
	}
}

func TestFileWalletCorrupted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wallet.json"), []byte("garbage"), 0o600))

	svc, err := db.NewService(db.ServiceConfig{
		DataStoreType:   "file",
		DataStoreConfig: []interface{}{dir},
	})
	require.NoError(t, err)
	defer svc.Close()

	wallet, err := svc.Wallet().Get(context.Background())
	require.Error(t, err)
	require.Nil(t, wallet)
}

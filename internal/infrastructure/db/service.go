package db

import (
	"fmt"

	"github.com/arkade-os/l2wallet/internal/core/domain"
	"github.com/arkade-os/l2wallet/internal/core/ports"
	badgerdb "github.com/arkade-os/l2wallet/internal/infrastructure/db/badger"
	filedb "github.com/arkade-os/l2wallet/internal/infrastructure/db/file"
)

var walletStoreTypes = map[string]func(...interface{}) (domain.WalletRepository, error){
	"badger": badgerdb.NewWalletRepository,
	"file":   filedb.NewWalletRepository,
}

type ServiceConfig struct {
	DataStoreType   string
	DataStoreConfig []interface{}
}

type service struct {
	walletStore domain.WalletRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	walletStoreFactory, ok := walletStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}

	walletStore, err := walletStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet store: %s", err)
	}

	return &service{walletStore}, nil
}

func (s *service) Wallet() domain.WalletRepository {
	return s.walletStore
}

func (s *service) Close() {
	s.walletStore.Close()
}

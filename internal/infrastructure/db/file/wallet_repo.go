package filedb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/arkade-os/l2wallet/internal/core/domain"
	"github.com/arkade-os/l2wallet/pkg/errors"
	filestore "github.com/arkade-os/l2wallet/pkg/layer2/store/file"
)

const (
	walletFile   = "wallet.json"
	walletSchema = 1
)

type walletRepository struct {
	lock  sync.Mutex
	path  string
	store *filestore.Store[domain.Wallet]
}

// NewWalletRepository expects the base directory where the wallet file lives.
func NewWalletRepository(config ...interface{}) (domain.WalletRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok || baseDir == "" {
		return nil, fmt.Errorf("invalid base directory")
	}

	return &walletRepository{
		path:  filepath.Join(baseDir, walletFile),
		store: filestore.New[domain.Wallet]("wallet", walletSchema, nil),
	}, nil
}

func (r *walletRepository) Get(_ context.Context) (*domain.Wallet, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	wallet, err := r.store.Load(r.path)
	if err != nil {
		if errors.LOCATION_MISSING.Is(err) {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *walletRepository) Upsert(_ context.Context, wallet domain.Wallet) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.store.Store(r.path, wallet); err != nil {
		return err
	}
	return nil
}

func (r *walletRepository) Close() {}

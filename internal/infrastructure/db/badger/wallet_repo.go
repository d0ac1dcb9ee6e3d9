package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/arkade-os/l2wallet/internal/core/domain"
	l2errors "github.com/arkade-os/l2wallet/pkg/errors"
	"github.com/arkade-os/l2wallet/pkg/layer2/store/codec"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const (
	walletStoreDir = "wallet"
	walletKey      = "wallet"
	walletSchema   = 1
	inMemoryPath   = ":memory:"

	maxRetries    = 5
	retryInterval = 100 * time.Millisecond
)

// walletRecord holds the wallet encoded in the same versioned envelope as the
// file repository, so both backends reject records of another schema.
type walletRecord struct {
	Envelope []byte
}

type walletRepository struct {
	store    *badgerhold.Store
	location l2errors.LocationMetadata
}

// NewWalletRepository expects the base directory and an optional badger
// logger. An empty base directory opens an in-memory store.
func NewWalletRepository(config ...interface{}) (domain.WalletRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	dir, path := "", inMemoryPath
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, walletStoreDir)
		path = dir
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet store: %s", err)
	}

	return &walletRepository{
		store: store,
		location: l2errors.LocationMetadata{
			Path: path, Concern: walletStoreDir, Backend: "badger",
		},
	}, nil
}

func (r *walletRepository) Get(ctx context.Context) (*domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var wallet *domain.Wallet
	err := r.store.Badger().View(func(tx *badger.Txn) error {
		w, err := r.get(tx)
		wallet = w
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// Upsert replaces the stored wallet. The creation time of an existing record
// is never overwritten.
func (r *walletRepository) Upsert(ctx context.Context, wallet domain.Wallet) error {
	upsert := func(tx *badger.Txn) error {
		current, err := r.get(tx)
		if err != nil {
			return err
		}
		if current != nil && current.CreatedAt != 0 {
			wallet.CreatedAt = current.CreatedAt
		}

		buf, serr := codec.Encode(r.location, walletSchema, wallet)
		if serr != nil {
			return serr
		}
		return r.store.TxUpsert(tx, walletKey, &walletRecord{Envelope: buf})
	}

	for attempts := 0; ; attempts++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.store.Badger().Update(upsert)
		if !errors.Is(err, badger.ErrConflict) || attempts >= maxRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

func (r *walletRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *walletRepository) get(tx *badger.Txn) (*domain.Wallet, error) {
	var record walletRecord
	if err := r.store.TxGet(tx, walletKey, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	wallet, lerr := codec.Decode[domain.Wallet](r.location, walletSchema, record.Envelope)
	if lerr != nil {
		return nil, lerr
	}
	return &wallet, nil
}

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	opts.InMemory = len(dbDir) <= 0

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}

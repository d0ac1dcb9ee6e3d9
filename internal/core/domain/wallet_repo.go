package domain

import "context"

type WalletRepository interface {
	// Get returns nil if no wallet was ever persisted.
	Get(ctx context.Context) (*Wallet, error)
	Upsert(ctx context.Context, wallet Wallet) error
	Close()
}

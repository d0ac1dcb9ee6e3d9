package ports

import "github.com/arkade-os/l2wallet/internal/core/domain"

type RepoManager interface {
	Wallet() domain.WalletRepository
	Close()
}

package application

import (
	"context"
	"time"

	"github.com/arkade-os/l2wallet/pkg/layer2"
)

type Service interface {
	// Open restores the wallet and loads the attached extension, if any.
	Open(ctx context.Context) error
	Save(ctx context.Context) error
	Close(ctx context.Context) error
	Extension() layer2.Extension
	// Update runs fn on the attached extension under the wallet lock and
	// saves the wallet if fn succeeds.
	Update(ctx context.Context, fn func(ext layer2.Extension) error) error
	Attach(ctx context.Context, ext layer2.Extension) error
	Detach(ctx context.Context) error
	GetInfo(ctx context.Context) (*WalletInfo, error)
}

type Config struct {
	Datadir string
	// AutosaveInterval is the period of the background save, 0 disables it.
	AutosaveInterval time.Duration
}

type WalletInfo struct {
	Datadir    string
	Layer2     string
	Layer2Kind string
	Layer2Dir  string
	Version    uint32
	CreatedAt  int64
	UpdatedAt  int64
	Autosave   time.Duration
	Registered []string
}

package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arkade-os/l2wallet/internal/core/domain"
	"github.com/arkade-os/l2wallet/internal/core/ports"
	"github.com/arkade-os/l2wallet/pkg/layer2"
	log "github.com/sirupsen/logrus"
)

const layer2Dir = "layer2"

type service struct {
	datadir          string
	autosaveInterval time.Duration

	registry  *layer2.Registry
	repo      domain.WalletRepository
	scheduler ports.SchedulerService

	lock   sync.Mutex
	wallet *domain.Wallet
	ext    layer2.Extension
	opened bool
}

func NewService(
	cfg Config, registry *layer2.Registry,
	repo domain.WalletRepository, scheduler ports.SchedulerService,
) (Service, error) {
	if cfg.Datadir == "" {
		return nil, fmt.Errorf("missing datadir")
	}
	if registry == nil {
		return nil, fmt.Errorf("missing extension registry")
	}
	if repo == nil {
		return nil, fmt.Errorf("missing wallet repository")
	}
	if cfg.AutosaveInterval < 0 {
		return nil, fmt.Errorf("invalid autosave interval: %s", cfg.AutosaveInterval)
	}
	if cfg.AutosaveInterval > 0 && scheduler == nil {
		return nil, fmt.Errorf("missing scheduler for autosave")
	}

	return &service{
		datadir:          cfg.Datadir,
		autosaveInterval: cfg.AutosaveInterval,
		registry:         registry,
		repo:             repo,
		scheduler:        scheduler,
		ext:              layer2.None,
	}, nil
}

func (s *service) Open(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.opened {
		return nil
	}

	wallet, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}
	if wallet == nil {
		now := time.Now().Unix()
		wallet = &domain.Wallet{Layer2: layer2.None.Name(), CreatedAt: now, UpdatedAt: now}
		if err := s.repo.Upsert(ctx, *wallet); err != nil {
			return err
		}
		log.Debug("created new wallet")
	}

	ext, err := s.registry.New(wallet.Layer2)
	if err != nil {
		return err
	}
	if lerr := ext.Load(s.extensionDir(ext)); lerr != nil {
		lerr.Log().WithField("extension", ext.Name()).Error("failed to load layer2 extension")
		return lerr
	}

	s.wallet = wallet
	s.ext = ext
	s.opened = true

	if s.autosaveInterval > 0 {
		if err := s.scheduler.ScheduleEvery(s.autosaveInterval, s.autosave); err != nil {
			return fmt.Errorf("failed to schedule autosave: %s", err)
		}
		s.scheduler.Start()
	}

	log.WithFields(log.Fields{
		"extension": ext.Name(),
		"kind":      ext.Kind(),
	}).Info("wallet opened")
	return nil
}

func (s *service) Save(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.save(ctx)
}

func (s *service) Close(ctx context.Context) error {
	// Stopped outside the lock, a running autosave holds it.
	if s.autosaveInterval > 0 {
		s.scheduler.Stop()
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.opened {
		return nil
	}

	err := s.save(ctx)
	s.repo.Close()
	s.opened = false
	return err
}

func (s *service) Extension() layer2.Extension {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.ext
}

func (s *service) Update(ctx context.Context, fn func(ext layer2.Extension) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.opened {
		return fmt.Errorf("wallet not opened")
	}
	if layer2.IsNone(s.ext) {
		return fmt.Errorf("no extension attached")
	}
	if err := fn(s.ext); err != nil {
		return err
	}
	return s.save(ctx)
}

func (s *service) Attach(ctx context.Context, ext layer2.Extension) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.opened {
		return fmt.Errorf("wallet not opened")
	}
	if ext == nil || layer2.IsNone(ext) {
		return fmt.Errorf("missing extension")
	}
	if !layer2.IsNone(s.ext) {
		return fmt.Errorf("extension %s already attached", s.ext.Name())
	}
	if !s.registry.Has(ext.Name()) {
		return fmt.Errorf("extension %s is not registered", ext.Name())
	}

	if serr := ext.Store(s.extensionDir(ext)); serr != nil {
		serr.Log().WithField("extension", ext.Name()).Error("failed to store layer2 extension")
		return serr
	}

	wallet := *s.wallet
	wallet.Layer2 = ext.Name()
	wallet.UpdatedAt = time.Now().Unix()
	if err := s.repo.Upsert(ctx, wallet); err != nil {
		return err
	}

	s.wallet = &wallet
	s.ext = ext
	log.WithField("extension", ext.Name()).Info("layer2 extension attached")
	return nil
}

func (s *service) Detach(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.opened {
		return fmt.Errorf("wallet not opened")
	}
	if layer2.IsNone(s.ext) {
		return nil
	}

	wallet := *s.wallet
	wallet.Layer2 = layer2.None.Name()
	wallet.UpdatedAt = time.Now().Unix()
	if err := s.repo.Upsert(ctx, wallet); err != nil {
		return err
	}

	dir := s.extensionDir(s.ext)
	if r, ok := s.ext.(layer2.Releaser); ok {
		if err := r.Release(dir); err != nil {
			log.WithError(err).Warnf("failed to release layer2 dir %s", dir)
		}
	}
	if err := os.RemoveAll(dir); err != nil {
		log.WithError(err).Warnf("failed to remove layer2 dir %s", dir)
	}

	log.WithField("extension", s.ext.Name()).Info("layer2 extension detached")
	s.wallet = &wallet
	s.ext = layer2.None
	return nil
}

func (s *service) GetInfo(ctx context.Context) (*WalletInfo, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.opened {
		return nil, fmt.Errorf("wallet not opened")
	}

	info := &WalletInfo{
		Datadir:    s.datadir,
		Layer2:     s.ext.Name(),
		Layer2Kind: s.ext.Kind().String(),
		Version:    s.ext.Version(),
		CreatedAt:  s.wallet.CreatedAt,
		UpdatedAt:  s.wallet.UpdatedAt,
		Autosave:   s.autosaveInterval,
		Registered: s.registry.Names(),
	}
	if !layer2.IsNone(s.ext) {
		info.Layer2Dir = s.extensionDir(s.ext)
	}
	return info, nil
}

func (s *service) save(ctx context.Context) error {
	if !s.opened {
		return fmt.Errorf("wallet not opened")
	}

	if serr := s.ext.Store(s.extensionDir(s.ext)); serr != nil {
		serr.Log().WithField("extension", s.ext.Name()).Error("failed to store layer2 extension")
		return serr
	}

	if layer2.IsNone(s.ext) {
		return nil
	}

	wallet := *s.wallet
	wallet.UpdatedAt = time.Now().Unix()
	if err := s.repo.Upsert(ctx, wallet); err != nil {
		return err
	}
	s.wallet = &wallet
	return nil
}

func (s *service) autosave() {
	if err := s.Save(context.Background()); err != nil {
		log.WithError(err).Warn("autosave failed")
		return
	}
	log.Debug("wallet autosaved")
}

func (s *service) extensionDir(ext layer2.Extension) string {
	return filepath.Join(s.datadir, layer2Dir, ext.Name())
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arkade-os/l2wallet/internal/core/application"
	"github.com/arkade-os/l2wallet/internal/core/ports"
	"github.com/arkade-os/l2wallet/internal/infrastructure/db"
	timescheduler "github.com/arkade-os/l2wallet/internal/infrastructure/scheduler/gocron"
	"github.com/arkade-os/l2wallet/pkg/layer2"
	"github.com/arkade-os/l2wallet/pkg/layer2/opaque"
	"github.com/arkade-os/l2wallet/pkg/layer2/store"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const configFileName = "l2wallet.yaml"

// envReplacer maps flag like `--my-param` to environment variables like `MY_PARAM`.
var envReplacer = strings.NewReplacer("-", "_")

var (
	supportedDbs = supportedType{
		"badger": {},
		"file":   {},
	}
	supportedDescriptorStores = supportedType{
		store.FileBackend:   {},
		store.BadgerBackend: {},
	}
	supportedDataStores = supportedType{
		store.FileBackend:   {},
		store.BadgerBackend: {},
	}
	supportedCacheStores = supportedType{
		store.FileBackend:   {},
		store.BadgerBackend: {},
		store.RedisBackend:  {},
	}
)

type Config struct {
	Datadir             string
	LogLevel            int
	DbType              string
	DescriptorStoreType string
	DataStoreType       string
	CacheStoreType      string
	RedisUrl            string
	CacheTTL            int64
	AutosaveInterval    int64

	repo      ports.RepoManager
	scheduler ports.SchedulerService
	registry  *layer2.Registry
	protocol  *opaque.Protocol
	rdb       *redis.Client
	svc       application.Service
}

func (c *Config) String() string {
	clone := *c
	if clone.RedisUrl != "" {
		clone.RedisUrl = "••••••"
	}
	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	defaultDatadir          = btcutil.AppDataDir("l2wallet", false)
	defaultLogLevel         = 4
	defaultDbType           = "badger"
	defaultStoreType        = store.FileBackend
	defaultCacheTTL         = 0  // seconds, 0 means no expiration
	defaultAutosaveInterval = 60 // seconds, 0 disables autosave
)

// env returns a list of strings prefixed with `L2WALLET_`.
// This is used as a syntax sugar for defining env vars.
func env(values ...string) []string {
	envs := make([]string, len(values))

	for i, value := range values {
		envs[i] = fmt.Sprintf("L2WALLET_%s", value)
	}

	return envs
}

var (
	Datadir = &cli.StringFlag{
		Usage: "Directory to store wallet data",
		Name:  "datadir", EnvVars: env("DATADIR"),
		Value: defaultDatadir,
	}

	LogLevel = &cli.IntFlag{
		Usage: "Logging level (0-6, where 6 is trace)",
		Name:  "log-level", EnvVars: env("LOG_LEVEL"),
		Value: defaultLogLevel,
	}

	DbType = &cli.StringFlag{
		Usage: "Wallet database type (badger, file)",
		Name:  "db-type", EnvVars: env("DB_TYPE"),
		Value: defaultDbType,
	}

	DescriptorStoreType = &cli.StringFlag{
		Usage: "Backend for layer2 descriptors (file, badger)",
		Name:  "descriptor-store-type", EnvVars: env("DESCRIPTOR_STORE_TYPE"),
		Value: defaultStoreType,
	}

	DataStoreType = &cli.StringFlag{
		Usage: "Backend for layer2 data (file, badger)",
		Name:  "data-store-type", EnvVars: env("DATA_STORE_TYPE"),
		Value: defaultStoreType,
	}

	CacheStoreType = &cli.StringFlag{
		Usage: "Backend for layer2 caches (file, badger, redis)",
		Name:  "cache-store-type", EnvVars: env("CACHE_STORE_TYPE"),
		Value: defaultStoreType,
	}

	RedisUrl = &cli.StringFlag{
		Usage: "Redis url, required if the cache store type is redis",
		Name:  "redis-url", EnvVars: env("REDIS_URL"),
	}

	CacheTTL = &cli.Int64Flag{
		Usage: "Expiration of layer2 caches stored in redis (in seconds), 0 means no expiration",
		Name:  "cache-ttl", EnvVars: env("CACHE_TTL"),
		Value: int64(defaultCacheTTL),
	}

	AutosaveInterval = &cli.Int64Flag{
		Usage: "How often the wallet is saved in background (in seconds), 0 disables autosave",
		Name:  "autosave-interval", EnvVars: env("AUTOSAVE_INTERVAL"),
		Value: int64(defaultAutosaveInterval),
	}
)

var Flags = []cli.Flag{
	Datadir,
	LogLevel,
	DbType,
	DescriptorStoreType,
	DataStoreType,
	CacheStoreType,
	RedisUrl,
	CacheTTL,
	AutosaveInterval,
}

// LoadConfig builds the config from the cli context. Options not given as
// flag or env var fall back to the l2wallet.yaml file in the datadir, if any.
func LoadConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	datadir := c.String(Datadir.Name)
	v, err := loadConfigFile(datadir)
	if err != nil {
		return nil, err
	}

	cacheStoreType := stringOption(c, v, CacheStoreType)
	redisUrl := stringOption(c, v, RedisUrl)
	if cacheStoreType == store.RedisBackend && redisUrl == "" {
		return nil, fmt.Errorf("cache store type set to 'redis' but redis url is missing")
	}

	return &Config{
		Datadir:             datadir,
		LogLevel:            intOption(c, v, LogLevel),
		DbType:              stringOption(c, v, DbType),
		DescriptorStoreType: stringOption(c, v, DescriptorStoreType),
		DataStoreType:       stringOption(c, v, DataStoreType),
		CacheStoreType:      cacheStoreType,
		RedisUrl:            redisUrl,
		CacheTTL:            int64Option(c, v, CacheTTL),
		AutosaveInterval:    int64Option(c, v, AutosaveInterval),
	}, nil
}

func loadConfigFile(datadir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("L2WALLET")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(envReplacer)
	v.SetConfigFile(filepath.Join(datadir, configFileName))
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config file: %s", err)
	}
	log.Debugf("loaded config file %s", v.ConfigFileUsed())
	return v, nil
}

func stringOption(c *cli.Context, v *viper.Viper, flag *cli.StringFlag) string {
	if !c.IsSet(flag.Name) && v.IsSet(flag.Name) {
		return v.GetString(flag.Name)
	}
	return c.String(flag.Name)
}

func intOption(c *cli.Context, v *viper.Viper, flag *cli.IntFlag) int {
	if !c.IsSet(flag.Name) && v.IsSet(flag.Name) {
		return v.GetInt(flag.Name)
	}
	return c.Int(flag.Name)
}

func int64Option(c *cli.Context, v *viper.Viper, flag *cli.Int64Flag) int64 {
	if !c.IsSet(flag.Name) && v.IsSet(flag.Name) {
		return v.GetInt64(flag.Name)
	}
	return c.Int64(flag.Name)
}

func initDatadir(c *cli.Context) error {
	datadir := c.String(Datadir.Name)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Datadir == "" {
		return fmt.Errorf("missing datadir")
	}
	if c.LogLevel < int(log.PanicLevel) || c.LogLevel > int(log.TraceLevel) {
		return fmt.Errorf("invalid log level %d, must be in range 0-6", c.LogLevel)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedDescriptorStores.supports(c.DescriptorStoreType) {
		return fmt.Errorf(
			"descriptor store type not supported, please select one of: %s",
			supportedDescriptorStores,
		)
	}
	if !supportedDataStores.supports(c.DataStoreType) {
		return fmt.Errorf(
			"data store type not supported, please select one of: %s", supportedDataStores,
		)
	}
	if !supportedCacheStores.supports(c.CacheStoreType) {
		return fmt.Errorf(
			"cache store type not supported, please select one of: %s", supportedCacheStores,
		)
	}
	if c.CacheStoreType == store.RedisBackend {
		if _, err := redis.ParseURL(c.RedisUrl); err != nil {
			return fmt.Errorf("invalid redis url: %s", err)
		}
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache ttl, must be >= 0")
	}
	if c.AutosaveInterval < 0 {
		return fmt.Errorf("invalid autosave interval, must be >= 0")
	}

	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	if err := c.layer2Registry(); err != nil {
		return err
	}
	if err := c.appService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) AppService() application.Service {
	return c.svc
}

func (c *Config) OpaqueProtocol() (opaque.Protocol, error) {
	if c.protocol == nil {
		return opaque.Protocol{}, fmt.Errorf("layer2 registry not set")
	}
	return *c.protocol, nil
}

// Cleanup releases the resources Validate acquired that the app service
// doesn't own.
func (c *Config) Cleanup() {
	if c.protocol != nil {
		if err := opaque.Close(*c.protocol); err != nil {
			log.WithError(err).Warn("failed to close layer2 stores")
		}
	}
	if c.rdb != nil {
		// nolint:all
		c.rdb.Close()
	}
}

func (c *Config) repoManager() error {
	var dataStoreConfig []interface{}
	switch c.DbType {
	case "badger":
		var logger badger.Logger
		if c.LogLevel >= int(log.DebugLevel) {
			logger = badgerLogger{}
		}
		dataStoreConfig = []interface{}{c.Datadir, logger}
	case "file":
		dataStoreConfig = []interface{}{c.Datadir}
	}

	svc, err := db.NewService(db.ServiceConfig{
		DataStoreType:   c.DbType,
		DataStoreConfig: dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) schedulerService() error {
	if c.AutosaveInterval <= 0 {
		return nil
	}
	c.scheduler = timescheduler.NewScheduler()
	return nil
}

func (c *Config) layer2Registry() error {
	storeConfig := func(storeType string) store.Config {
		return store.Config{Type: storeType}
	}
	cfg := opaque.Config{
		Descriptor: storeConfig(c.DescriptorStoreType),
		Data:       storeConfig(c.DataStoreType),
		Cache:      storeConfig(c.CacheStoreType),
	}
	if c.CacheStoreType == store.RedisBackend {
		redisOpts, err := redis.ParseURL(c.RedisUrl)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		c.rdb = redis.NewClient(redisOpts)
		cfg.Cache.Redis = c.rdb
		cfg.Cache.CacheTTL = time.Duration(c.CacheTTL) * time.Second
	}
	if c.LogLevel >= int(log.DebugLevel) {
		cfg.Descriptor.Logger = badgerLogger{}
		cfg.Data.Logger = badgerLogger{}
		cfg.Cache.Logger = badgerLogger{}
	}

	protocol, err := opaque.NewProtocol(cfg)
	if err != nil {
		return err
	}

	registry := layer2.NewRegistry()
	if err := registry.Register(opaque.Name, protocol.Factory()); err != nil {
		return err
	}

	c.protocol = &protocol
	c.registry = registry
	return nil
}

func (c *Config) appService() error {
	if c.repo == nil {
		return fmt.Errorf("wallet repository not set")
	}
	if c.registry == nil {
		return fmt.Errorf("layer2 registry not set")
	}

	svc, err := application.NewService(
		application.Config{
			Datadir:          c.Datadir,
			AutosaveInterval: time.Duration(c.AutosaveInterval) * time.Second,
		},
		c.registry, c.repo.Wallet(), c.scheduler,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

// badgerLogger routes badger's internal logs through logrus at debug level.
type badgerLogger struct{}

var _ badger.Logger = badgerLogger{}

func (badgerLogger) Errorf(format string, args ...any) {
	log.WithField("component", "badger").Errorf(strings.TrimSpace(format), args...)
}

func (badgerLogger) Warningf(format string, args ...any) {
	log.WithField("component", "badger").Warnf(strings.TrimSpace(format), args...)
}

func (badgerLogger) Infof(format string, args ...any) {
	log.WithField("component", "badger").Debugf(strings.TrimSpace(format), args...)
}

func (badgerLogger) Debugf(format string, args ...any) {
	log.WithField("component", "badger").Tracef(strings.TrimSpace(format), args...)
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}

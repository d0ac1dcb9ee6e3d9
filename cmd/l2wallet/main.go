package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/arkade-os/l2wallet/internal/config"
	"github.com/arkade-os/l2wallet/internal/core/application"
	"github.com/arkade-os/l2wallet/pkg/layer2"
	"github.com/arkade-os/l2wallet/pkg/layer2/opaque"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	Version string

	cfg *config.Config
	svc application.Service
)

func main() {
	app := cli.NewApp()
	app.Version = Version
	app.Name = "l2wallet"
	app.Usage = "wallet with pluggable layer2 extensions"
	app.Commands = append(
		app.Commands,
		&infoCommand,
		&initCommand,
		&showCommand,
		&setRecordCommand,
		&rebuildCacheCommand,
		&saveCommand,
		&detachCommand,
		&runCommand,
		&versionCommand,
	)
	app.Flags = config.Flags
	app.Before = func(ctx *cli.Context) error {
		if ctx.Args().First() == versionCommand.Name {
			return nil
		}

		c, err := config.LoadConfig(ctx)
		if err != nil {
			return fmt.Errorf("invalid config: %s", err)
		}
		log.SetLevel(log.Level(c.LogLevel))

		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config: %s", err)
		}
		log.Debugf("l2wallet config: %s", c)

		cfg = c
		svc = c.AppService()
		return svc.Open(ctx.Context)
	}
	app.After = func(ctx *cli.Context) error {
		if cfg == nil {
			return nil
		}
		defer cfg.Cleanup()
		return svc.Close(ctx.Context)
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println(fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}

var (
	infoCommand = cli.Command{
		Name:  "info",
		Usage: "Shows wallet and layer2 extension info",
		Action: func(ctx *cli.Context) error {
			info, err := svc.GetInfo(ctx.Context)
			if err != nil {
				return err
			}
			return printJSON(info)
		},
	}
	initCommand = cli.Command{
		Name:   "init",
		Usage:  "Attaches a new opaque layer2 extension to the wallet",
		Action: initExtension,
		Flags:  []cli.Flag{keyFlag, paramFlag},
	}
	showCommand = cli.Command{
		Name:  "show",
		Usage: "Shows descriptor, data and cache of the attached extension",
		Action: func(ctx *cli.Context) error {
			ext, err := opaqueExtension(svc.Extension())
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"descriptor":     ext.Descriptor(),
				"data":           ext.Data(),
				"cache":          ext.Cache(),
				"cacheRecovered": ext.CacheRecovered(),
			})
		},
	}
	setRecordCommand = cli.Command{
		Name:   "set-record",
		Usage:  "Sets a record in the data of the attached extension",
		Action: setRecord,
		Flags:  []cli.Flag{nameFlag, valueFlag},
	}
	rebuildCacheCommand = cli.Command{
		Name:   "rebuild-cache",
		Usage:  "Rebuilds the cache of the attached extension from its descriptor and data",
		Action: rebuildCache,
		Flags:  []cli.Flag{heightFlag},
	}
	saveCommand = cli.Command{
		Name:  "save",
		Usage: "Saves the wallet and its layer2 extension",
		Action: func(ctx *cli.Context) error {
			return svc.Save(ctx.Context)
		},
	}
	detachCommand = cli.Command{
		Name:  "detach",
		Usage: "Detaches the layer2 extension and removes its persisted state",
		Action: func(ctx *cli.Context) error {
			return svc.Detach(ctx.Context)
		},
	}
	runCommand = cli.Command{
		Name:  "run",
		Usage: "Keeps the wallet open, autosaving until interrupted",
		Action: func(ctx *cli.Context) error {
			log.Info("wallet running, press ctrl+c to stop")

			sigChan := make(chan os.Signal, 1)
			signal.Notify(
				sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP, os.Interrupt,
			)
			<-sigChan

			log.Info("shutting down wallet...")
			return nil
		},
	}
	versionCommand = cli.Command{
		Name:  "version",
		Usage: "Display version information",
		Action: func(ctx *cli.Context) error {
			fmt.Printf("l2wallet version: %s\n", Version)
			return nil
		},
	}
)

func initExtension(ctx *cli.Context) error {
	params := make(map[string]string)
	for _, param := range ctx.StringSlice(paramFlagName) {
		key, value, ok := strings.Cut(param, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid param %q, must be in key=value format", param)
		}
		params[key] = value
	}

	ext, ok := svc.Extension().(*opaque.Extension)
	if ok {
		return fmt.Errorf("extension already attached with key %s", ext.Descriptor().Key)
	}

	protocol, err := cfg.OpaqueProtocol()
	if err != nil {
		return err
	}
	ext = opaque.New(protocol, opaque.Descriptor{Key: ctx.String(keyFlagName), Params: params})
	if err := svc.Attach(ctx.Context, ext); err != nil {
		return err
	}

	fmt.Printf("layer2 extension attached, instance id: %s\n", ext.Manifest().InstanceID)
	return nil
}

func setRecord(ctx *cli.Context) error {
	var value any = ctx.String(valueFlagName)
	if raw := []byte(ctx.String(valueFlagName)); json.Valid(raw) {
		value = json.RawMessage(raw)
	}

	return svc.Update(ctx.Context, func(ext layer2.Extension) error {
		o, err := opaqueExtension(ext)
		if err != nil {
			return err
		}
		return opaque.SetRecord(o, ctx.String(nameFlagName), value)
	})
}

func rebuildCache(ctx *cli.Context) error {
	return svc.Update(ctx.Context, func(ext layer2.Extension) error {
		o, err := opaqueExtension(ext)
		if err != nil {
			return err
		}

		height := o.Cache().SyncHeight
		if ctx.IsSet(heightFlagName) {
			height = uint32(ctx.Uint(heightFlagName))
		}
		o.RebuildCache(opaque.Derive)
		cache := o.Cache()
		cache.SyncHeight = height
		o.SetCache(cache)
		return nil
	})
}

func opaqueExtension(ext layer2.Extension) (*opaque.Extension, error) {
	o, ok := ext.(*opaque.Extension)
	if !ok {
		return nil, fmt.Errorf("no opaque extension attached to the wallet")
	}
	return o, nil
}

func printJSON(resp interface{}) error {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(jsonBytes))
	return nil
}

package main

import "github.com/urfave/cli/v2"

const (
	keyFlagName    = "key"
	paramFlagName  = "param"
	nameFlagName   = "name"
	valueFlagName  = "value"
	heightFlagName = "height"
)

var (
	keyFlag = &cli.StringFlag{
		Name:     keyFlagName,
		Usage:    "key identifying the layer2 instance",
		Required: true,
	}
	paramFlag = &cli.StringSliceFlag{
		Name:  paramFlagName,
		Usage: "descriptor parameter in key=value format, can be repeated",
	}
	nameFlag = &cli.StringFlag{
		Name:     nameFlagName,
		Usage:    "name of the record",
		Required: true,
	}
	valueFlag = &cli.StringFlag{
		Name:     valueFlagName,
		Usage:    "value of the record, stored as JSON if valid, as string otherwise",
		Required: true,
	}
	heightFlag = &cli.UintFlag{
		Name:  heightFlagName,
		Usage: "height the rebuilt cache is synced to",
	}
)

package main

import (
	"os"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"

	"github.com/stigoleg/multimouse/internal/config"
	"github.com/stigoleg/multimouse/internal/logging"
)

const appVersion = "0.4.0"

// CLI is the command tree.
type CLI struct {
	Config  string           `help:"Config file (JSON, YAML or TOML)" placeholder:"FILE" env:"MULTIMOUSE_CONFIG"`
	Log     config.Log       `embed:"" prefix:"log."`
	Version kong.VersionFlag `short:"v" help:"Show version information"`

	Run     runCmd     `cmd:"" default:"withargs" help:"Fuse every connected mouse into one cursor (default)"`
	Devices devicesCmd `cmd:"" help:"List pointer devices and check permissions"`
	Conf    confCmd    `cmd:"" name:"config" help:"Manage configuration files"`
	Audit   auditCmd   `cmd:"" help:"Export or read the input audit log"`
}

type confCmd struct {
	Init config.InitCommand `cmd:"" help:"Write a configuration file with every default"`
}

func main() {
	userCfg := config.FindUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := config.ConfigCandidatePaths(userCfg)

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("multimouse"),
		kong.Description("Steer one cursor with several mice at once."),
		kong.UsageOnError(),
		kong.Vars{"version": appVersion},
		// flags and environment override config values
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	opts := logging.Options{Level: cli.Log.Level, File: cli.Log.File}
	if ctx.Command() == "run" {
		opts.File = cli.Run.Session.LogFile(cli.Log)
		opts.Quiet = !cli.Run.Session.Headless
	}
	logger, closeFiles, err := logging.SetupLogger(opts)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	ctx.Bind(logger)
	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

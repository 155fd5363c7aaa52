package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/Raimguhinov/linkal/internal/app"
	"github.com/Raimguhinov/linkal/internal/config"
)

// set via ldflags
var version = ""

type GlobalFlags struct {
	Config string `help:"Config file" type:"path" env:"CONFIG_PATH" default:"./configs/config.yml"`
}

func (f *GlobalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.Config)
	if err != nil {
		return nil, err
	}
	if version != "" {
		cfg.App.Version = version
	}
	return cfg, nil
}

type ServeCmd struct{}

func (cmd *ServeCmd) Run(g *GlobalFlags) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	return app.Run(cfg)
}

type CheckCmd struct{}

func (cmd *CheckCmd) Run(g *GlobalFlags) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	return app.Check(context.Background(), cfg, os.Stdout)
}

type EnvCmd struct{}

func (cmd *EnvCmd) Run() error {
	fmt.Println(config.Usage())
	return nil
}

type Cli struct {
	GlobalFlags

	Serve ServeCmd `cmd:"" default:"1" help:"Serve the aggregated calendars"`
	Check CheckCmd `cmd:"" help:"Probe every upstream calendar"`
	Env   EnvCmd   `cmd:"" help:"List the environment variables read by the config"`
}

func main() {
	cli := &Cli{}

	ctx := kong.Parse(cli,
		kong.Name("linkal"),
		kong.Description("A CalDAV gateway presenting several upstream calendars as one account."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)

	err := ctx.Run(&cli.GlobalFlags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Daemon  DaemonCmd        `cmd:"" help:"Serve equity requests over the line protocol"`
	Calc    CalcCmd          `cmd:"" help:"Compute equity once and print a report"`
	Query   QueryCmd         `cmd:"" help:"Query equity through a supervised daemon"`
	Tables  TablesCmd        `cmd:"" help:"Generate or verify the lookup tables"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pokerequity"),
		kong.Description("Monte Carlo hold'em equity engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}

package commands

import (
	"context"
	"fmt"

	"gopkg.in/alecthomas/kingpin.v2"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type versionCommand struct{}

// NewVersionCommand returns the version command.
func NewVersionCommand(app *kingpin.Application) Command {
	c := &versionCommand{}
	app.Command("version", "Shows version.")

	return c
}

func (versionCommand) Name() string { return "version" }
func (versionCommand) Run(ctx context.Context, config RootConfig) error {
	fmt.Fprintln(config.Stdout, Version)
	return nil
}

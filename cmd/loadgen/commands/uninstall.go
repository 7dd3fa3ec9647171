package commands

import (
	"context"
	"fmt"

	"gopkg.in/alecthomas/kingpin.v2"
)

type uninstallCommand struct{}

// NewUninstallCommand returns the uninstall command.
func NewUninstallCommand(app *kingpin.Application) Command {
	c := &uninstallCommand{}
	app.Command("uninstall", "Removes the k6 operator and everything this tool created.")

	return c
}

func (uninstallCommand) Name() string { return "uninstall" }
func (uninstallCommand) Run(ctx context.Context, config RootConfig) error {
	fw, err := newFramework(ctx, config)
	if err != nil {
		return err
	}

	if err := fw.Uninstall(); err != nil {
		return err
	}

	fmt.Fprintln(config.Stdout, "uninstall complete")
	return nil
}

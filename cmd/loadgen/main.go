package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/redhat/tempo-loadgen/cmd/loadgen/commands"
	"github.com/redhat/tempo-loadgen/framework"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	app := kingpin.New("loadgen", "Installs and drives k6 load tests against Tempo backend services.")
	app.DefaultEnvars()
	config := commands.NewRootConfig(app)

	// Setup commands (registers flags).
	installCmd := commands.NewInstallCommand(app)
	testCmd := commands.NewTestCommand(app)
	validateCmd := commands.NewValidateCommand(app)
	uninstallCmd := commands.NewUninstallCommand(app)
	versionCmd := commands.NewVersionCommand(app)

	cmds := map[string]commands.Command{
		installCmd.Name():   installCmd,
		testCmd.Name():      testCmd,
		validateCmd.Name():  validateCmd,
		uninstallCmd.Name(): uninstallCmd,
		versionCmd.Name():   versionCmd,
	}

	// Parse commandline.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	// Set up global dependencies.
	config.Stdin = stdin
	config.Stdout = stdout
	config.Stderr = stderr
	config.Logger = getLogger(*config)

	// Execute command.
	err = cmds[cmdName].Run(ctx, *config)
	if err != nil {
		return fmt.Errorf("%q command failed: %w", cmdName, err)
	}

	return nil
}

// getLogger returns the application logger.
func getLogger(config commands.RootConfig) logrus.FieldLogger {
	logger := logrus.New()
	logger.Out = config.Stderr // Logs go to stderr so stdout prints stay clean.
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:   !config.NoColor,
		DisableColors: config.NoColor,
	})
	if config.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nreceived interrupt, cancelling...")
		cancel()
		// Second interrupt force-exits
		<-sigCh
		os.Exit(130) // 128 + SIGINT(2)
	}()

	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		if framework.IsCancelled(err) {
			fmt.Fprintln(os.Stderr, "interrupted")
			os.Exit(130) // 128 + SIGINT(2)
		}
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

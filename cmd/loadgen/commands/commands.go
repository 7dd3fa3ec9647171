package commands

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/redhat/tempo-loadgen/framework"
)

// Command represents an application command, all commands that want to be
// executed should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context, config RootConfig) error
}

// RootConfig represents the root command configuration and global
// configuration for all the commands.
type RootConfig struct {
	// Global flags.
	Debug          bool
	NoColor        bool
	Namespace      string
	TempoNamespace string
	Stack          string
	OutputDir      string
	Kubeconfig     string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger logrus.FieldLogger
}

// NewRootConfig initializes the main root configuration.
func NewRootConfig(app *kingpin.Application) *RootConfig {
	c := &RootConfig{}

	// Register.
	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("namespace", "Namespace the load tests run in.").Default("k6-loadtest").StringVar(&c.Namespace)
	app.Flag("tempo-namespace", "Namespace the Tempo stack lives in.").Default("tempo").StringVar(&c.TempoNamespace)
	app.Flag("tempo-stack", "Name of the TempoStack custom resource.").Default("tempostack").StringVar(&c.Stack)
	app.Flag("output", "Directory the rendered TestRun manifests are written to.").Short('o').Default("manifests").StringVar(&c.OutputDir)
	app.Flag("kubeconfig", "Path to a kubeconfig file (defaults to in-cluster config, then $HOME/.kube/config).").StringVar(&c.Kubeconfig)

	return c
}

// newFramework builds a Framework from the root configuration.
func newFramework(ctx context.Context, config RootConfig) (*framework.Framework, error) {
	opts := []framework.Option{framework.WithLogger(config.Logger)}
	if config.Kubeconfig != "" {
		opts = append(opts, framework.WithKubeconfig(config.Kubeconfig))
	}
	return framework.New(ctx, config.Namespace, opts...)
}

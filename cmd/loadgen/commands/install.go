package commands

import (
	"context"
	"fmt"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/redhat/tempo-loadgen/framework"
	"github.com/redhat/tempo-loadgen/framework/k6"
)

type installCommand struct {
	scriptPath   string
	parallelism  int
	vus          int
	duration     string
	rate         int
	skipValidate bool
	skipPrereqs  bool
}

// NewInstallCommand returns the install command.
func NewInstallCommand(app *kingpin.Application) Command {
	c := &installCommand{}
	cmd := app.Command("install", "Installs the k6 operator and prepares per-service load tests.").Default()
	cmd.Flag("script", "Path to the k6 script loaded into the scripts ConfigMap.").Default(k6.DefaultScriptPath).StringVar(&c.scriptPath)
	cmd.Flag("parallelism", "Number of k6 runner pods per test.").Default("1").IntVar(&c.parallelism)
	cmd.Flag("vus", "Number of virtual users per runner.").Default("10").IntVar(&c.vus)
	cmd.Flag("duration", "Test duration for generated manifests.").Default("5m").StringVar(&c.duration)
	cmd.Flag("rate", "Target requests per second across all VUs (0 = unlimited).").Default("0").IntVar(&c.rate)
	cmd.Flag("skip-validation", "Skip the validation smoke run after install.").BoolVar(&c.skipValidate)
	cmd.Flag("skip-prereqs", "Skip the prerequisite checks.").BoolVar(&c.skipPrereqs)

	return c
}

func (i installCommand) Name() string { return "install" }
func (i installCommand) Run(ctx context.Context, config RootConfig) error {
	fw, err := newFramework(ctx, config)
	if err != nil {
		return err
	}
	logger := config.Logger

	if !i.skipPrereqs {
		prereqs, err := fw.CheckPrerequisites(framework.PrerequisiteOptions{
			TempoNamespace: config.TempoNamespace,
			Stack:          config.Stack,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(config.Stdout, prereqs.String())
		if err := prereqs.Err(); err != nil {
			return err
		}
	}

	opts := framework.InstallOptions{
		TempoNamespace: config.TempoNamespace,
		Stack:          config.Stack,
		ScriptPath:     i.scriptPath,
		OutputDir:      config.OutputDir,
		Parallelism:    i.parallelism,
		VUs:            i.vus,
		Duration:       i.duration,
		Rate:           i.rate,
	}
	if err := fw.Install(opts); err != nil {
		return err
	}

	if !i.skipValidate {
		result, err := fw.Validate(opts)
		if err != nil {
			logger.WithError(err).Warn("validation run could not complete")
		} else if !result.Passed {
			logger.Warnf("validation TestRun is in stage %q, expected finished", result.Stage)
			if result.Logs != "" {
				fmt.Fprintln(config.Stderr, result.Logs)
			}
		} else {
			logger.Info("validation TestRun finished")
		}
	}

	printGuidance(config)
	return nil
}

func printGuidance(config RootConfig) {
	fmt.Fprintf(config.Stdout, `
Install complete. Next steps:

  Run a load test against a backend service:
    loadgen test <service>          (services: %v)

  Follow a run to completion:
    loadgen test <service> --wait

  Re-run the validation smoke check:
    loadgen validate

  Inspect TestRuns:
    kubectl get testruns -n %s

  Remove everything:
    loadgen uninstall
`, k6.BackendNames(), config.Namespace)
}

package commands

import (
	"context"
	"fmt"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/redhat/tempo-loadgen/framework"
	"github.com/redhat/tempo-loadgen/framework/k6"
)

type testCommand struct {
	service string
	wait    bool
}

// NewTestCommand returns the test command.
func NewTestCommand(app *kingpin.Application) Command {
	c := &testCommand{}
	cmd := app.Command("test", "Runs the pre-generated load test against one backend service.")
	cmd.Arg("service", "Backend service to target.").Required().StringVar(&c.service)
	cmd.Flag("wait", "Block until the TestRun reaches a terminal stage.").BoolVar(&c.wait)

	return c
}

func (t testCommand) Name() string { return "test" }
func (t testCommand) Run(ctx context.Context, config RootConfig) error {
	fw, err := newFramework(ctx, config)
	if err != nil {
		return err
	}

	result, err := fw.RunTest(t.service, framework.TestOptions{
		OutputDir: config.OutputDir,
		Wait:      t.wait,
	})
	if err != nil {
		return err
	}

	if !t.wait {
		fmt.Fprintf(config.Stdout, "TestRun %s created, watch it with: kubectl get testrun %s -n %s -w\n",
			result.Name, result.Name, config.Namespace)
		return nil
	}

	if result.Stage != k6.StageFinished {
		logs, logErr := fw.RunnerLogs(result.Name)
		if logErr != nil && !framework.IsNotFound(logErr) {
			config.Logger.WithError(logErr).Warn("could not fetch runner logs")
		}
		if logs != "" {
			fmt.Fprintln(config.Stderr, logs)
		}
		return fmt.Errorf("TestRun %s ended in stage %q", result.Name, result.Stage)
	}

	fmt.Fprintf(config.Stdout, "TestRun %s finished\n", result.Name)
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runweave-labs/runweave-go/rundb"
	"github.com/runweave-labs/runweave-go/runtimes"
)

var (
	buildWatch        bool
	buildWithSDK      bool
	buildSkipDeployed bool
	buildCodePath     string
	buildTag          string
	buildOffset       int64
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Submit and inspect remote image builds",
}

var buildSubmitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Submit a function's image build from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  buildSubmit,
}

var buildStatusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show a build's state and log",
	Args:  cobra.ExactArgs(1),
	RunE:  buildStatus,
}

func init() {
	buildSubmitCmd.Flags().BoolVar(&buildWatch, "watch", true, "Follow the build log until it finishes")
	buildSubmitCmd.Flags().BoolVar(&buildWithSDK, "with-sdk", true, "Bake the SDK into the image")
	buildSubmitCmd.Flags().BoolVar(&buildSkipDeployed, "skip-deployed", false, "Skip when the function already has an image")
	buildSubmitCmd.Flags().StringVar(&buildCodePath, "code", "", "Entrypoint source file to embed in the build")

	buildStatusCmd.Flags().StringVar(&buildTag, "tag", "", "Version tag")
	buildStatusCmd.Flags().Int64Var(&buildOffset, "offset", 0, "Log byte offset (-1 skips the log)")

	buildCmd.AddCommand(buildSubmitCmd)
	buildCmd.AddCommand(buildStatusCmd)
}

func buildSubmit(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	body, err := loadSpecJSON(args[0])
	if err != nil {
		return err
	}
	var fn runtimes.Function
	if err := json.Unmarshal(body, &fn); err != nil {
		return fmt.Errorf("parse function %s: %w", args[0], err)
	}
	if fn.Metadata.Project == "" {
		fn.Metadata.Project = project
	}
	if buildCodePath != "" {
		if err := fn.WithCode(buildCodePath, nil); err != nil {
			return err
		}
	}

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	ready, err := runtimes.Deploy(ctx, be.db, &fn, runtimes.DeployOptions{
		Watch:        buildWatch,
		WithSDK:      buildWithSDK,
		SkipDeployed: buildSkipDeployed,
		Out:          os.Stdout,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("build of %s did not reach %s (state %q)", fn.Metadata.Name, runtimes.ReadyState, fn.Status.State)
	}
	fmt.Fprintf(os.Stderr, "image: %s\n", fn.Spec.Image)
	return nil
}

func buildStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	builder, ok := be.db.(rundb.BuildSubmitter)
	if !ok {
		return runtimes.ErrRemoteBuilderRequired
	}

	status, err := builder.BuilderStatus(ctx, args[0], project, buildTag, buildOffset)
	if err != nil {
		return err
	}
	if len(status.Log) > 0 {
		if _, err := os.Stdout.Write(status.Log); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "state: %s\n", status.State)
	if status.Pod != "" {
		fmt.Fprintf(os.Stderr, "pod: %s\n", status.Pod)
	}
	return nil
}

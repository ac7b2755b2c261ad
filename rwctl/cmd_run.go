package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runweave-labs/runweave-go/rundb"
)

var (
	runUID       string
	runIteration int
	runName      string
	runState     string
	runLabels    []string
	runIter      bool
	runUnsorted  bool
	runDaysAgo   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Store, read, list, and delete runs",
}

var runStoreCmd = &cobra.Command{
	Use:   "store <file>",
	Short: "Store a run document from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runStore,
}

var runGetCmd = &cobra.Command{
	Use:   "get <uid>",
	Short: "Read one run document",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var runUpdateCmd = &cobra.Command{
	Use:   "update <uid> <file>",
	Short: "Merge updates from a YAML or JSON file into a run",
	Args:  cobra.ExactArgs(2),
	RunE:  runUpdate,
}

var runRmCmd = &cobra.Command{
	Use:   "rm <uid>",
	Short: "Delete one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

var runListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var runPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs matching the filters",
	Args:  cobra.NoArgs,
	RunE:  runPrune,
}

func init() {
	runStoreCmd.Flags().StringVar(&runUID, "uid", "", "Run uid (generated when empty)")
	runStoreCmd.Flags().IntVar(&runIteration, "iteration", 0, "Hyper-parameter iteration")

	runGetCmd.Flags().IntVar(&runIteration, "iteration", 0, "Hyper-parameter iteration")
	runUpdateCmd.Flags().IntVar(&runIteration, "iteration", 0, "Hyper-parameter iteration")
	runRmCmd.Flags().IntVar(&runIteration, "iteration", 0, "Hyper-parameter iteration")

	runListCmd.Flags().StringVar(&runName, "name", "", "Filter by run name")
	runListCmd.Flags().StringVar(&runUID, "uid", "", "Filter by run uid")
	runListCmd.Flags().StringVar(&runState, "state", "", "Filter by run state")
	runListCmd.Flags().StringArrayVar(&runLabels, "label", nil, "Filter by label (key or key=value, repeatable)")
	runListCmd.Flags().BoolVar(&runIter, "iter", false, "Include per-iteration child runs")
	runListCmd.Flags().BoolVar(&runUnsorted, "unsorted", false, "Skip sorting by start time")

	runPruneCmd.Flags().StringVar(&runName, "name", "", "Filter by run name")
	runPruneCmd.Flags().StringVar(&runState, "state", "", "Filter by run state")
	runPruneCmd.Flags().StringArrayVar(&runLabels, "label", nil, "Filter by label (key or key=value, repeatable)")
	runPruneCmd.Flags().IntVar(&runDaysAgo, "days-ago", 0, "Only runs last updated more than N days ago")

	runCmd.AddCommand(runStoreCmd)
	runCmd.AddCommand(runGetCmd)
	runCmd.AddCommand(runUpdateCmd)
	runCmd.AddCommand(runRmCmd)
	runCmd.AddCommand(runListCmd)
	runCmd.AddCommand(runPruneCmd)
}

func runStore(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	body, err := loadSpecJSON(args[0])
	if err != nil {
		return err
	}

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	uid := runUID
	if uid == "" {
		uid = rundb.NewRunUID()
	}
	if err := be.db.StoreRun(ctx, body, uid, project, runIteration); err != nil {
		return err
	}
	fmt.Println(uid)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	body, err := be.db.ReadRun(ctx, args[0], project, runIteration)
	if err != nil {
		return err
	}
	return printDoc(os.Stdout, body)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	updates, err := loadSpecJSON(args[1])
	if err != nil {
		return err
	}

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	return be.db.UpdateRun(ctx, updates, args[0], project, runIteration)
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	return be.db.DelRun(ctx, args[0], project, runIteration)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	runs, err := be.db.ListRuns(ctx, rundb.ListRunsOptions{
		Name:     runName,
		UID:      runUID,
		Project:  project,
		Labels:   runLabels,
		State:    runState,
		Unsorted: runUnsorted,
		Iter:     runIter,
	})
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, runs)
}

func runPrune(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	return be.db.DelRuns(ctx, rundb.DelRunsOptions{
		Name:    runName,
		Project: project,
		Labels:  runLabels,
		State:   runState,
		DaysAgo: runDaysAgo,
	})
}

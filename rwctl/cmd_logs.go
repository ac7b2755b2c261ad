package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runweave-labs/runweave-go/rundb"
)

var (
	logsWatch  bool
	logsOffset int64
)

var logsCmd = &cobra.Command{
	Use:   "logs <uid>",
	Short: "Print a run's log, optionally following it until the run ends",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsWatch, "watch", "w", false, "Keep polling until the run leaves pending/running")
	logsCmd.Flags().Int64Var(&logsOffset, "offset", 0, "Byte offset to start from")
}

func runLogs(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	state, err := be.db.WatchLog(ctx, args[0], project, rundb.WatchLogOptions{
		Watch:  logsWatch,
		Offset: logsOffset,
		Out:    os.Stdout,
	})
	if err != nil {
		return err
	}
	if state != "" {
		fmt.Fprintf(os.Stderr, "state: %s\n", state)
	}
	return nil
}

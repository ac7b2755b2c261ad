package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Verify the backend is reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	// Opening the local backend already pings Postgres and the object
	// store, so reaching this point means both answered.
	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	if be.client != nil {
		if err := be.client.HealthCheck(ctx); err != nil {
			return err
		}
		fmt.Println("ok:", be.client.BaseURL())
		return nil
	}
	fmt.Println("ok: local backend")
	return nil
}

package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/runweave-labs/runweave-go/rundb"
)

var (
	artifactUID     string
	artifactTag     string
	artifactName    string
	artifactLabels  []string
	artifactDaysAgo int
)

var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Store, read, list, and delete artifacts",
}

var artifactStoreCmd = &cobra.Command{
	Use:   "store <key> <file>",
	Short: "Store an artifact document from a YAML or JSON file",
	Args:  cobra.ExactArgs(2),
	RunE:  artifactStore,
}

var artifactGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read one artifact document",
	Args:  cobra.ExactArgs(1),
	RunE:  artifactGet,
}

var artifactRmCmd = &cobra.Command{
	Use:   "rm <key>",
	Short: "Delete an artifact, or one tag of it",
	Args:  cobra.ExactArgs(1),
	RunE:  artifactRm,
}

var artifactListCmd = &cobra.Command{
	Use:   "list",
	Short: "List artifacts",
	Args:  cobra.NoArgs,
	RunE:  artifactList,
}

var artifactPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete artifacts matching the filters",
	Args:  cobra.NoArgs,
	RunE:  artifactPrune,
}

func init() {
	artifactStoreCmd.Flags().StringVar(&artifactUID, "uid", "", "Producing run uid (required)")
	artifactStoreCmd.Flags().StringVar(&artifactTag, "tag", "", "Tag to assign (default \"latest\")")

	artifactGetCmd.Flags().StringVar(&artifactTag, "tag", "", "Tag to read (default \"latest\")")
	artifactRmCmd.Flags().StringVar(&artifactTag, "tag", "", "Only remove this tag")

	artifactListCmd.Flags().StringVar(&artifactName, "name", "", "Filter by artifact key")
	artifactListCmd.Flags().StringVar(&artifactTag, "tag", "", "Filter by tag")
	artifactListCmd.Flags().StringArrayVar(&artifactLabels, "label", nil, "Filter by label (key or key=value, repeatable)")

	artifactPruneCmd.Flags().StringVar(&artifactName, "name", "", "Filter by artifact key")
	artifactPruneCmd.Flags().StringVar(&artifactTag, "tag", "", "Filter by tag")
	artifactPruneCmd.Flags().StringArrayVar(&artifactLabels, "label", nil, "Filter by label (key or key=value, repeatable)")
	artifactPruneCmd.Flags().IntVar(&artifactDaysAgo, "days-ago", 0, "Only artifacts last updated more than N days ago")

	artifactCmd.AddCommand(artifactStoreCmd)
	artifactCmd.AddCommand(artifactGetCmd)
	artifactCmd.AddCommand(artifactRmCmd)
	artifactCmd.AddCommand(artifactListCmd)
	artifactCmd.AddCommand(artifactPruneCmd)
}

func artifactStore(cmd *cobra.Command, args []string) error {
	if artifactUID == "" {
		return errors.New("--uid is required: artifacts belong to the run that produced them")
	}

	ctx, cancel := commandContext()
	defer cancel()

	body, err := loadSpecJSON(args[1])
	if err != nil {
		return err
	}

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	return be.db.StoreArtifact(ctx, args[0], body, artifactUID, artifactTag, project)
}

func artifactGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	body, err := be.db.ReadArtifact(ctx, args[0], artifactTag, project)
	if err != nil {
		return err
	}
	return printDoc(os.Stdout, body)
}

func artifactRm(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	return be.db.DelArtifact(ctx, args[0], artifactTag, project)
}

func artifactList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	artifacts, err := be.db.ListArtifacts(ctx, rundb.ListArtifactsOptions{
		Name:    artifactName,
		Project: project,
		Tag:     artifactTag,
		Labels:  artifactLabels,
	})
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, artifacts.Items)
}

func artifactPrune(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	return be.db.DelArtifacts(ctx, rundb.DelArtifactsOptions{
		Name:    artifactName,
		Project: project,
		Tag:     artifactTag,
		Labels:  artifactLabels,
		DaysAgo: artifactDaysAgo,
	})
}

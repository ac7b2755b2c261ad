package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/runweave-labs/runweave-go/rundb"
)

var (
	functionTag    string
	functionName   string
	functionLabels []string
)

var functionCmd = &cobra.Command{
	Use:   "function",
	Short: "Store, read, and list function documents",
}

var functionStoreCmd = &cobra.Command{
	Use:   "store <name> <file>",
	Short: "Store a function document from a YAML or JSON file",
	Args:  cobra.ExactArgs(2),
	RunE:  functionStore,
}

var functionGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Read one function document",
	Args:  cobra.ExactArgs(1),
	RunE:  functionGet,
}

var functionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List function documents",
	Args:  cobra.NoArgs,
	RunE:  functionList,
}

func init() {
	functionStoreCmd.Flags().StringVar(&functionTag, "tag", "", "Version tag")
	functionGetCmd.Flags().StringVar(&functionTag, "tag", "", "Version tag")

	functionListCmd.Flags().StringVar(&functionName, "name", "", "Filter by function name")
	functionListCmd.Flags().StringVar(&functionTag, "tag", "", "Filter by tag")
	functionListCmd.Flags().StringArrayVar(&functionLabels, "label", nil, "Filter by label (key or key=value, repeatable)")

	functionCmd.AddCommand(functionStoreCmd)
	functionCmd.AddCommand(functionGetCmd)
	functionCmd.AddCommand(functionListCmd)
}

func functionStore(cmd *cobra.Command, args []string) error {
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

	return be.db.StoreFunction(ctx, body, args[0], project, functionTag)
}

func functionGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	body, err := be.db.GetFunction(ctx, args[0], project, functionTag)
	if err != nil {
		return err
	}
	return printDoc(os.Stdout, body)
}

func functionList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.close()

	functions, err := be.db.ListFunctions(ctx, rundb.ListFunctionsOptions{
		Name:    functionName,
		Project: project,
		Tag:     functionTag,
		Labels:  functionLabels,
	})
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, functions)
}

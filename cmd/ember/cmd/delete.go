/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command.
var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a key-value pair",
	Long: `Delete a key-value pair from the emberdb store.

Example:
  ember delete mykey`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := engineFromContext(cmd)
		if err != nil {
			fmt.Println(err)
			return
		}

		key := []byte(args[0])
		if err := engine.Delete(key); err != nil {
			fmt.Printf("Error deleting key: %v\n", err)
			return
		}

		fmt.Printf("Successfully deleted key '%s'\n", string(key))
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

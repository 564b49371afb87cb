/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// getCmd represents the get command.
var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a value for a key",
	Long: `Get a value for a key from the emberdb store.

Example:
  ember get mykey`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := engineFromContext(cmd)
		if err != nil {
			fmt.Println(err)
			return
		}

		value, err := engine.Get([]byte(args[0]))
		if err != nil {
			fmt.Printf("Error getting value: %v\n", err)
			return
		}

		fmt.Printf("%s\n", string(value))
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}

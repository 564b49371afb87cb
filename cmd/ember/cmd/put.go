/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// putCmd represents the put command.
var putCmd = &cobra.Command{
	Use:   "put <key> <value>",
	Short: "Put a key-value pair",
	Long: `Put a key-value pair into the emberdb store.

Example:
  ember put mykey myvalue`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := engineFromContext(cmd)
		if err != nil {
			fmt.Println(err)
			return
		}

		key, value := []byte(args[0]), []byte(args[1])
		if err := engine.Set(key, value); err != nil {
			fmt.Printf("Error putting key-value: %v\n", err)
			return
		}

		fmt.Printf("Successfully put key '%s' with value '%s'\n", string(key), string(value))
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
}

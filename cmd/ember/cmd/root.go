/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberdb/emberdb/pkg/di"
	"github.com/emberdb/emberdb/pkg/store"
)

type contextKey string

const engineContextKey contextKey = "engine"

var container *di.Container

// SetContainer injects the dependency container built by main. Must be
// called before Execute.
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd is the base command when ember is called without any
// subcommands.
var rootCmd = &cobra.Command{
	Use:   "ember",
	Short: "emberdb - an embeddable append-only key-value store",
	Long: `emberdb is a Bitcask-style embeddable key-value store built on a
single append-only log, with a REST API and CLI front end.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}

		engine := store.NewEngine(store.EngineConfig{
			FilePath:      dataDir + "/active.log",
			FsyncInterval: time.Second,
		})
		recovery, err := engine.Open()
		if err != nil {
			return fmt.Errorf("failed to open engine: %w", err)
		}
		if recovery.RecordsValidated > 0 {
			fmt.Printf("recovered %d records in %s\n", recovery.RecordsValidated, recovery.RecoveryTime)
		}

		cmd.SetContext(context.WithValue(cmd.Context(), engineContextKey, engine))
		return nil
	},
}

// Execute adds all child commands to rootCmd and runs it. Called once
// by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Data directory for the store")
}

func engineFromContext(cmd *cobra.Command) (*store.Engine, error) {
	engine, ok := cmd.Context().Value(engineContextKey).(*store.Engine)
	if !ok {
		return nil, fmt.Errorf("engine not found in command context")
	}
	return engine, nil
}

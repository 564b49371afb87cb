/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberdb/emberdb/pkg/api"
)

// serveCmd starts the REST API server around the engine opened by
// rootCmd's PersistentPreRunE. Unlike 'up', it reads no configuration
// file and does not store a bootstrap system API key; all settings come
// from flags.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the emberdb REST API server",
	Long: `Start the emberdb REST API server over an already-initialized
data directory and system store.

Example:
  ember serve --api-key=mysecretkey --system-key=my-system-secret`,
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := engineFromContext(cmd)
		if err != nil {
			cmd.Println(err)
			os.Exit(1)
		}

		apiKey, _ := cmd.Flags().GetString("api-key")
		systemKey, _ := cmd.Flags().GetString("system-key")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		port, _ := cmd.Flags().GetInt("port")
		maxRecordSize, _ := cmd.Flags().GetInt("max-record-size")

		if apiKey == "" {
			cmd.Printf("Error: --api-key is required\n")
			os.Exit(1)
		}

		if container == nil {
			cmd.Printf("Error: dependency container not initialized\n")
			os.Exit(1)
		}

		serverStarter := container.GetServerFactory().CreateServerStarter()

		config := api.ServerConfig{
			Port:                port,
			APIKey:              apiKey,
			DataDir:             dataDir,
			SystemDataDir:       dataDir,
			SystemEncryptionKey: systemKey,
			EnableEncryption:    systemKey != "",
			MaxRecordSize:       maxRecordSize,
		}

		fmt.Printf("starting emberdb REST API server on port %d\n", port)
		if err := serverStarter.StartServer(engine, config); err != nil {
			cmd.Printf("Error starting server: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("api-key", "", "Client API key required on every request")
	serveCmd.Flags().String("system-key", "", "System encryption key for the system/API-key store")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Int("max-record-size", 4096, "Maximum accepted value size, in bytes, on PUT")
	_ = serveCmd.MarkFlagRequired("api-key")
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberdb/emberdb/pkg/api"
)

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize emberdb's system store for local development",
	Long: `Initialize emberdb's system store and set up a system API key for
local development.

This command will:
- Create the system data directory
- Initialize the system key-value store
- Set up the system API key for administrative operations
- Enable encryption for system data

This is required before running the server outside of 'ember up', which
bootstraps it automatically.

Examples:
  ember init --system-key=my-system-secret --data-dir=./data
  ember init --system-key=my-system-secret --system-api-key=my-api-key --data-dir=./data`,
	Run: func(cmd *cobra.Command, args []string) {
		systemKey, _ := cmd.Flags().GetString("system-key")
		systemAPIKey, _ := cmd.Flags().GetString("system-api-key")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		force, _ := cmd.Flags().GetBool("force")

		if systemKey == "" {
			cmd.Printf("Error: --system-key is required\n")
			os.Exit(1)
		}
		if dataDir == "" {
			dataDir = "./data"
		}

		if systemAPIKey == "" {
			var err error
			systemAPIKey, err = generateSystemAPIKey()
			if err != nil {
				cmd.Printf("Error generating system API key: %v\n", err)
				os.Exit(1)
			}
		}

		cmd.Printf("Initializing emberdb system...\n")
		cmd.Printf("Data directory: %s\n", dataDir)

		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			cmd.Printf("Error creating data directory: %v\n", err)
			os.Exit(1)
		}

		systemStorePath := fmt.Sprintf("%s/system/active.log", dataDir)
		if _, err := os.Stat(systemStorePath); err == nil && !force {
			cmd.Printf("System already initialized. Use --force to reinitialize.\n")
			cmd.Printf("System data location: %s\n", systemStorePath)
			return
		}

		if err := initializeSystemStore(dataDir, systemKey, systemAPIKey); err != nil {
			cmd.Printf("Error initializing system store: %v\n", err)
			os.Exit(1)
		}

		cmd.Printf("emberdb system initialization completed successfully\n")
		cmd.Printf("System API key: %s\n", systemAPIKey)
		cmd.Printf("Data directory: %s\n", dataDir)
		cmd.Printf("\nYou can now start the server with:\n")
		cmd.Printf("  ember serve --api-key=your-user-key --system-key=%s --data-dir=%s\n", systemKey, dataDir)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("system-key", "", "System encryption key for data protection (required)")
	initCmd.Flags().String("system-api-key", "", "System API key for administrative operations (optional, generated if absent)")
	initCmd.Flags().String("data-dir", "./data", "Data directory for emberdb")
	initCmd.Flags().Bool("force", false, "Force reinitialization even if the system store already exists")
	_ = initCmd.MarkFlagRequired("system-key")
}

// generateSystemAPIKey generates a 256-bit hex-encoded API key.
func generateSystemAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random API key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// paddedEncryptionKey normalizes key to exactly 32 bytes (AES-256):
// pad short keys with zero bytes, truncate long ones.
func paddedEncryptionKey(key string) string {
	switch {
	case len(key) < 32:
		return key + string(make([]byte, 32-len(key)))
	case len(key) > 32:
		return key[:32]
	default:
		return key
	}
}

// initializeSystemStore sets up the system key-value store and stores
// the bootstrap system API key.
func initializeSystemStore(dataDir, systemKey, systemAPIKey string) error {
	systemService, err := api.NewSystemService(api.SystemConfig{
		DataDir:          dataDir,
		EncryptionKey:    paddedEncryptionKey(systemKey),
		EnableEncryption: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create system service: %w", err)
	}

	if err := systemService.InitializeSystem(dataDir, systemKey, systemAPIKey); err != nil {
		return fmt.Errorf("failed to initialize system store: %w", err)
	}
	return nil
}

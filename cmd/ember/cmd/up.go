/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberdb/emberdb/pkg/api"
	"github.com/emberdb/emberdb/pkg/config"
)

// upCmd bootstraps and starts emberdb in one step: the recommended way
// to get a fresh instance running.
var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Bootstrap and start the emberdb server",
	Long: `Bootstrap emberdb by creating configuration and keys if they don't
exist, then start the REST API server. This is the recommended way to
get emberdb running.

The command will:
- Create a configuration file with secure keys if missing
- Initialize the system store
- Start the REST API server

Examples:
  ember up
  ember up --data-dir ./mydata --port 9000
  ember up --config ./custom-config.yaml --print-keys`,
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := engineFromContext(cmd)
		if err != nil {
			cmd.Println(err)
			os.Exit(1)
		}

		dataDir, _ := cmd.Flags().GetString("data-dir")
		port, _ := cmd.Flags().GetInt("port")
		bind, _ := cmd.Flags().GetString("bind")
		configPath, _ := cmd.Flags().GetString("config")
		printKeys, _ := cmd.Flags().GetBool("print-keys")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		var cfg *config.Config
		if config.ConfigExists(configPath) {
			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				cmd.Printf("Error loading existing config: %v\n", err)
				os.Exit(1)
			}
			cmd.Printf("Loaded existing configuration from %s\n", configPath)
		} else {
			cmd.Printf("First run detected. Bootstrapping emberdb...\n")
			cfg, err = config.BootstrapConfig(configPath, dataDir)
			if err != nil {
				cmd.Printf("Error bootstrapping config: %v\n", err)
				os.Exit(1)
			}
			cmd.Printf("Configuration created at %s\n", configPath)

			if printKeys {
				cmd.Printf("\nGenerated keys:\n")
				cmd.Printf("System Key: %s\n", cfg.Security.SystemKey)
				cmd.Printf("System API Key: %s\n", cfg.Security.SystemAPIKey)
				cmd.Printf("Client API Key: %s\n", cfg.Security.ClientAPIKey)
				cmd.Printf("\nStore these keys securely! They are also saved in %s\n", configPath)
			}
		}

		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if port != 8080 {
			cfg.Port = port
		}
		if bind != "127.0.0.1" {
			cfg.Bind = bind
		}

		if err := initializeSystemIfNeeded(cfg); err != nil {
			cmd.Printf("Error initializing system: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("starting emberdb server on %s:%d\n", cfg.Bind, cfg.Port)
		fmt.Printf("data directory: %s\n", cfg.DataDir)

		if container == nil {
			cmd.Printf("Error: dependency container not initialized\n")
			os.Exit(1)
		}

		serverStarter := container.GetServerFactory().CreateServerStarter()

		serverConfig := api.ServerConfig{
			Port:                cfg.Port,
			APIKey:              cfg.Security.ClientAPIKey,
			DataDir:             cfg.DataDir,
			SystemDataDir:       cfg.DataDir,
			SystemEncryptionKey: paddedEncryptionKey(cfg.Security.SystemKey),
			EnableEncryption:    true,
			MaxRecordSize:       cfg.Security.MaxRecordSize,
		}

		if err := serverStarter.StartServer(engine, serverConfig); err != nil {
			cmd.Printf("Error starting server: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(upCmd)

	upCmd.Flags().StringP("data-dir", "d", "./data", "Data directory for the store")
	upCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	upCmd.Flags().String("bind", "127.0.0.1", "Address to bind the server to")
	upCmd.Flags().String("config", "", "Path to config file (default: OS-specific location)")
	upCmd.Flags().Bool("print-keys", false, "Print generated API keys to the console")
}

// initializeSystemIfNeeded initializes the system store on first run,
// leaving an already-initialized store untouched.
func initializeSystemIfNeeded(cfg *config.Config) error {
	if container == nil {
		return fmt.Errorf("dependency container not initialized")
	}

	systemStorePath := fmt.Sprintf("%s/system/active.log", cfg.DataDir)
	if _, err := os.Stat(systemStorePath); err == nil {
		return nil
	}

	factory := container.GetSystemServiceFactory()
	systemService, err := factory.CreateSystemService(cfg.DataDir, paddedEncryptionKey(cfg.Security.SystemKey), true, cfg.Security.MaxRecordSize)
	if err != nil {
		return fmt.Errorf("failed to create system service: %w", err)
	}

	if err := systemService.InitializeSystem(cfg.DataDir, cfg.Security.SystemKey, cfg.Security.SystemAPIKey); err != nil {
		return fmt.Errorf("failed to initialize system store: %w", err)
	}

	return nil
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emberdb/emberdb/pkg/config"
)

// serviceCmd groups systemd service management subcommands.
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage emberdb as a systemd service",
	Long: `Manage emberdb as a systemd service. This command provides
native integration with systemd for production deployments.

The service is installed with restrictive security settings and
automatic restart on failure.`,
}

// installServiceCmd represents the service install command.
var installServiceCmd = &cobra.Command{
	Use:   "install",
	Short: "Install emberdb as a systemd service",
	Long: `Install emberdb as a systemd service with proper configuration.

This will:
- Create or use existing configuration
- Generate a systemd unit file
- Enable and optionally start the service

Examples:
  ember service install
  ember service install --data-dir /var/lib/emberdb --user emberdb`,
	Run: func(cmd *cobra.Command, args []string) {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		configPath, _ := cmd.Flags().GetString("config")
		user, _ := cmd.Flags().GetString("user")
		port, _ := cmd.Flags().GetInt("port")
		startNow, _ := cmd.Flags().GetBool("start")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		if os.Geteuid() != 0 {
			cmd.Printf("Error: service install requires root privileges\n")
			cmd.Printf("Run with: sudo ember service install\n")
			os.Exit(1)
		}

		cmd.Printf("Installing emberdb systemd service...\n")

		var cfg *config.Config
		var err error

		if config.ConfigExists(configPath) {
			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				cmd.Printf("Error loading config: %v\n", err)
				os.Exit(1)
			}
			cmd.Printf("Loaded existing configuration\n")
		} else {
			cfg, err = config.BootstrapConfig(configPath, dataDir)
			if err != nil {
				cmd.Printf("Error bootstrapping config: %v\n", err)
				os.Exit(1)
			}
			cmd.Printf("Created new configuration at %s\n", configPath)
		}

		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if port != 8080 {
			cfg.Port = port
		}

		if err := config.SaveConfig(cfg, configPath); err != nil {
			cmd.Printf("Error saving config: %v\n", err)
			os.Exit(1)
		}

		if err := createSystemdUnit(cfg, configPath, user); err != nil {
			cmd.Printf("Error creating systemd unit: %v\n", err)
			os.Exit(1)
		}

		if err := runSystemctlCommand("daemon-reload"); err != nil {
			cmd.Printf("Error reloading systemd: %v\n", err)
			os.Exit(1)
		}

		if err := runSystemctlCommand("enable", "emberdb.service"); err != nil {
			cmd.Printf("Error enabling service: %v\n", err)
			os.Exit(1)
		}

		cmd.Printf("Service enabled successfully\n")

		if startNow {
			if err := runSystemctlCommand("start", "emberdb.service"); err != nil {
				cmd.Printf("Error starting service: %v\n", err)
				os.Exit(1)
			}
			cmd.Printf("Service started successfully\n")
		}

		cmd.Printf("\nemberdb service installed\n")
		cmd.Printf("Service: emberdb.service\n")
		cmd.Printf("Config: %s\n", configPath)
		cmd.Printf("Data: %s\n", cfg.DataDir)
		cmd.Printf("Port: %d\n", cfg.Port)

		if !startNow {
			cmd.Printf("\nTo start the service: sudo systemctl start emberdb.service\n")
		}
		cmd.Printf("To check status: sudo systemctl status emberdb.service\n")
		cmd.Printf("To view logs: sudo journalctl -u emberdb.service -f\n")
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the emberdb service",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSystemctlCommand("start", "emberdb.service"); err != nil {
			cmd.Printf("Error starting service: %v\n", err)
			os.Exit(1)
		}
		cmd.Printf("emberdb service started\n")
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the emberdb service",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSystemctlCommand("stop", "emberdb.service"); err != nil {
			cmd.Printf("Error stopping service: %v\n", err)
			os.Exit(1)
		}
		cmd.Printf("emberdb service stopped\n")
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the emberdb service",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSystemctlCommand("restart", "emberdb.service"); err != nil {
			cmd.Printf("Error restarting service: %v\n", err)
			os.Exit(1)
		}
		cmd.Printf("emberdb service restarted\n")
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show emberdb service status",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSystemctlCommand("status", "emberdb.service"); err != nil {
			cmd.Printf("Error getting service status: %v\n", err)
			os.Exit(1)
		}
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show emberdb service logs",
	Long: `Show emberdb service logs using journalctl.

Examples:
  ember service logs
  ember service logs -f  # Follow logs`,
	Run: func(cmd *cobra.Command, args []string) {
		follow, _ := cmd.Flags().GetBool("follow")
		lines, _ := cmd.Flags().GetInt("lines")

		journalArgs := []string{"-u", "emberdb.service"}
		if follow {
			journalArgs = append(journalArgs, "-f")
		}
		if lines > 0 {
			journalArgs = append(journalArgs, fmt.Sprintf("-n%d", lines))
		}

		if err := runCommand("journalctl", journalArgs...); err != nil {
			cmd.Printf("Error getting service logs: %v\n", err)
			os.Exit(1)
		}
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the emberdb service",
	Run: func(cmd *cobra.Command, args []string) {
		if os.Geteuid() != 0 {
			cmd.Printf("Error: service uninstall requires root privileges\n")
			cmd.Printf("Run with: sudo ember service uninstall\n")
			os.Exit(1)
		}

		cmd.Printf("Uninstalling emberdb service...\n")

		_ = runSystemctlCommand("stop", "emberdb.service")

		if err := runSystemctlCommand("disable", "emberdb.service"); err != nil {
			cmd.Printf("Warning: could not disable service: %v\n", err)
		}

		unitPath := "/etc/systemd/system/emberdb.service"
		if _, err := os.Stat(unitPath); err == nil {
			if err := os.Remove(unitPath); err != nil {
				cmd.Printf("Error removing unit file: %v\n", err)
				os.Exit(1)
			}
		}

		if err := runSystemctlCommand("daemon-reload"); err != nil {
			cmd.Printf("Error reloading systemd: %v\n", err)
			os.Exit(1)
		}

		cmd.Printf("emberdb service uninstalled\n")
		cmd.Printf("Note: configuration and data files were not removed\n")
	},
}

func init() {
	rootCmd.AddCommand(serviceCmd)

	serviceCmd.AddCommand(installServiceCmd)
	serviceCmd.AddCommand(startCmd)
	serviceCmd.AddCommand(stopCmd)
	serviceCmd.AddCommand(restartCmd)
	serviceCmd.AddCommand(statusCmd)
	serviceCmd.AddCommand(logsCmd)
	serviceCmd.AddCommand(uninstallCmd)

	installServiceCmd.Flags().String("data-dir", "/var/lib/emberdb", "Data directory for the service")
	installServiceCmd.Flags().String("config", "", "Path to config file")
	installServiceCmd.Flags().String("user", "emberdb", "User to run the service as")
	installServiceCmd.Flags().Int("port", 8080, "Port for the service")
	installServiceCmd.Flags().Bool("start", true, "Start the service after installation")

	logsCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	logsCmd.Flags().IntP("lines", "n", 0, "Number of lines to show")
}

func createSystemdUnit(cfg *config.Config, configPath, user string) error {
	unitContent := fmt.Sprintf(`[Unit]
Description=emberdb Server
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=/usr/local/bin/ember up --config %s
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ReadWritePaths=%s
ReadWritePaths=%s

[Install]
WantedBy=multi-user.target
`, user, user, configPath, cfg.DataDir, filepath.Dir(configPath))

	unitPath := "/etc/systemd/system/emberdb.service"
	return os.WriteFile(unitPath, []byte(unitContent), 0o600)
}

func runSystemctlCommand(args ...string) error {
	return runCommand("systemctl", args...)
}

func runCommand(command string, args ...string) error {
	cmd := exec.Command(command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

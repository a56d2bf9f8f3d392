package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"facelink-core/internal/app/server"
	"facelink-core/internal/utils"
	"facelink-core/internal/version"

	"github.com/spf13/cobra"
)

var (
	configPath string
	noBanner   bool
)

// rootCmd 代表根命令
var rootCmd = &cobra.Command{
	Use:   "facelink",
	Short: "FaceLink Core - session broker for dial-out face recognition devices",
	Long: `FaceLink Core is a session broker for fleets of dial-out face
recognition cameras. Devices connect over TCP or WebSocket, register
with deviceOnline and keep the channel alive with heartbeats; the
management API exposes every device command over synchronous HTTP.`,
	Version: version.Full(),
	RunE:    runServe,
}

// serveCmd 启动服务
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the device session broker",
	RunE:  runServe,
}

// versionCmd 显示版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("FaceLink Core %s\n", version.Full())
		if version.BuildTime != "" {
			fmt.Printf("Build time: %s\n", version.BuildTime)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&noBanner, "no-banner", false, "Suppress the startup banner")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	absConfigPath, err := filepath.Abs(configPath)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	cfg, err := server.LoadConfig(absConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	srv := server.New(cfg, context.Background())

	if !noBanner {
		srv.DisplayStartupBanner(absConfigPath)
	}

	if err := srv.Run(); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	utils.Info("FaceLink Core server exited gracefully")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/common/version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"wuyrush.io/photo/common/logging"
	"wuyrush.io/photo/config"
	"wuyrush.io/photo/server"
)

const programName = "photo"

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:           programName,
	Short:         "Photo service",
	Long:          `Stores, normalizes and serves user photos over http at /api/photo.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the photo api until SIGINT or SIGTERM",
	RunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := config.LoadEnvFile(envFile); err != nil {
				return err
			}
		}
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		logging.SetupLog("PhotoServer", cfg.Verbose)
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.Serve(ctx, cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Print(programName))
	},
}

func init() {
	serveCmd.Flags().StringVar(&cfgFile, "config", "", "config file; env vars take precedence over it")
	serveCmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file loaded into the env before anything else")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("error running photo service")
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dukerupert/grocer/internal/config"
	"github.com/dukerupert/grocer/internal/logging"
)

var (
	configFile string
	envFile    string

	v      = config.NewViper()
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "grocer",
	Short: "Multi-user grocery list service",
	Long: `grocer serves grocery lists and their items over a JSON API with a
per-user websocket change feed. Lists and items are stored in SQLite or
PostgreSQL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnv(envFile); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load(v, configFile)
		if err != nil {
			return err
		}
		logger = logging.Setup(cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./grocer.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("database-dsn", "", "database DSN or sqlite path")
	bindFlag(v, "log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag(v, "database.dsn", rootCmd.PersistentFlags().Lookup("database-dsn"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadEnv loads a dotenv file without overriding variables already set.
// A missing file is ignored.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"issuetracker/internal/output"
	"issuetracker/internal/storage"
	"issuetracker/internal/storage/mongodb"
	"issuetracker/internal/storage/sqlite"
)

var (
	ui      *output.UI
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "issuetracker",
	Short: "Issue tracker API server",
	Long: `issuetracker serves a JSON API for creating, listing, updating and
deleting issues grouped by project, backed by SQLite or MongoDB.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		if ui == nil {
			ui = output.New()
		}
		ui.Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/issuetracker/config.yaml)")
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDirFunc(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ISSUES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Config file is optional.
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key with its default value.
func setDefaults() {
	dataDir := "."
	if dir, err := configDirFunc(); err == nil {
		dataDir = dir
	}

	viper.SetDefault("addr", ":8080")
	viper.SetDefault("static_dir", "")
	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("storage.sqlite.path", filepath.Join(dataDir, "issues.db"))
	viper.SetDefault("storage.mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("storage.mongo.database", "issuetracker")
	viper.SetDefault("storage.timeout", 10*time.Second)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
}

// newLogger builds the process logger from log.level and log.format.
func newLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(viper.GetString("log.format"), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore connects the store selected by storage.driver.
func openStore(ctx context.Context, logger *slog.Logger) (storage.Store, error) {
	switch driver := strings.ToLower(viper.GetString("storage.driver")); driver {
	case "sqlite", "":
		path := viper.GetString("storage.sqlite.path")
		ui.VerboseLog("Using sqlite database %s", path)
		s, err := sqlite.Open(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mongo", "mongodb":
		ctx, cancel := context.WithTimeout(ctx, viper.GetDuration("storage.timeout"))
		defer cancel()

		database := viper.GetString("storage.mongo.database")
		ui.VerboseLog("Using mongodb database %s", database)
		s, err := mongodb.Open(ctx, viper.GetString("storage.mongo.uri"), database, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q (want sqlite or mongo)", driver)
	}
}

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/totegamma/biomap/internal/config"
)

var configPath string

func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "biomap",
		Short:         "crowd-sourced biodiversity pin map",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
		tokenCommand(),
		pinsCommand(),
	)
	return rootCmd
}

func loadConfig() (config.Config, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	level, err := conf.SlogLevel()
	if err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	return conf, nil
}

func main() {
	err := rootCommand().Execute()
	if err != nil {
		slog.Error("command failed", slog.String("error", err.Error()), slog.String("module", "main"))
		os.Exit(1)
	}
}

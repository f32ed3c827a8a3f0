// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dikshapatel15/Decentralized-Voting-System/cliparse"
	"github.com/dikshapatel15/Decentralized-Voting-System/logger"
)

// newRootCmd builds the ballot command tree. Every subcommand shares cfg,
// filled from flags, then the env file, then the environment.
func newRootCmd() *cobra.Command {
	var (
		cfg     cliparse.Config
		envFile string
	)

	rootCmd := &cobra.Command{
		Use:           "ballot",
		Short:         "Single-election voting service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cliparse.LoadEnvFile(envFile); err != nil {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			if err := cliparse.ApplyEnv(cmd.Flags()); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := logger.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(log)
			return nil
		},
	}

	rootCmd.PersistentFlags().AddFlagSet(cliparse.NewFlagSet("ballot", &cfg))
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "KEY=value file loaded before reading the environment")

	rootCmd.AddCommand(
		newServeCmd(&cfg),
		newTokenCmd(&cfg),
		newStatusCmd(&cfg),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

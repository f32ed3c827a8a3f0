// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dikshapatel15/Decentralized-Voting-System/auth"
	"github.com/dikshapatel15/Decentralized-Voting-System/cliparse"
	"github.com/dikshapatel15/Decentralized-Voting-System/election"
)

func newTokenCmd(cfg *cliparse.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "token <principal>",
		Short: "Print a bearer token for principal",
		Long:  "Signs a bearer token with the configured JWT secret. The server accepts it as proof that the caller is principal until it expires.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.JWTSecret == "" {
				return errors.New("JWT secret required (use --jwt-secret or JWT_SECRET env)")
			}
			tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
			if err != nil {
				return err
			}

			token, err := tokens.Issue(election.Principal(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

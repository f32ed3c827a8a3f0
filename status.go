// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dikshapatel15/Decentralized-Voting-System/cliparse"
	"github.com/dikshapatel15/Decentralized-Voting-System/db"
	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/ledger"
	"github.com/dikshapatel15/Decentralized-Voting-System/sentinel"
)

func newStatusCmd(cfg *cliparse.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the stored election's status and current leader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseType == db.TypeMemory {
				return errors.New("status needs a sqlite or postgres database")
			}
			store, closeStore, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			return printStatus(cmd.Context(), cmd.OutOrStdout(), store)
		},
	}
}

// printStatus writes a human-readable summary of the election held by store.
func printStatus(ctx context.Context, w io.Writer, store ledger.Store) error {
	snap, err := store.Load(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		fmt.Fprintln(w, "No election has been created yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load election: %w", err)
	}

	e, err := election.Restore(snap)
	if err != nil {
		return fmt.Errorf("restore election: %w", err)
	}
	st := e.Status()

	voted := 0
	for _, v := range snap.Voters {
		if v.HasVoted {
			voted++
		}
	}

	fmt.Fprintf(w, "Election:      %s\n", st.Name)
	fmt.Fprintf(w, "Administrator: %s\n", e.Administrator())
	fmt.Fprintf(w, "Phase:         %s\n", st.Phase)
	fmt.Fprintf(w, "Candidates:    %s\n", humanize.Comma(int64(st.CandidateCount)))
	fmt.Fprintf(w, "Voters:        %s registered, %s voted\n",
		humanize.Comma(int64(len(snap.Voters))), humanize.Comma(int64(voted)))

	res, err := e.Results()
	switch {
	case errors.Is(err, election.ErrNoCandidates):
		fmt.Fprintln(w, "Leader:        none")
	case err != nil:
		return err
	default:
		label := "Leader:"
		if res.Phase == election.PhaseClosed {
			label = "Winner:"
		}
		share := 0.0
		if res.TotalVotes > 0 {
			share = 100 * float64(res.WinnerVotes) / float64(res.TotalVotes)
		}
		fmt.Fprintf(w, "%-14s %s (#%d) with %s of %s votes (%.1f%%)\n", label,
			res.WinnerName, res.WinnerID,
			humanize.Comma(int64(res.WinnerVotes)), humanize.Comma(int64(res.TotalVotes)),
			share)
	}

	if snap.Seq == 0 {
		return nil
	}
	events, err := store.Events(ctx, snap.Seq-1, 1)
	if err != nil {
		return fmt.Errorf("read last event: %w", err)
	}
	if len(events) == 1 {
		ev := events[0]
		fmt.Fprintf(w, "Last event:    #%s %s %s\n", humanize.Comma(int64(ev.Seq)), ev.Kind, humanize.Time(ev.At))
	}
	return nil
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vibewithgary/gary/internal/api"
	"github.com/vibewithgary/gary/internal/state"
)

func mirrorEntry(ch api.ChatSummary, projectID string) *state.Session {
	return &state.Session{ID: ch.ID, ProjectID: projectID, Title: ch.Title, UpdatedAt: ch.UpdatedAt}
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect stored chat sessions",
	}
	cmd.AddCommand(sessionsListCmd(), sessionsShowCmd(), sessionsDeleteCmd())
	return cmd
}

func sessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.api.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range sessions {
				updated := time.Unix(int64(s.UpdatedAt), 0).Format("2006-01-02 15:04")
				fmt.Printf("%-36s  %-19s  %s\n", s.ID, updated, s.Title)
			}
			return nil
		},
	}
}

func sessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a session's transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			tr, err := a.api.Session(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("# %s\n\n", tr.Title)
			for _, m := range tr.Messages {
				fmt.Printf("[%s] %s\n", m.Role, m.Content)
			}
			return nil
		},
	}
}

func sessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.api.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.store.DeleteSession(args[0])
		},
	}
}

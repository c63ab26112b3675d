package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vibewithgary/gary/internal/execmode"
)

func pairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pair <code>",
		Short: "Pair a desktop agent using its 6-character code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			sel := execmode.New(nil, a.api, nil,
				func() string { return a.api.Token },
				func() (string, string) { return "", "" })
			if err := sel.Pair(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Agent paired. Code will now run on your machine.")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether an execution agent is attached",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.api.Status(cmd.Context())
			if err != nil {
				return err
			}
			if !st.DesktopConnected {
				fmt.Println("No agent attached — code runs in a cloud sandbox")
				return nil
			}
			if st.ConnectedSince != nil {
				since := time.Unix(int64(*st.ConnectedSince), 0)
				fmt.Printf("Agent attached since %s\n", since.Format(time.RFC1123))
			} else {
				fmt.Println("Agent attached")
			}
			return nil
		},
	}
}

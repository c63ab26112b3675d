package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func sandboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Manage cloud sandboxes",
	}
	cmd.AddCommand(sandboxListCmd(), sandboxCreateCmd(), sandboxDestroyCmd())
	return cmd
}

func sandboxListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your sandboxes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			sandboxes, err := a.api.Sandboxes(cmd.Context())
			if err != nil {
				return err
			}
			if len(sandboxes) == 0 {
				fmt.Println("No sandboxes")
				return nil
			}
			for _, sb := range sandboxes {
				created := time.Unix(int64(sb.CreatedAt), 0).Format("2006-01-02 15:04")
				fmt.Printf("%-24s  %-12s  %-10s  created %s\n", sb.ID, sb.Status, sb.Region, created)
			}
			return nil
		},
	}
}

func sandboxCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Provision a sandbox (reuses a running one)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			sb, err := a.api.CreateSandbox(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", sb.ID, sb.Status)
			return nil
		},
	}
}

func sandboxDestroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <id>",
		Short: "Tear a sandbox down",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.api.DestroySandbox(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Destroyed")
			return nil
		},
	}
}

func usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show execution usage and unbilled cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.api.Usage(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Executions: %d (%d local, %d cloud)\n",
				u.Total.Executions, u.Total.LocalCount, u.Total.VirtualCount)
			fmt.Printf("Compute:    %d ms, %d billable units\n",
				u.Total.DurationMs, u.Total.BillableUnits)
			fmt.Printf("Unbilled:   %d units (~$%.2f)\n",
				u.Unbilled.BillableUnits, u.Unbilled.EstimatedCostUSD)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func broCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bro [level]",
		Short: "Show or set the vibe level (0-100)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 0 {
				level, err := a.store.BroLevel()
				if err != nil {
					return err
				}
				fmt.Println(level)
				return nil
			}

			level, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("level must be a number: %q", args[0])
			}
			if err := a.store.SetBroLevel(level); err != nil {
				return err
			}
			saved, _ := a.store.BroLevel()
			fmt.Printf("bro level set to %d\n", saved)
			return nil
		},
	}
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vibewithgary/gary/internal/config"
	"github.com/vibewithgary/gary/internal/logger"
)

var configFlag string

func main() {
	root := &cobra.Command{
		Use:   "gary",
		Short: "gary — chat with an agent that can actually run things",
		Long:  "Talks to the gary relay. Code runs on your paired desktop agent or in a throwaway cloud sandbox; anything destructive waits for your sign-off.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag)
			if err != nil {
				return err
			}
			return logger.Init(cfg.Logging.Level, cfg.Logging.File)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (default ~/.gary/config.yaml)")

	root.AddCommand(
		connectCmd(),
		loginCmd(),
		logoutCmd(),
		registerCmd(),
		pairCmd(),
		statusCmd(),
		projectsCmd(),
		sessionsCmd(),
		runCmd(),
		sandboxCmd(),
		usageCmd(),
		broCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		var err error
		path, err = config.ConfigPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

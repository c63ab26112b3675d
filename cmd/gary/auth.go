package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the relay via GitHub",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Printf("Open this URL in your browser and authorize:\n\n  %s\n\n", a.api.LoginURL())
			fmt.Print("Paste the token you receive: ")
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return err
			}
			token := strings.TrimSpace(line)
			if token == "" {
				return fmt.Errorf("no token entered")
			}
			if err := a.store.SaveToken(token); err != nil {
				return err
			}

			// Cache the username while we have a fresh token.
			a.api.Token = token
			if me, err := a.api.Me(cmd.Context()); err == nil {
				a.store.SetUsername(me.GithubUsername)
				fmt.Printf("Logged in as %s\n", me.GithubUsername)
			} else {
				fmt.Println("Token saved")
			}
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.store.ClearToken(); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an anonymous account and store its API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			userID, apiKey, err := a.api.Register(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.store.SaveToken(apiKey); err != nil {
				return err
			}
			fmt.Printf("Registered as %s\n", userID)
			return nil
		},
	}
}

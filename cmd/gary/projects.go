package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			projects, err := a.api.Projects(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No projects yet — gary projects create <name>")
				return nil
			}
			for _, p := range projects {
				fmt.Printf("%-36s  %s\n", p.ID, p.Name)
			}
			return nil
		},
	}
	cmd.AddCommand(projectsCreateCmd(), projectsRenameCmd(), projectsDeleteCmd(), projectsChatsCmd())
	return cmd
}

func projectsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.api.CreateProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
}

func projectsRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.api.RenameProject(cmd.Context(), args[0], args[1])
		},
	}
}

func projectsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and its chats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.api.DeleteProject(cmd.Context(), args[0])
		},
	}
}

func projectsChatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chats <id>",
		Short: "List a project's chats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			chats, err := a.api.ProjectChats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, ch := range chats {
				// Mirror what we saw so launch-time pickers have data.
				a.store.UpsertSession(mirrorEntry(ch, args[0]))
				updated := time.Unix(int64(ch.UpdatedAt), 0).Format("2006-01-02 15:04")
				fmt.Printf("%-36s  %-19s  %s\n", ch.ID, updated, ch.Title)
			}
			return nil
		},
	}
}

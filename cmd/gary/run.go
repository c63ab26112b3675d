package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vibewithgary/gary/internal/execmode"
	"github.com/vibewithgary/gary/internal/ws"
)

func runCmd() *cobra.Command {
	var lang string
	var file string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run [code]",
		Short: "Execute code once and print the output",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireToken(); err != nil {
				return err
			}

			code := ""
			switch {
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				code = string(data)
			case len(args) == 1:
				code = args[0]
			default:
				return fmt.Errorf("pass code as an argument or with --file")
			}

			ctx := cmd.Context()
			channel := &ws.Channel{URL: a.cfg.ChannelURL(), Saver: a.store}
			router := ws.NewRouter(channel)
			selector := execmode.New(router, a.api, channel,
				func() string { return channel.Token() },
				func() (string, string) { return "", "" })

			if st, err := a.api.Status(ctx); err == nil && st.DesktopConnected {
				selector.SetPaired(true)
			}

			connected := make(chan struct{})
			channel.OnState = func(s ws.State) {
				if s == ws.StateConnected {
					select {
					case connected <- struct{}{}:
					default:
					}
				}
			}

			done := make(chan error, 1)
			router.Handle(ws.TypeCodeOutput, decode(func(m *ws.CodeOutput) {
				fmt.Print(m.Output)
				if m.ExitCode != 0 {
					done <- fmt.Errorf("exit code %d", m.ExitCode)
					return
				}
				done <- nil
			}))
			router.Handle(ws.TypeCodeError, decode(func(m *ws.CodeError) {
				done <- fmt.Errorf("execution failed: %s", m.Error)
			}))

			channel.Connect(ctx, a.api.Token)
			defer channel.Close()

			select {
			case <-connected:
			case <-time.After(30 * time.Second):
				return fmt.Errorf("could not reach the relay")
			case <-ctx.Done():
				return ctx.Err()
			}

			if _, err := selector.RunCode(code, lang); err != nil {
				return err
			}
			select {
			case err := <-done:
				return err
			case <-time.After(timeout):
				return fmt.Errorf("no result within %s", timeout)
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "python", "Language to execute")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read code from a file")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "How long to wait for output")
	return cmd
}

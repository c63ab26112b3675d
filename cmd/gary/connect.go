package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vibewithgary/gary/internal/approval"
	"github.com/vibewithgary/gary/internal/execmode"
	"github.com/vibewithgary/gary/internal/session"
	"github.com/vibewithgary/gary/internal/ws"
)

func connectCmd() *cobra.Command {
	var cloud bool

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Open an interactive chat with gary",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configFlag)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireToken(); err != nil {
				return err
			}
			return runChat(cmd, a, cloud)
		},
	}
	cmd.Flags().BoolVar(&cloud, "cloud", false, "Bring up a cloud sandbox before chatting")
	return cmd
}

// chat owns the wiring of one interactive connection: channel, router,
// session focus, approval gate and execution selector, all feeding a
// line-oriented prompt loop.
type chat struct {
	app      *app
	channel  *ws.Channel
	router   *ws.Router
	sessions *session.Context
	gate     *approval.Gate
	selector *execmode.Selector
}

func runChat(cmd *cobra.Command, a *app, cloud bool) error {
	ctx := cmd.Context()

	channel := &ws.Channel{URL: a.cfg.ChannelURL(), Saver: a.store}
	router := ws.NewRouter(channel)
	sessions := session.NewContext(router, a.api, a.store)
	gate := approval.NewGate(router)
	selector := execmode.New(router, a.api, channel,
		func() string { return channel.Token() },
		func() (string, string) {
			sid, pid := "", ""
			if cur := sessions.Current(); cur != nil {
				sid = cur.ID
			}
			if p := sessions.CurrentProject(); p != nil {
				pid = p.ID
			}
			return sid, pid
		})

	c := &chat{app: a, channel: channel, router: router, sessions: sessions, gate: gate, selector: selector}
	c.wire()

	if projects, err := a.api.Projects(ctx); err == nil {
		sessions.SetProjects(projects)
		sessions.PrefetchAll()
	}
	if st, err := a.api.Status(ctx); err == nil && st.DesktopConnected {
		selector.SetPaired(true)
	}

	if cloud {
		fmt.Println("Bringing up a sandbox...")
		sb, err := selector.StartCloudSession(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Sandbox %s ready\n", sb.ID)
	} else {
		channel.Connect(ctx, a.api.Token)
	}

	return c.loop(ctx.Done())
}

func (c *chat) wire() {
	c.channel.OnState = func(s ws.State) {
		switch s {
		case ws.StateConnected:
			fmt.Println("* connected")
		case ws.StateDisconnected:
			fmt.Println("* disconnected")
		}
	}

	c.sessions.OnConversationCleared = func() {
		fmt.Println("--- new conversation ---")
	}
	c.sessions.OnTranscript = func(messages []ws.TranscriptMessage) {
		for _, m := range messages {
			fmt.Printf("[%s] %s\n", m.Role, m.Content)
		}
	}

	c.gate.OnAction = func(req *ws.ApprovalRequired) {
		fmt.Printf("\ngary wants to: %s\n", req.Description)
		if req.Details != "" {
			fmt.Println(req.Details)
		}
		fmt.Println("approve? [y/n]")
	}
	c.gate.OnOperation = func(p *approval.Prompt) {
		fmt.Printf("\nagent operation: %s\n", p.Title)
		for _, line := range p.Lines {
			fmt.Println("  " + line)
		}
		fmt.Println("approve? [y/n/t] (t = approve and trust this session)")
	}

	c.router.Handle(ws.TypeMessage, decode(func(m *ws.MessageIn) {
		c.sessions.HandleMessage(m)
		fmt.Println(m.Content)
	}))
	c.router.Handle(ws.TypeThinking, decode(func(m *ws.Thinking) {
		// Cosmetic; swallowed in terminal mode.
	}))
	c.router.Handle(ws.TypeToolUse, decode(func(m *ws.ToolUse) {
		fmt.Printf("* using %s\n", m.Tool)
	}))
	c.router.Handle(ws.TypeApprovalRequired, decode(c.gate.HandleApprovalRequired))
	c.router.Handle(ws.TypeApprovalRequest, decode(c.gate.HandleApprovalRequest))
	c.router.Handle(ws.TypeFileChange, decode(func(m *ws.FileChange) {
		fmt.Printf("* %s %s\n", m.Action, m.File)
	}))
	c.router.Handle(ws.TypeError, decode(func(m *ws.ErrorMsg) {
		fmt.Printf("! %s\n", m.Content)
	}))
	c.router.Handle(ws.TypeSessionLoaded, decode(c.sessions.HandleSessionLoaded))
	c.router.Handle(ws.TypeCodeOutput, decode(func(m *ws.CodeOutput) {
		fmt.Printf("--- output (%s, exit %d) ---\n%s\n", m.Mode, m.ExitCode, m.Output)
	}))
	c.router.Handle(ws.TypeCodeError, decode(func(m *ws.CodeError) {
		fmt.Printf("! execution failed: %s\n", m.Error)
	}))
}

func (c *chat) loop(done <-chan struct{}) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-done:
			return nil
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := c.handleLine(line); err != nil {
			if err == errQuit {
				return nil
			}
			fmt.Printf("! %v\n", err)
		}
	}
	return scanner.Err()
}

var errQuit = fmt.Errorf("quit")

func (c *chat) handleLine(line string) error {
	// Approval answers win over everything else while a slot is filled.
	if c.gate.PendingOperation() != nil {
		switch strings.ToLower(line) {
		case "y", "yes":
			return c.gate.Approve()
		case "t", "trust":
			return c.gate.ApproveTrust()
		case "n", "no":
			return c.gate.Deny()
		}
	}
	if c.gate.PendingAction() != nil {
		switch strings.ToLower(line) {
		case "y", "yes":
			return c.gate.RespondAction(true)
		case "n", "no":
			return c.gate.RespondAction(false)
		}
	}

	if strings.HasPrefix(line, "/") {
		return c.handleCommand(line)
	}
	return c.sendMessage(line)
}

func (c *chat) handleCommand(line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		c.channel.Close()
		return errQuit
	case "/new":
		return c.sessions.NewSession()
	case "/project":
		if len(fields) < 2 {
			return fmt.Errorf("usage: /project <id>")
		}
		return c.sessions.SelectProject(fields[1], true)
	case "/session":
		if len(fields) < 2 {
			return fmt.Errorf("usage: /session <id>")
		}
		return c.sessions.SelectSession(fields[1], "")
	case "/run":
		rest := strings.TrimPrefix(line, "/run ")
		lang, code, ok := strings.Cut(rest, " ")
		if !ok {
			return fmt.Errorf("usage: /run <language> <code>")
		}
		_, err := c.selector.RunCode(code, lang)
		return err
	case "/bro":
		if len(fields) < 2 {
			return fmt.Errorf("usage: /bro <0-100>")
		}
		var level int
		if _, err := fmt.Sscanf(fields[1], "%d", &level); err != nil {
			return fmt.Errorf("bad level %q", fields[1])
		}
		if err := c.app.store.SetBroLevel(level); err != nil {
			return err
		}
		saved, _ := c.app.store.BroLevel()
		return c.router.Send(&ws.BroLevelMsg{Type: ws.TypeBroLevel, Level: saved})
	case "/reconnect":
		// Manual affordance for when the retry budget is spent.
		c.channel.Connect(context.Background(), c.app.api.Token)
		return nil
	default:
		return fmt.Errorf("unknown command %s", fields[0])
	}
}

func (c *chat) sendMessage(content string) error {
	level, err := c.app.store.BroLevel()
	if err != nil {
		level = 50
	}
	msg := &ws.MessageOut{Type: ws.TypeMessage, Content: content, BroLevel: level}
	if cur := c.sessions.Current(); cur != nil {
		msg.SessionID = cur.ID
	}
	if p := c.sessions.CurrentProject(); p != nil {
		msg.ProjectID = p.ID
	}
	return c.router.Send(msg)
}

// decode adapts a typed handler to the router's raw-frame signature.
// Frames that fail to parse are dropped, matching the router's policy
// for unknown tags.
func decode[T any](fn func(*T)) ws.Handler {
	return func(data []byte) {
		v := new(T)
		if err := json.Unmarshal(data, v); err != nil {
			return
		}
		fn(v)
	}
}

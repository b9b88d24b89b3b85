package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mcpchat/backend"
	"mcpchat/chat"
	"mcpchat/config"
	"mcpchat/tui"
)

// flags holds command-line overrides for the loaded configuration.
type flags struct {
	url       string
	script    string
	timeout   time.Duration
	noConnect bool
	plain     bool
}

// app is everything a command needs once configuration is resolved.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	session *chat.Session
	closeFn func() error
}

func (a *app) Close() {
	if a.closeFn == nil {
		return
	}
	if err := a.closeFn(); err != nil {
		errorColor.Fprintf(os.Stderr, "Failed to close log file: %v\n", err)
	}
}

func newApp(cmd *cobra.Command, f *flags) (*app, error) {
	cfg, err := config.Load(config.DefaultEnvFile())
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("url") {
		cfg.BaseURL = f.url
	}
	if cmd.Flags().Changed("script") {
		cfg.ScriptPath = f.script
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if f.noConnect {
		cfg.AutoConnect = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	client := backend.NewClient(cfg.BaseURL,
		backend.WithTimeout(cfg.Timeout),
		backend.WithLogger(logger),
	)
	session := chat.NewSession(client, cfg.ScriptPath, chat.WithLogger(logger))

	return &app{
		cfg:     cfg,
		log:     logger,
		session: session,
		closeFn: closeLog,
	}, nil
}

// newLogger writes diagnostics to the configured log file so they never land
// on the chat screen.
func newLogger(cfg *config.Config) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})

	if cfg.LogFile == "" {
		logger.SetOutput(io.Discard)
		return logger, func() error { return nil }, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %v", err)
	}
	logger.SetOutput(f)
	return logger, f.Close, nil
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "mcpchat",
		Short:         "Chat with an AI backend that uses MCP server tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if f.plain || !term.IsTerminal(int(os.Stdout.Fd())) {
				return runREPL(ctx, a)
			}
			return runTUI(ctx, a)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.url, "url", backend.DefaultBaseURL, "backend base URL")
	pf.StringVar(&f.script, "script", "", "path of the MCP server script the backend should launch")
	pf.DurationVar(&f.timeout, "timeout", config.DefaultTimeout, "per-request timeout (0 disables)")
	root.Flags().BoolVar(&f.noConnect, "no-connect", false, "do not connect to the MCP server on start")
	root.Flags().BoolVar(&f.plain, "plain", false, "use the line-mode prompt instead of the full-screen view")

	root.AddCommand(
		newConnectCmd(f),
		newToolsCmd(f),
		newAskCmd(f),
	)
	return root
}

func newConnectCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect the backend to the MCP server and list its tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			notice, err := a.session.Connect(cmd.Context())
			if err != nil {
				errorColor.Println(notice)
				return err
			}
			noticeColor.Println(notice)
			printTools(os.Stdout, a.session.Tools())
			return nil
		},
	}
}

func newToolsCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools the connected MCP server exposes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			tools, err := a.session.FetchTools(cmd.Context())
			a.session.ApplyTools(tools, err)
			if err != nil {
				return err
			}
			printTools(os.Stdout, a.session.Tools())
			return nil
		},
	}
}

func newAskCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Send a single prompt and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			msg, err := a.session.Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				if a.session.LastError() != "" {
					errorColor.Println(a.session.LastError())
				}
				return err
			}
			fmt.Println(msg.Text)
			return nil
		},
	}
}

func runREPL(ctx context.Context, a *app) error {
	p, err := NewPrompt(a.cfg.HistoryFile)
	if err != nil {
		return err
	}
	defer p.Close()

	return NewREPL(a.session, p, os.Stdout).Run(ctx, a.cfg.AutoConnect)
}

func runTUI(ctx context.Context, a *app) error {
	m := tui.NewModel(ctx, a.session, a.cfg.AutoConnect)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run chat view: %v", err)
	}
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		errorColor.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

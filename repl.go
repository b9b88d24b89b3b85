package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"mcpchat/chat"
)

// Output colors
var (
	stepColor   = color.New(color.FgCyan)
	toolColor   = color.New(color.FgGreen)
	noticeColor = color.New(color.FgGreen, color.Bold)
	aiColor     = color.New(color.FgMagenta)
	errorColor  = color.New(color.FgRed)
	dimColor    = color.New(color.Faint)
)

type lineReader interface {
	GetMultiLineInput() (string, error)
	AddToHistory(input string) error
}

// REPL is the line-mode chat front-end. Requests run synchronously, so only
// one is ever in flight.
type REPL struct {
	session  *chat.Session
	input    lineReader
	out      io.Writer
	commands map[string]Command
}

func NewREPL(session *chat.Session, input lineReader, out io.Writer) *REPL {
	r := &REPL{
		session:  session,
		input:    input,
		out:      out,
		commands: make(map[string]Command),
	}
	r.registerCommands()
	return r
}

// Run reads prompts until EOF, Ctrl+C or /quit. With autoConnect it first
// connects to the MCP server.
func (r *REPL) Run(ctx context.Context, autoConnect bool) error {
	stepColor.Fprintln(r.out, "MCP Client: end input with a single \".\" line or Ctrl+D, /help for commands")
	if autoConnect {
		r.connect(ctx)
	}

	for {
		input, err := r.input.GetMultiLineInput()
		if err == io.EOF || err == errInterrupted {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out)

		if err := r.input.AddToHistory(input); err != nil {
			errorColor.Fprintf(r.out, "Failed to save history: %v\n", err)
		}

		if r.handle(ctx, input) {
			return nil
		}
	}
}

// handle processes one input and reports whether the REPL should exit.
func (r *REPL) handle(ctx context.Context, input string) bool {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "/") {
		name := strings.Fields(strings.TrimPrefix(trimmed, "/"))
		if len(name) == 0 {
			r.printHelp()
			return false
		}
		cmd, ok := r.commands[name[0]]
		if !ok {
			errorColor.Fprintf(r.out, "unknown command: /%s\n", name[0])
			return false
		}
		return cmd.Run(ctx)
	}

	r.send(ctx, input)
	return false
}

func (r *REPL) send(ctx context.Context, input string) {
	if strings.TrimSpace(input) != "" {
		stepColor.Fprintln(r.out, "➤ Processing...")
	}
	msg, err := r.session.Send(ctx, input)
	if errors.Is(err, chat.ErrEmptyPrompt) {
		return
	}
	if err != nil {
		errorColor.Fprintln(r.out, r.session.LastError())
		return
	}
	aiColor.Fprint(r.out, "AI: ")
	fmt.Fprintln(r.out, msg.Text)
	fmt.Fprintln(r.out)
}

func (r *REPL) connect(ctx context.Context) {
	notice, err := r.session.Connect(ctx)
	if err != nil {
		errorColor.Fprintln(r.out, notice)
		return
	}
	noticeColor.Fprintln(r.out, notice)
	printTools(r.out, r.session.Tools())
}

func (r *REPL) printHelp() {
	for _, c := range r.sortedCommands() {
		toolColor.Fprintf(r.out, "  /%-8s", c.Name)
		fmt.Fprintln(r.out, c.Description)
	}
}

func printTools(w io.Writer, tools []chat.Tool) {
	if len(tools) == 0 {
		dimColor.Fprintln(w, chat.NoToolsText)
		return
	}
	for _, t := range tools {
		toolColor.Fprintf(w, "• %s", t.Name)
		if t.Description != "" {
			fmt.Fprintf(w, ": %s", t.Description)
		}
		fmt.Fprintln(w)
		if params := chat.ToolParams(t); len(params) > 0 {
			dimColor.Fprintf(w, "    params: %s\n", strings.Join(params, ", "))
		}
	}
}

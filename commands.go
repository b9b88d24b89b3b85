package main

import (
	"context"
	"sort"
)

// Command is a slash command available at the REPL prompt.
type Command struct {
	Name        string
	Description string
	// Run executes the command and reports whether the REPL should exit.
	Run func(ctx context.Context) bool
}

// registerCommands sets up the slash commands for the REPL
func (r *REPL) registerCommands() {
	r.commands["connect"] = Command{
		Name:        "connect",
		Description: "Connect the backend to the MCP server and reload tools",
		Run: func(ctx context.Context) bool {
			r.connect(ctx)
			return false
		},
	}
	r.commands["tools"] = Command{
		Name:        "tools",
		Description: "Reload and list the available tools",
		Run: func(ctx context.Context) bool {
			r.session.RefreshTools(ctx)
			printTools(r.out, r.session.Tools())
			return false
		},
	}
	r.commands["help"] = Command{
		Name:        "help",
		Description: "Show this help",
		Run: func(context.Context) bool {
			r.printHelp()
			return false
		},
	}
	r.commands["quit"] = Command{
		Name:        "quit",
		Description: "Exit",
		Run: func(context.Context) bool {
			return true
		},
	}
}

func (r *REPL) sortedCommands() []Command {
	cmds := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		cmds = append(cmds, c)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

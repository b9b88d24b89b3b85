package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

// errInterrupted is returned by GetMultiLineInput on Ctrl+C.
var errInterrupted = errors.New("interrupted")

type Prompt struct {
	rl      *readline.Instance
	history string
}

func NewPrompt(historyFile string) (*Prompt, error) {
	// Ensure history directory exists
	historyDir := filepath.Dir(historyFile)
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %v", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            color.GreenString("➤ "),
		HistoryFile:       historyFile,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "bye",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %v", err)
	}

	return &Prompt{
		rl:      rl,
		history: historyFile,
	}, nil
}

// GetMultiLineInput reads input from the user, treating either a single "."
// or Ctrl+D as the end of input marker. Ctrl+D before any line returns io.EOF.
func (p *Prompt) GetMultiLineInput() (string, error) {
	var lines []string
	firstLine := true
	defer p.rl.SetPrompt(color.GreenString("➤ "))

	for {
		if !firstLine {
			p.rl.SetPrompt(color.GreenString("... "))
		}

		line, err := p.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				return "", errInterrupted
			}
			if err == io.EOF {
				if firstLine {
					return "", io.EOF
				}
				break
			}
			return "", err
		}

		firstLine = false

		// Trim trailing whitespace but preserve leading whitespace
		line = strings.TrimRight(line, " \t")

		if line == "." {
			break
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n"), nil
}

// AddToHistory adds each line of input to the history file
func (p *Prompt) AddToHistory(input string) error {
	for _, line := range strings.Split(input, "\n") {
		if err := p.rl.SaveHistory(line); err != nil {
			return err
		}
	}
	return nil
}

func (p *Prompt) Close() error {
	return p.rl.Close()
}

// Package chat holds the conversation state shared by the terminal front-ends.
package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mcpchat/backend"
)

// Notices shown after a connection attempt.
const (
	NoticeConnected     = "Connected to MCP Server"
	NoticeConnectFailed = "Connection failed"
)

var (
	ErrNoScriptPath = errors.New("no MCP server script path configured")
	ErrEmptyPrompt  = errors.New("empty prompt")
)

// Backend is the part of the backend API a Session uses.
type Backend interface {
	Connect(ctx context.Context, scriptPath string) error
	AvailableTools(ctx context.Context) ([]backend.Tool, error)
	Query(ctx context.Context, prompt string) (string, error)
}

// Session is the state of one chat view: an append-only message list, the
// last fetched tool list and a loading flag.
//
// A Session is not safe for concurrent use. The network halves (ConnectServer,
// FetchTools, Query) touch no state and may run on other goroutines; everything
// else belongs to the goroutine that owns the view.
type Session struct {
	backend    Backend
	scriptPath string
	log        logrus.FieldLogger
	now        func() time.Time

	messages  []Message
	tools     []Tool
	loading   bool
	lastError string
}

type Option func(*Session)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now as the source of message IDs.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func NewSession(b Backend, scriptPath string, opts ...Option) *Session {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Session{
		backend:    b,
		scriptPath: scriptPath,
		log:        discard,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Messages returns a copy of the conversation in creation order.
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Tools returns a copy of the last fetched tool list.
func (s *Session) Tools() []Tool {
	out := make([]Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

func (s *Session) Loading() bool { return s.loading }

// LastError is the inline error text of the most recent failed send, cleared
// when the next send begins.
func (s *Session) LastError() string { return s.lastError }

func (s *Session) ScriptPath() string { return s.scriptPath }

// Connect attaches the backend to the MCP server and, on success, refreshes
// the tool list. It returns the notice to show the user.
func (s *Session) Connect(ctx context.Context) (string, error) {
	if err := s.ConnectServer(ctx); err != nil {
		return NoticeConnectFailed, err
	}
	s.RefreshTools(ctx)
	return NoticeConnected, nil
}

// ConnectServer performs only the /connect call.
func (s *Session) ConnectServer(ctx context.Context) error {
	if strings.TrimSpace(s.scriptPath) == "" {
		s.log.WithError(ErrNoScriptPath).Error("connect to MCP server")
		return ErrNoScriptPath
	}
	if err := s.backend.Connect(ctx, s.scriptPath); err != nil {
		s.log.WithError(err).WithField("script", s.scriptPath).Error("connect to MCP server")
		return err
	}
	s.log.WithField("script", s.scriptPath).Info("connected to MCP server")
	return nil
}

// RefreshTools replaces the tool list with the backend's. Failures are only logged.
func (s *Session) RefreshTools(ctx context.Context) {
	s.ApplyTools(s.FetchTools(ctx))
}

// FetchTools performs only the /available-tools call.
func (s *Session) FetchTools(ctx context.Context) ([]Tool, error) {
	return s.backend.AvailableTools(ctx)
}

// ApplyTools stores the result of FetchTools. On error the previous list is kept.
func (s *Session) ApplyTools(tools []Tool, err error) {
	if err != nil {
		s.log.WithError(err).Error("fetch tools")
		return
	}
	s.tools = tools
	s.log.WithField("count", len(tools)).Debug("tools refreshed")
}

// Send runs a whole request: Begin, Query, Complete. It returns the AI
// message on success and ErrEmptyPrompt for blank input.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	prompt, ok := s.Begin(text)
	if !ok {
		return Message{}, ErrEmptyPrompt
	}
	reply, err := s.Query(ctx, prompt)
	s.Complete(reply, err)
	if err != nil {
		return Message{}, err
	}
	return s.messages[len(s.messages)-1], nil
}

// Begin appends text as a user message and sets the loading flag. Blank text
// is rejected with ok false and nothing changes.
func (s *Session) Begin(text string) (prompt string, ok bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	s.append(text, SenderUser)
	s.loading = true
	s.lastError = ""
	return text, true
}

// Query performs only the /query call.
func (s *Session) Query(ctx context.Context, prompt string) (string, error) {
	return s.backend.Query(ctx, prompt)
}

// Complete records the outcome of a Query and clears the loading flag.
func (s *Session) Complete(reply string, err error) {
	s.loading = false
	if err != nil {
		s.lastError = backend.ErrorText(err)
		s.log.WithError(err).Warn("query failed")
		return
	}
	s.append(reply, SenderAI)
}

func (s *Session) append(text string, sender Sender) {
	s.messages = append(s.messages, Message{
		ID:     s.now().UnixMilli(),
		Text:   text,
		Sender: sender,
	})
}

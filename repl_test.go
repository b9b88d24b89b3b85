package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpchat/backend"
	"mcpchat/chat"
)

type scriptedInput struct {
	inputs  []string
	history []string
}

func (s *scriptedInput) GetMultiLineInput() (string, error) {
	if len(s.inputs) == 0 {
		return "", io.EOF
	}
	next := s.inputs[0]
	s.inputs = s.inputs[1:]
	return next, nil
}

func (s *scriptedInput) AddToHistory(input string) error {
	s.history = append(s.history, input)
	return nil
}

type fakeServer struct {
	connected bool
	queries   []string
}

func newFakeServer(t *testing.T) (*fakeServer, *chat.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	color.NoColor = true

	fs := &fakeServer{}
	r := gin.New()
	r.POST("/connect", func(c *gin.Context) {
		fs.connected = true
		c.Status(http.StatusOK)
	})
	r.GET("/available-tools", func(c *gin.Context) {
		if !fs.connected {
			c.JSON(http.StatusOK, gin.H{"tools": []gin.H{}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tools": []gin.H{
			{"name": "get-alerts", "description": "Get weather alerts for a state"},
		}})
	})
	r.POST("/query", func(c *gin.Context) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		fs.queries = append(fs.queries, req.Prompt)
		if req.Prompt == "fail" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "model overloaded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"response": "hi there"})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return fs, chat.NewSession(backend.NewClient(srv.URL), "/srv/weather/build/index.js")
}

func TestREPLConversation(t *testing.T) {
	fs, session := newFakeServer(t)
	in := &scriptedInput{inputs: []string{"hello", "   ", "fail"}}
	var out bytes.Buffer

	err := NewREPL(session, in, &out).Run(context.Background(), true)
	require.NoError(t, err)

	assert.True(t, fs.connected)
	assert.Equal(t, []string{"hello", "fail"}, fs.queries)

	msgs := session.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, chat.Message{ID: msgs[0].ID, Text: "hello", Sender: chat.SenderUser}, msgs[0])
	assert.Equal(t, "hi there", msgs[1].Text)
	assert.Equal(t, chat.SenderAI, msgs[1].Sender)
	assert.Equal(t, "fail", msgs[2].Text)
	assert.False(t, session.Loading())

	text := out.String()
	assert.Contains(t, text, chat.NoticeConnected)
	assert.Contains(t, text, "get-alerts")
	assert.Contains(t, text, "AI: hi there")
	assert.Contains(t, text, "model overloaded")
}

func TestREPLCommands(t *testing.T) {
	_, session := newFakeServer(t)
	in := &scriptedInput{inputs: []string{"/tools", "/help", "/bogus", "/connect", "/quit", "never read"}}
	var out bytes.Buffer

	err := NewREPL(session, in, &out).Run(context.Background(), false)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, chat.NoToolsText)
	assert.Contains(t, text, "/connect")
	assert.Contains(t, text, "unknown command: /bogus")
	assert.Contains(t, text, chat.NoticeConnected)
	assert.Equal(t, []string{"never read"}, in.inputs)
	assert.Empty(t, session.Messages())
}

func TestREPLConnectFailure(t *testing.T) {
	color.NoColor = true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	session := chat.NewSession(backend.NewClient(srv.URL), "server.js")
	var out bytes.Buffer
	err := NewREPL(session, &scriptedInput{}, &out).Run(context.Background(), true)
	require.NoError(t, err)

	assert.Contains(t, out.String(), chat.NoticeConnectFailed)
	assert.Empty(t, session.Tools())
}

func TestPrintTools(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	printTools(&out, nil)
	assert.Equal(t, chat.NoToolsText+"\n", out.String())

	out.Reset()
	printTools(&out, []chat.Tool{{
		Name:        "get-forecast",
		Description: "Get weather forecast",
		InputSchema: []byte(`{"type":"object","properties":{"latitude":{},"longitude":{}},"required":["latitude"]}`),
	}})
	assert.Contains(t, out.String(), "get-forecast: Get weather forecast")
	assert.Contains(t, out.String(), "params: latitude*, longitude")
	assert.NotContains(t, out.String(), chat.NoToolsText)
}

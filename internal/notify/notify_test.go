package notify

import (
	"errors"
	"testing"
	"time"

	"go-bazaar-admin/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewPicksLogNotifierWithoutHost(t *testing.T) {
	n := New(config.SMTPConfig{}, zap.NewNop())
	_, ok := n.(*LogNotifier)
	assert.True(t, ok)

	n = New(config.SMTPConfig{Host: "smtp.example.com", Port: 587}, zap.NewNop())
	_, ok = n.(*SMTPNotifier)
	assert.True(t, ok)
}

func TestLogNotifierLogsMessage(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Send("a@x.com", "hello", "<p>body</p>"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a@x.com", entries[0].ContextMap()["to"])
	assert.Equal(t, "hello", entries[0].ContextMap()["subject"])
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Send("a@x.com", "one", "b"))
	r.Err = errors.New("smtp down")
	assert.Error(t, r.Send("b@x.com", "two", "b"))

	assert.Len(t, r.Messages(), 2)
	assert.Len(t, r.To("a@x.com"), 1)
}

func TestMessagesEscapeUserInput(t *testing.T) {
	msg := DecisionRequest("<script>", "a@x.com", "http://h/accept?token=t&action=accept", "http://h/r")
	assert.NotContains(t, msg.Body, "<script>")
	assert.Contains(t, msg.Body, "&lt;script&gt;")
	assert.Contains(t, msg.Body, "token=t&amp;action=accept")

	reset := PasswordReset("alice", "http://h/reset/abc", 15*time.Minute)
	assert.Contains(t, reset.Body, "15m0s")
}

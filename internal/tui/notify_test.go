package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_FoldsRefreshesUntilAck(t *testing.T) {
	t.Parallel()
	got := make(chan tea.Msg, 8)
	n := NewNotifier()
	n.setSend(func(m tea.Msg) { got <- m })

	n.Changed()
	n.Changed()
	n.Changed()

	select {
	case m := <-got:
		assert.IsType(t, refreshMsg{}, m)
	case <-time.After(time.Second):
		t.Fatal("no refresh delivered")
	}
	select {
	case m := <-got:
		t.Fatalf("unexpected second message %T", m)
	case <-time.After(50 * time.Millisecond):
	}

	n.ack()
	n.Changed()
	select {
	case m := <-got:
		assert.IsType(t, refreshMsg{}, m)
	case <-time.After(time.Second):
		t.Fatal("refresh after ack not delivered")
	}
}

func TestNotifier_WithoutProgram(t *testing.T) {
	t.Parallel()
	n := NewNotifier()
	require.False(t, n.Post(vectorCreatedMsg{}))
	n.Changed()
	assert.False(t, n.pending.Load(), "an undeliverable refresh must not stay pending")
}

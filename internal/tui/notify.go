package tui

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// refreshMsg asks the App to re-read shared state.
type refreshMsg struct{}

// Notifier carries state changes from coordinator goroutines into the
// program. It never blocks its caller: coordinator callbacks run under a
// ledger lock and tea.Program.Send blocks until the event loop reads.
type Notifier struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending atomic.Bool
}

// NewNotifier returns a Notifier that drops messages until Attach.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Attach routes messages to p.
func (n *Notifier) Attach(p *tea.Program) {
	n.setSend(p.Send)
}

func (n *Notifier) setSend(send func(tea.Msg)) {
	n.mu.Lock()
	n.send = send
	n.mu.Unlock()
}

// Changed requests a refresh. Requests made before the App handles the
// previous one are folded into it.
func (n *Notifier) Changed() {
	if !n.pending.CompareAndSwap(false, true) {
		return
	}
	if !n.Post(refreshMsg{}) {
		n.pending.Store(false)
	}
}

// Post delivers msg asynchronously and reports whether a program was
// attached.
func (n *Notifier) Post(msg tea.Msg) bool {
	n.mu.Lock()
	send := n.send
	n.mu.Unlock()
	if send == nil {
		return false
	}
	go send(msg)
	return true
}

// ack is called by the App when it handles a refreshMsg.
func (n *Notifier) ack() {
	n.pending.Store(false)
}

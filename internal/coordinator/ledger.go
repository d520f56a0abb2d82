// Package coordinator tracks the loading state of asynchronous backend calls
// and makes sure only the most recently started call can publish its result.
package coordinator

import (
	"sync"
	"sync/atomic"
)

// Token identifies one operation started on a Ledger. The zero Token is never
// issued.
type Token uint64

// Ledger hands out a Token per operation and lets only the latest one commit.
// The zero value is ready to use.
type Ledger struct {
	mu      sync.Mutex
	last    Token
	ended   Token
	loading atomic.Bool
	current atomic.Uint64

	onLoading func(bool)
}

// OnLoading registers fn to be called after every change of the loading flag.
// It must be set before the ledger is shared.
func (l *Ledger) OnLoading(fn func(loading bool)) {
	l.onLoading = fn
}

// Begin marks the ledger as loading and returns a fresh token.
func (l *Ledger) Begin() Token {
	l.mu.Lock()
	l.last++
	tok := l.last
	l.current.Store(uint64(tok))
	flipped := !l.loading.Swap(true)
	l.mu.Unlock()

	if flipped && l.onLoading != nil {
		l.onLoading(true)
	}
	return tok
}

// End finishes the operation identified by tok. If tok is still the most
// recently issued token, commit runs and loading is cleared; otherwise End does
// nothing and reports false.
//
// commit runs with the ledger locked so no newer token can be issued in
// between the check and the mutation. It must be short and must not call back
// into the same ledger.
func (l *Ledger) End(tok Token, commit func()) bool {
	l.mu.Lock()
	if tok == 0 || tok != l.last || tok == l.ended {
		l.mu.Unlock()
		return false
	}
	l.ended = tok
	if commit != nil {
		commit()
	}
	flipped := l.loading.Swap(false)
	l.mu.Unlock()

	if flipped && l.onLoading != nil {
		l.onLoading(false)
	}
	return true
}

// Reset clears loading without committing anything. Every token issued before
// the reset can never commit afterwards.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.last++
	l.ended = l.last
	l.current.Store(uint64(l.last))
	flipped := l.loading.Swap(false)
	l.mu.Unlock()

	if flipped && l.onLoading != nil {
		l.onLoading(false)
	}
}

// Loading reports whether the latest operation is still outstanding.
func (l *Ledger) Loading() bool {
	return l.loading.Load()
}

// Current returns the most recently issued (or burned) token.
func (l *Ledger) Current() Token {
	return Token(l.current.Load())
}

package coordinator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLedger_LatestTokenWins(t *testing.T) {
	t.Parallel()
	var l Ledger

	b1 := l.Begin()
	b2 := l.Begin()
	require.Equal(t, Token(1), b1)
	require.Equal(t, Token(2), b2)
	require.True(t, l.Loading())

	ranStale := false
	require.False(t, l.End(b1, func() { ranStale = true }))
	require.False(t, ranStale)
	require.True(t, l.Loading(), "stale end must not clear loading")

	runs := 0
	require.True(t, l.End(b2, func() { runs++ }))
	require.Equal(t, 1, runs)
	require.False(t, l.Loading())
}

func TestLedger_EndIsSingleUse(t *testing.T) {
	t.Parallel()
	var l Ledger

	tok := l.Begin()
	runs := 0
	require.True(t, l.End(tok, func() { runs++ }))
	require.False(t, l.End(tok, func() { runs++ }))
	require.Equal(t, 1, runs)
}

func TestLedger_ZeroTokenNeverCommits(t *testing.T) {
	t.Parallel()
	var l Ledger
	require.False(t, l.End(0, func() { t.Fatal("zero token committed") }))
}

func TestLedger_ResetDisablesEarlierTokens(t *testing.T) {
	t.Parallel()
	var l Ledger

	b1 := l.Begin()
	b2 := l.Begin()
	l.Reset()
	require.False(t, l.Loading())

	require.False(t, l.End(b1, func() { t.Fatal("b1 committed after reset") }))
	require.False(t, l.End(b2, func() { t.Fatal("b2 committed after reset") }))

	b3 := l.Begin()
	require.Greater(t, b3, b2)
	require.True(t, l.End(b3, nil))
	require.False(t, l.Loading())
}

func TestLedger_OnLoadingReportsFlips(t *testing.T) {
	t.Parallel()
	var l Ledger
	var flips []bool
	l.OnLoading(func(loading bool) { flips = append(flips, loading) })

	b1 := l.Begin()
	b2 := l.Begin()
	l.End(b1, nil)
	l.End(b2, nil)
	l.Reset()

	require.Equal(t, []bool{true, false}, flips)
}

func TestLedger_ConcurrentBeginEnd(t *testing.T) {
	t.Parallel()
	var l Ledger
	var mu sync.Mutex
	commits := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok := l.Begin()
			l.End(tok, func() {
				mu.Lock()
				commits++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	require.GreaterOrEqual(t, commits, 1)
	require.Equal(t, Token(50), l.Current())
	require.False(t, l.Loading())
}

package coordinator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func TestFetcher_MountCommitsValue(t *testing.T) {
	t.Parallel()
	backend := newStubBackend()
	gate := backend.gate("GetAnimals()")

	f := NewFetcher(context.Background(), Literal("GetAnimals()"), backend.exec, "", Options{})
	t.Cleanup(f.Close)

	require.Equal(t, "", f.Value())
	require.False(t, f.Loading())

	f.Mount()
	require.True(t, f.Loading())
	require.Equal(t, "", f.Value())

	gate <- reply{value: "rex,tom"}
	require.Eventually(t, func() bool { return !f.Loading() }, waitFor, time.Millisecond)
	require.Equal(t, "rex,tom", f.Value())
	require.Equal(t, []string{"GetAnimals()"}, backend.callList())
}

func TestFetcher_FailureKeepsPreviousValue(t *testing.T) {
	t.Parallel()
	backend := newStubBackend()

	f := NewFetcher(context.Background(), argSource, backend.exec, "initial", Options{})
	t.Cleanup(f.Close)

	f.Refetch("ok")
	require.Eventually(t, func() bool { return f.Value() == "value:ok" && !f.Loading() }, waitFor, time.Millisecond)

	gate := backend.gate("broken")
	f.Refetch("broken")
	gate <- reply{err: errors.New("engine rejected pixel")}
	require.Eventually(t, func() bool { return !f.Loading() }, waitFor, time.Millisecond)
	require.Equal(t, "value:ok", f.Value())
}

func TestFetcher_SourceErrorIsSwallowed(t *testing.T) {
	t.Parallel()
	backend := newStubBackend()
	failing := func(context.Context, ...any) (string, error) { return "", errors.New("no vector selected") }

	f := NewFetcher(context.Background(), failing, backend.exec, "initial", Options{})
	t.Cleanup(f.Close)

	f.Mount()
	require.Eventually(t, func() bool { return !f.Loading() }, waitFor, time.Millisecond)
	require.Equal(t, "initial", f.Value())
	require.Zero(t, backend.callCount())
}

func TestFetcher_OutOfOrderCompletionKeepsLatest(t *testing.T) {
	t.Parallel()
	backend := newStubBackend()
	first := backend.gate("first")
	second := backend.gate("second")

	f := NewFetcher(context.Background(), argSource, backend.exec, "", Options{})

	f.Refetch("first")
	f.Refetch("second")
	require.Eventually(t, func() bool { return backend.callCount() == 2 }, waitFor, time.Millisecond)

	second <- reply{value: "B"}
	require.Eventually(t, func() bool { return f.Value() == "B" }, waitFor, time.Millisecond)
	require.False(t, f.Loading())

	first <- reply{value: "A"}
	require.Eventually(t, func() bool { return backend.finishedCount() == 2 }, waitFor, time.Millisecond)
	f.Close()
	require.Equal(t, "B", f.Value())
}

func TestFetcher_StaleCompletionLeavesLoading(t *testing.T) {
	t.Parallel()
	backend := newStubBackend()
	first := backend.gate("first")
	second := backend.gate("second")

	f := NewFetcher(context.Background(), argSource, backend.exec, "", Options{})
	t.Cleanup(f.Close)

	f.Refetch("first")
	f.Refetch("second")
	first <- reply{value: "A"}
	require.Eventually(t, func() bool { return backend.finishedCount() == 1 }, waitFor, time.Millisecond)
	require.True(t, f.Loading())
	require.Equal(t, "", f.Value())

	second <- reply{value: "B"}
	require.Eventually(t, func() bool { return !f.Loading() }, waitFor, time.Millisecond)
	require.Equal(t, "B", f.Value())
}

func TestFetcher_SuspendedNeverCalls(t *testing.T) {
	t.Parallel()
	backend := newStubBackend()

	f := NewFetcher(context.Background(), argSource, backend.exec, "", Options{Suspended: true})
	t.Cleanup(f.Close)

	f.Mount()
	f.Refetch("x")
	f.Rebind(Literal("other"))
	require.False(t, f.Loading())
	require.Zero(t, backend.callCount())

	f.SetSuspended(false)
	require.Eventually(t, func() bool { return f.Value() == "value:other" }, waitFor, time.Millisecond)

	f.SetSuspended(false)
	require.Eventually(t, func() bool { return backend.finishedCount() == 1 }, waitFor, time.Millisecond)
	require.Equal(t, 1, backend.callCount())
}

func TestFetcher_SuspendAgainStopsRefetch(t *testing.T) {
	t.Parallel()
	backend := newStubBackend()

	f := NewFetcher(context.Background(), argSource, backend.exec, "", Options{})
	t.Cleanup(f.Close)

	f.Mount()
	require.Eventually(t, func() bool { return !f.Loading() && backend.callCount() == 1 }, waitFor, time.Millisecond)

	f.SetSuspended(true)
	require.True(t, f.Suspended())
	f.Refetch("ignored")
	require.Equal(t, 1, backend.callCount())
}

func TestFetcher_RebindFetchesNewSource(t *testing.T) {
	t.Parallel()
	backend := newStubBackend()

	f := NewFetcher(context.Background(), Literal("ListDocumentsInVectorDatabase(engine=\"a\")"), backend.exec, "", Options{})
	t.Cleanup(f.Close)

	f.Mount()
	require.Eventually(t, func() bool { return f.Value() != "" }, waitFor, time.Millisecond)

	f.Rebind(Literal("ListDocumentsInVectorDatabase(engine=\"b\")"))
	require.Eventually(t, func() bool {
		return f.Value() == "value:ListDocumentsInVectorDatabase(engine=\"b\")"
	}, waitFor, time.Millisecond)
}

func TestFetcher_OnChangeFires(t *testing.T) {
	t.Parallel()
	backend := newStubBackend()
	var changes atomic.Int32

	f := NewFetcher(context.Background(), argSource, backend.exec, "", Options{
		OnChange: func() { changes.Add(1) },
	})
	t.Cleanup(f.Close)

	f.Mount()
	require.Eventually(t, func() bool { return !f.Loading() && changes.Load() >= 2 }, waitFor, time.Millisecond)
}

func TestFetcher_CloseCancelsAndIgnoresLaterCalls(t *testing.T) {
	t.Parallel()
	backend := newStubBackend()
	backend.gate("slow")

	f := NewFetcher(context.Background(), argSource, backend.exec, "initial", Options{})
	f.Refetch("slow")
	require.Eventually(t, func() bool { return backend.callCount() == 1 }, waitFor, time.Millisecond)

	f.Close()
	require.False(t, f.Loading())
	require.Equal(t, "initial", f.Value())

	f.Refetch("after")
	f.Close()
	require.Equal(t, 1, backend.callCount())
}

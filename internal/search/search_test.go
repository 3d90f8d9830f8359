package search

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testDebounce = 50 * time.Millisecond

func containsFold(item, query string) bool {
	return strings.Contains(strings.ToLower(item), strings.ToLower(query))
}

func stringEqual(a, b string) bool { return a == b }

// newTestCoordinator builds a string coordinator with a short debounce and
// the given remote function.
func newTestCoordinator(t *testing.T, seed []string, remote RemoteFunc[string]) *Coordinator[string] {
	t.Helper()
	c, err := New(Options[string]{
		InitialData: seed,
		Remote:      remote,
		Match:       containsFold,
		Equal:       stringEqual,
		Debounce:    testDebounce,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func nextSnapshot(t *testing.T, ch <-chan Snapshot[string]) Snapshot[string] {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "snapshot stream closed unexpectedly")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot[string]{}
	}
}

func requireNoSnapshot(t *testing.T, ch <-chan Snapshot[string], wait time.Duration) {
	t.Helper()
	select {
	case snap := <-ch:
		t.Fatalf("unexpected snapshot: %+v", snap)
	case <-time.After(wait):
	}
}

func TestNewValidatesOptions(t *testing.T) {
	t.Parallel()

	remote := func(ctx context.Context, q string) ([]string, error) { return nil, nil }

	_, err := New(Options[string]{Match: containsFold, Equal: stringEqual})
	require.ErrorContains(t, err, "Remote")

	_, err = New(Options[string]{Remote: remote, Equal: stringEqual})
	require.ErrorContains(t, err, "Match")

	_, err = New(Options[string]{Remote: remote, Match: containsFold})
	require.ErrorContains(t, err, "Equal")
}

func TestLocalHitSkipsRemote(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	remote := func(ctx context.Context, q string) ([]string, error) {
		calls.Add(1)
		return nil, nil
	}
	c := newTestCoordinator(t, []string{"Apple", "Banana", "Orange", "Pineapple"}, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.Search("an")

	snap := nextSnapshot(t, ch)
	require.Equal(t, []string{"Banana", "Orange"}, snap.Items)
	require.Equal(t, SourceLocal, snap.Source)
	require.False(t, snap.Loading)
	require.Empty(t, snap.Err)
	require.Equal(t, "an", snap.Query)

	requireNoSnapshot(t, ch, 4*testDebounce)
	require.Zero(t, calls.Load())
}

func TestEmptyQueryReturnsAllInInsertionOrder(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	remote := func(ctx context.Context, q string) ([]string, error) {
		calls.Add(1)
		return nil, nil
	}
	c := newTestCoordinator(t, []string{"Apple", "Banana", "Orange"}, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.Search("")

	snap := nextSnapshot(t, ch)
	require.Equal(t, []string{"Apple", "Banana", "Orange"}, snap.Items)
	require.Equal(t, SourceLocal, snap.Source)

	requireNoSnapshot(t, ch, 4*testDebounce)
	require.Zero(t, calls.Load())
}

func TestLocalMissRunsRemoteAfterDebounce(t *testing.T) {
	t.Parallel()

	remote := func(ctx context.Context, q string) ([]string, error) {
		return []string{"Zzyzx"}, nil
	}
	c := newTestCoordinator(t, []string{"Apple", "Banana"}, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.Search("zz")

	local := nextSnapshot(t, ch)
	require.Empty(t, local.Items)
	require.Equal(t, SourceLocal, local.Source)

	loading := nextSnapshot(t, ch)
	require.True(t, loading.Loading)
	require.Equal(t, SourceRemote, loading.Source)
	require.Equal(t, "zz", loading.Query)

	terminal := nextSnapshot(t, ch)
	require.False(t, terminal.Loading)
	require.Equal(t, SourceRemote, terminal.Source)
	require.Equal(t, []string{"Zzyzx"}, terminal.Items)
	require.Empty(t, terminal.Err)

	// Remote results are merged into the local collection.
	require.Contains(t, c.Items(), "Zzyzx")

	// A repeat search now hits locally and stays local.
	c.Search("zz")
	repeat := nextSnapshot(t, ch)
	require.Equal(t, SourceLocal, repeat.Source)
	require.Equal(t, []string{"Zzyzx"}, repeat.Items)
	requireNoSnapshot(t, ch, 4*testDebounce)
}

func TestRemoteMergeSkipsDuplicates(t *testing.T) {
	t.Parallel()

	remote := func(ctx context.Context, q string) ([]string, error) {
		return []string{"Apple", "Quince"}, nil
	}
	c := newTestCoordinator(t, []string{"Apple"}, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.Search("qu")
	nextSnapshot(t, ch) // local miss
	nextSnapshot(t, ch) // loading
	nextSnapshot(t, ch) // terminal

	require.Equal(t, []string{"Apple", "Quince"}, c.Items())
}

func TestSupersedeBeforeDebounceCancelsRemote(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	remote := func(ctx context.Context, q string) ([]string, error) {
		calls.Add(1)
		return []string{q}, nil
	}
	c := newTestCoordinator(t, []string{"Apple"}, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.Search("zz") // would go remote after the debounce
	nextSnapshot(t, ch)

	c.Search("ap") // supersedes before the timer fires
	snap := nextSnapshot(t, ch)
	require.Equal(t, []string{"Apple"}, snap.Items)
	require.Equal(t, SourceLocal, snap.Source)

	// The superseded query's remote phase never runs.
	requireNoSnapshot(t, ch, 4*testDebounce)
	require.Zero(t, calls.Load())
}

func TestSupersedeInFlightDiscardsOutcome(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	remote := func(ctx context.Context, q string) ([]string, error) {
		<-release
		return []string{"Stale"}, nil
	}
	c := newTestCoordinator(t, []string{"Apple"}, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.Search("zz")
	nextSnapshot(t, ch) // local miss
	nextSnapshot(t, ch) // loading; fetch is now blocked on release

	c.Search("ap") // supersedes while the fetch is in flight
	snap := nextSnapshot(t, ch)
	require.Equal(t, SourceLocal, snap.Source)
	require.Equal(t, []string{"Apple"}, snap.Items)

	close(release)

	requireNoSnapshot(t, ch, 4*testDebounce)
	require.NotContains(t, c.Items(), "Stale")
}

func TestSupersededFailureIsSilent(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	remote := func(ctx context.Context, q string) ([]string, error) {
		<-release
		return nil, errors.New("backend down")
	}
	c := newTestCoordinator(t, nil, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.Search("zz")
	nextSnapshot(t, ch)
	nextSnapshot(t, ch) // loading

	c.ForceRemoteSearch("yy") // supersedes; its own fetch also blocks
	nextSnapshot(t, ch)       // loading for "yy"

	close(release) // releases both fetches

	// "zz" must stay silent; "yy" surfaces its error.
	terminal := nextSnapshot(t, ch)
	require.Equal(t, "yy", terminal.Query)
	require.Equal(t, "backend down", terminal.Err)
	requireNoSnapshot(t, ch, 4*testDebounce)
}

func TestRemoteFailureEmitsErrorSnapshot(t *testing.T) {
	t.Parallel()

	remote := func(ctx context.Context, q string) ([]string, error) {
		return nil, errors.New("503 service unavailable")
	}
	c := newTestCoordinator(t, nil, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.Search("zz")
	nextSnapshot(t, ch) // local miss
	nextSnapshot(t, ch) // loading

	terminal := nextSnapshot(t, ch)
	require.False(t, terminal.Loading)
	require.Equal(t, SourceRemote, terminal.Source)
	require.Empty(t, terminal.Items)
	require.Equal(t, "503 service unavailable", terminal.Err)

	// No retry happens.
	requireNoSnapshot(t, ch, 4*testDebounce)
}

func TestRemotePanicBecomesErrorSnapshot(t *testing.T) {
	t.Parallel()

	remote := func(ctx context.Context, q string) ([]string, error) {
		panic("boom")
	}
	c := newTestCoordinator(t, nil, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.Search("zz")
	nextSnapshot(t, ch)
	nextSnapshot(t, ch)

	terminal := nextSnapshot(t, ch)
	require.Contains(t, terminal.Err, "boom")
}

func TestShortQueryNeverGoesRemote(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	remote := func(ctx context.Context, q string) ([]string, error) {
		calls.Add(1)
		return nil, nil
	}
	c := newTestCoordinator(t, nil, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.Search("z") // one rune, below the default minimum of two

	snap := nextSnapshot(t, ch)
	require.Equal(t, SourceLocal, snap.Source)

	requireNoSnapshot(t, ch, 4*testDebounce)
	require.Zero(t, calls.Load())
}

func TestZeroMinQueryLengthMeansDefault(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	remote := func(ctx context.Context, q string) ([]string, error) {
		calls.Add(1)
		return []string{"Zebra"}, nil
	}
	c, err := New(Options[string]{
		Remote:         remote,
		Match:          containsFold,
		Equal:          stringEqual,
		Debounce:       testDebounce,
		MinQueryLength: 0, // zero value keeps the default of two runes
	})
	require.NoError(t, err)
	defer c.Close()

	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.Search("z")
	snap := nextSnapshot(t, ch)
	require.Equal(t, SourceLocal, snap.Source)

	requireNoSnapshot(t, ch, 4*testDebounce)
	require.Zero(t, calls.Load())

	// Two runes clear the default threshold.
	c.Search("ze")
	nextSnapshot(t, ch) // local miss
	loading := nextSnapshot(t, ch)
	require.True(t, loading.Loading)
	terminal := nextSnapshot(t, ch)
	require.Equal(t, []string{"Zebra"}, terminal.Items)
	require.Equal(t, int32(1), calls.Load())
}

func TestMinQueryLengthIsConfigurable(t *testing.T) {
	t.Parallel()

	remote := func(ctx context.Context, q string) ([]string, error) {
		return []string{"Zebra"}, nil
	}
	c, err := New(Options[string]{
		Remote:         remote,
		Match:          containsFold,
		Equal:          stringEqual,
		Debounce:       testDebounce,
		MinQueryLength: 1,
	})
	require.NoError(t, err)
	defer c.Close()

	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.Search("z")
	nextSnapshot(t, ch) // local miss
	loading := nextSnapshot(t, ch)
	require.True(t, loading.Loading)
	terminal := nextSnapshot(t, ch)
	require.Equal(t, []string{"Zebra"}, terminal.Items)

	// Even at the lowest threshold an empty query stays local.
	c.ClearLocalData()
	c.Search("")
	empty := nextSnapshot(t, ch)
	require.Equal(t, SourceLocal, empty.Source)
	requireNoSnapshot(t, ch, 4*testDebounce)
}

func TestForceRemoteSearchBypassesLocalHit(t *testing.T) {
	t.Parallel()

	remote := func(ctx context.Context, q string) ([]string, error) {
		return []string{"Banana Republic"}, nil
	}
	c := newTestCoordinator(t, []string{"Banana"}, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.ForceRemoteSearch("banana")

	loading := nextSnapshot(t, ch)
	require.True(t, loading.Loading)
	require.Equal(t, SourceRemote, loading.Source)
	require.Equal(t, "banana", loading.Query)

	terminal := nextSnapshot(t, ch)
	require.Equal(t, []string{"Banana Republic"}, terminal.Items)
	require.Equal(t, SourceRemote, terminal.Source)
}

func TestAddItemsDeduplicates(t *testing.T) {
	t.Parallel()

	remote := func(ctx context.Context, q string) ([]string, error) { return nil, nil }
	c := newTestCoordinator(t, []string{"Apple"}, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.AddItems([]string{"Apple", "Banana", "Banana", "Apple"})
	c.AddItems([]string{"Banana"})

	require.Equal(t, []string{"Apple", "Banana"}, c.Items())
	requireNoSnapshot(t, ch, testDebounce)
}

func TestClearLocalData(t *testing.T) {
	t.Parallel()

	remote := func(ctx context.Context, q string) ([]string, error) { return nil, nil }
	c := newTestCoordinator(t, []string{"Apple", "Banana"}, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.ClearLocalData()
	require.Empty(t, c.Items())
	requireNoSnapshot(t, ch, testDebounce)
}

func TestSeedDataIsDeduplicated(t *testing.T) {
	t.Parallel()

	remote := func(ctx context.Context, q string) ([]string, error) { return nil, nil }
	c := newTestCoordinator(t, []string{"Apple", "Apple", "Banana"}, remote)

	require.Equal(t, []string{"Apple", "Banana"}, c.Items())
}

func TestCloseCancelsPendingTimerAndClosesStream(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	remote := func(ctx context.Context, q string) ([]string, error) {
		calls.Add(1)
		return nil, nil
	}
	c := newTestCoordinator(t, nil, remote)
	ch, unsub := c.Snapshots(8)
	defer unsub()

	c.Search("zz")
	nextSnapshot(t, ch)

	c.Close()
	c.Close() // idempotent

	// The pending remote lookup never fires and the stream drains closed.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				require.Zero(t, calls.Load())
				return
			}
			t.Fatal("unexpected snapshot after Close")
		case <-deadline:
			t.Fatal("stream was not closed")
		}
	}
}

func TestOperationsAfterCloseAreNoOps(t *testing.T) {
	t.Parallel()

	remote := func(ctx context.Context, q string) ([]string, error) {
		return []string{"Late"}, nil
	}
	c := newTestCoordinator(t, nil, remote)
	c.Close()

	c.Search("zz")
	c.ForceRemoteSearch("zz")
	c.AddItems([]string{"Apple"})
	c.ClearLocalData()

	require.Empty(t, c.Items())
}

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"vidrank/db"
)

func newTestStore(t *testing.T, size int) *Store {
	t.Helper()
	d, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	s := NewStore(d, size)
	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func queries(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Query
	}
	return out
}

func TestRecord_NewestFirstAndCapped(t *testing.T) {
	s := newTestStore(t, 5)
	ctx := context.Background()

	for _, q := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		require.NoError(t, s.Record(ctx, "client", q))
	}

	got, err := s.Recent(ctx, "client")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"g", "f", "e", "d", "c"}, queries(got)); diff != "" {
		t.Errorf("Recent() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecord_RepeatMovesToFront(t *testing.T) {
	s := newTestStore(t, 5)
	ctx := context.Background()

	for _, q := range []string{"pasta", "curry", "pasta"} {
		require.NoError(t, s.Record(ctx, "client", q))
	}

	got, err := s.Recent(ctx, "client")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"pasta", "curry"}, queries(got)); diff != "" {
		t.Errorf("Recent() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecord_IgnoresBlank(t *testing.T) {
	s := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "client", "   "))
	got, err := s.Recent(ctx, "client")
	require.NoError(t, err)
	if len(got) != 0 {
		t.Errorf("Recent() = %v, want empty", got)
	}
}

func TestRecord_PerClient(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "alice", "x"))
	require.NoError(t, s.Record(ctx, "bob", "y"))
	require.NoError(t, s.Record(ctx, "alice", "z"))
	require.NoError(t, s.Record(ctx, "alice", "w"))

	alice, err := s.Recent(ctx, "alice")
	require.NoError(t, err)
	bob, err := s.Recent(ctx, "bob")
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"w", "z"}, queries(alice)); diff != "" {
		t.Errorf("alice mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"y"}, queries(bob)); diff != "" {
		t.Errorf("bob mismatch (-want +got):\n%s", diff)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "alice", "x"))
	require.NoError(t, s.Record(ctx, "bob", "y"))
	require.NoError(t, s.Clear(ctx, "alice"))

	alice, _ := s.Recent(ctx, "alice")
	bob, _ := s.Recent(ctx, "bob")
	if len(alice) != 0 || len(bob) != 1 {
		t.Errorf("after Clear: alice=%v bob=%v", alice, bob)
	}
}

func TestRecent_Timestamps(t *testing.T) {
	s := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "c", "q"))
	got, err := s.Recent(ctx, "c")
	require.NoError(t, err)
	want := time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC)
	if len(got) != 1 || !got[0].SearchedAt.Equal(want) {
		t.Errorf("Recent() = %v, want one entry at %v", got, want)
	}
}

package launcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFinder returns one canned answer per call and then reports an
// empty directory.
type scriptedFinder struct {
	err     error
	answers [][]int
	dirs    []string
	mu      sync.Mutex
}

func (f *scriptedFinder) FindInDir(dir string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirs = append(f.dirs, dir)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.answers) == 0 {
		return nil, nil
	}
	next := f.answers[0]
	f.answers = f.answers[1:]
	return next, nil
}

func (f *scriptedFinder) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dirs...)
}

func (f *fixture) withFinder(finder ProcessFinder, track bool) {
	f.launcher = New(f.tracker, Options{
		Fs:             f.fs,
		Spawner:        f.spawner,
		Finder:         finder,
		Clock:          f.clock,
		TrackChildren:  func() bool { return track },
		FollowInterval: 2 * time.Second,
	})
}

func TestFollow_KeepsSessionOpenForChildren(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	finder := &scriptedFinder{answers: [][]int{{4242}, {4242, 4243}}}
	f.withFinder(finder, true)

	res, err := f.launcher.Launch(context.Background(), exePath, f.game.ID)
	require.NoError(t, err)

	f.clock.Advance(30 * time.Second)
	f.spawner.last().exit <- nil

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for range 2 {
		require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
		assert.True(t, f.tracker.Status(f.game.ID).Active, "stub exit leaves the session open")
		f.clock.Advance(2 * time.Second)
	}

	ended, ok := <-res.Done
	require.True(t, ok)
	assert.Equal(t, int64(34), ended.ElapsedSeconds)
	f.launcher.Wait()

	dir := filepath.Dir(exePath)
	assert.Equal(t, []string{dir, dir, dir}, finder.calls())
}

func TestFollow_Disabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	finder := &scriptedFinder{answers: [][]int{{4242}}}
	f.withFinder(finder, false)

	res, err := f.launcher.Launch(context.Background(), exePath, f.game.ID)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Second)
	f.spawner.last().exit <- nil

	ended, ok := <-res.Done
	require.True(t, ok)
	assert.Equal(t, int64(10), ended.ElapsedSeconds)
	assert.Empty(t, finder.calls())
	f.launcher.Wait()
}

func TestFollow_FinderErrorEndsSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	finder := &scriptedFinder{err: errors.New("access denied")}
	f.withFinder(finder, true)

	res, err := f.launcher.Launch(context.Background(), exePath, f.game.ID)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Second)
	f.spawner.last().exit <- nil

	ended, ok := <-res.Done
	require.True(t, ok)
	assert.Equal(t, int64(10), ended.ElapsedSeconds)
	f.launcher.Wait()
}

func TestFollow_StopsWhenDrained(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	finder := &scriptedFinder{answers: [][]int{{4242}, {4242}, {4242}}}
	f.withFinder(finder, true)

	res, err := f.launcher.Launch(context.Background(), exePath, f.game.ID)
	require.NoError(t, err)

	f.clock.Advance(20 * time.Second)
	f.spawner.last().exit <- nil

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))

	drained := f.tracker.FinalizeAll()
	require.Len(t, drained, 1)
	assert.Equal(t, int64(20), drained[0].ElapsedSeconds)

	f.clock.Advance(2 * time.Second)
	_, ok := <-res.Done
	assert.False(t, ok, "drained session is not finalized twice")
	f.launcher.Wait()
	assert.Len(t, finder.calls(), 1)
}

func TestFollow_StopsWhenRelaunched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	finder := &scriptedFinder{answers: [][]int{{4242}, {4242}, {4242}, {4242}}}
	f.withFinder(finder, true)

	first, err := f.launcher.Launch(context.Background(), exePath, f.game.ID)
	require.NoError(t, err)

	f.clock.Advance(20 * time.Second)
	f.spawner.last().exit <- nil

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))

	require.Len(t, f.tracker.FinalizeAll(), 1)

	// same title again before the old observer wakes up
	f.withFinder(finder, false)
	second, err := f.launcher.Launch(context.Background(), exePath, f.game.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.SessionID, second.SessionID)

	f.clock.Advance(2 * time.Second)
	_, ok := <-first.Done
	assert.False(t, ok, "the old observer gives up on the new session")
	assert.Len(t, finder.calls(), 1)
	assert.True(t, f.tracker.Status(f.game.ID).Active)

	f.spawner.last().exit <- nil
	ended, ok := <-second.Done
	require.True(t, ok)
	assert.Equal(t, second.SessionID, ended.SessionID)
	f.launcher.Wait()
}

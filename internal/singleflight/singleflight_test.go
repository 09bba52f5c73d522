package singleflight

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestGroup_CoalescesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var g Group[int, string]
	var calls atomic.Int64
	release := make(chan struct{})

	var eg errgroup.Group
	const n = 16
	for range n {
		eg.Go(func() error {
			v, err := g.Do(context.Background(), 1, func() (string, error) {
				calls.Add(1)
				<-release
				return "v", nil
			})
			if err != nil {
				return err
			}
			if v != "v" {
				return errors.New("unexpected value " + v)
			}
			return nil
		})
	}
	// Give followers time to join the flight before the leader finishes.
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, eg.Wait())
	assert.LessOrEqual(t, calls.Load(), int64(n))
	assert.GreaterOrEqual(t, calls.Load(), int64(1))
}

func TestGroup_FollowerContextCancel(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := g.Do(context.Background(), "k", func() (int, error) {
			close(started)
			<-release
			return 7, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 7, v)
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Do(ctx, "k", func() (int, error) { return 0, nil })
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	wg.Wait()
}

func TestGroup_ErrorIsShared(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	boom := errors.New("boom")
	_, err := g.Do(context.Background(), "k", func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)

	// The failed flight is gone; the next call runs fn again.
	v, err := g.Do(context.Background(), "k", func() (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestGroup_PanicReleasesFollowers(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	started := make(chan struct{})
	release := make(chan struct{})
	followerErr := make(chan error, 1)

	go func() {
		defer func() { _ = recover() }()
		_, _ = g.Do(context.Background(), "k", func() (int, error) {
			close(started)
			<-release
			panic("bad loader")
		})
	}()
	<-started

	go func() {
		_, err := g.Do(context.Background(), "k", func() (int, error) { return 1, nil })
		followerErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case err := <-followerErr:
		// The follower either joined the panicking flight or started a new one.
		if err != nil {
			var pe *PanicError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "bad loader", pe.Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("follower was not released after leader panic")
	}
}

func TestGroup_LeaderRepanics(t *testing.T) {
	t.Parallel()

	var g Group[int, int]
	assert.PanicsWithValue(t, "x", func() {
		_, _ = g.Do(context.Background(), 1, func() (int, error) { panic("x") })
	})
}

func TestGroup_GoexitReleasesFollowers(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	started := make(chan struct{})
	release := make(chan struct{})
	leaderDone := make(chan struct{})
	var returned atomic.Bool

	go func() {
		defer close(leaderDone)
		_, _ = g.Do(context.Background(), "k", func() (int, error) {
			close(started)
			<-release
			runtime.Goexit()
			return 0, nil
		})
		returned.Store(true)
	}()
	<-started

	followerErr := make(chan error, 1)
	go func() {
		_, err := g.Do(context.Background(), "k", func() (int, error) { return 1, nil })
		followerErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case err := <-followerErr:
		// The follower either joined the exiting flight or started a new one.
		if err != nil {
			require.ErrorIs(t, err, ErrGoexit)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("follower was not released after leader Goexit")
	}
	<-leaderDone
	assert.False(t, returned.Load(), "Goexit must keep unwinding the leader")

	v, err := g.Do(context.Background(), "k", func() (int, error) { return 5, nil })
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

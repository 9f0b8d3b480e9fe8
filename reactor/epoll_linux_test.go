//go:build linux
// +build linux

// File: reactor/epoll_linux_test.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-tcp/api"
)

func newPair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	for _, fd := range fds {
		require.NoError(t, unix.SetNonblock(fd, true))
	}
	return fds[0], fds[1]
}

func TestEpollReadableDispatch(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	fd0, fd1 := newPair(t)

	var got api.Interest
	fired := 0
	require.NoError(t, r.Register(fd0, api.Readable, func(ready api.Interest) {
		fired++
		got = ready
	}))

	// Nothing pending yet.
	n, err := r.Poll(0)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = unix.Write(fd1, []byte("x"))
	require.NoError(t, err)

	n, err = r.Poll(1000)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, fired)
	assert.True(t, got.Has(api.Readable))
}

func TestEpollModifyNarrowsInterest(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	fd0, fd1 := newPair(t)

	fired := 0
	require.NoError(t, r.Register(fd0, api.Readable|api.Writable, func(api.Interest) {
		fired++
	}))

	// Writable immediately: one event per poll while interest is wide.
	n, err := r.Poll(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Narrow to read-only: the writable stream stops.
	require.NoError(t, r.Modify(fd0, api.Readable))
	n, err = r.Poll(50)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = unix.Write(fd1, []byte("x"))
	require.NoError(t, err)
	n, err = r.Poll(1000)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, fired)
}

func TestEpollDeregisterStopsCallbacks(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	fd0, fd1 := newPair(t)

	fired := 0
	require.NoError(t, r.Register(fd0, api.Readable, func(api.Interest) { fired++ }))
	require.NoError(t, r.Deregister(fd0))

	_, err = unix.Write(fd1, []byte("x"))
	require.NoError(t, err)

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, err := r.Poll(10)
		require.NoError(t, err)
	}
	assert.Zero(t, fired, "deregistered descriptors never see another callback")
}

func TestEpollPeerHangupMapsToException(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	fd0, fd1 := newPair(t)

	var got api.Interest
	require.NoError(t, r.Register(fd0, api.Readable|api.Exception, func(ready api.Interest) {
		got |= ready
	}))

	require.NoError(t, unix.Close(fd1))

	_, err = r.Poll(1000)
	require.NoError(t, err)
	assert.True(t, got.Has(api.Exception), "EPOLLHUP surfaces as the exceptional condition")
}

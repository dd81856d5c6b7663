package sim

import (
	"context"
	"log/slog"
	"testing"

	"github.com/encodeous/nyroute/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startNode(t *testing.T) *SimNode {
	t.Helper()
	n := newSimNode(context.Background(), 7, slog.New(slog.DiscardHandler))
	go n.MainLoop()
	return n
}

func TestDispatchWait(t *testing.T) {
	defer goleak.VerifyNone(t)
	n := startNode(t)
	defer n.Stop()

	res, err := n.DispatchWait(func(r core.Router) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, res)

	_, err = n.DispatchWait(func(r core.Router) (any, error) {
		return nil, core.ErrMalformedMessage
	})
	assert.ErrorIs(t, err, core.ErrMalformedMessage)

	// an error from the call does not take the node down
	res, err = n.DispatchWait(func(r core.Router) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
}

func TestDispatchPanicStopsNode(t *testing.T) {
	defer goleak.VerifyNone(t)
	n := startNode(t)
	defer n.Stop()

	_, err := n.DispatchWait(func(r core.Router) (any, error) {
		panic("boom")
	})
	assert.ErrorContains(t, err, "panic: boom")

	_, err = n.DispatchWait(func(r core.Router) (any, error) {
		return nil, nil
	})
	assert.ErrorContains(t, err, "panic: boom")
}

func TestDispatchAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)
	n := startNode(t)
	n.Stop()
	n.Stop()

	_, err := n.DispatchWait(func(r core.Router) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

package sim

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"time"

	"github.com/encodeous/nyroute/core"
	"github.com/encodeous/nyroute/perf"
	"github.com/encodeous/nyroute/state"
)

// SimNode runs a single router on its own goroutine. Every call into the
// router goes through the dispatch channel, so the router never observes
// concurrent calls.
type SimNode struct {
	Id       state.NodeId
	Log      *slog.Logger
	router   core.Router
	dispatch chan func(core.Router) error
	ctx      context.Context
	cancel   context.CancelCauseFunc
	done     chan struct{}
}

func newSimNode(parent context.Context, id state.NodeId, log *slog.Logger) *SimNode {
	ctx, cancel := context.WithCancelCause(parent)
	return &SimNode{
		Id:       id,
		Log:      log,
		dispatch: make(chan func(core.Router) error, state.DispatchBuffer),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// run executes fun on the router, turning a panic into a node failure.
func (n *SimNode) run(fun func(core.Router) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fun(n.router)
}

func (n *SimNode) MainLoop() {
	defer close(n.done)
	n.Log.Debug("started main loop")
	for {
		select {
		case fun := <-n.dispatch:
			start := time.Now()
			err := n.run(fun)
			if err != nil {
				n.Log.Error("error occurred during dispatch: ", "error", err)
				n.cancel(err)
			}
			elapsed := time.Since(start)
			perf.DispatchLatency.Add(float64(elapsed.Microseconds()))
			if elapsed > state.SlowDispatchThreshold {
				n.Log.Warn("dispatch took a long time!", "fun", runtime.FuncForPC(reflect.ValueOf(fun).Pointer()).Name(), "elapsed", elapsed, "len", len(n.dispatch))
			}
		case <-n.ctx.Done():
			n.Log.Debug("stopped main loop", "reason", context.Cause(n.ctx).Error())
			return
		}
	}
}

// DispatchWait runs fun on the node's goroutine and waits for it to complete.
// An error returned by fun is handed back to the caller and does not stop the
// node.
func (n *SimNode) DispatchWait(fun func(core.Router) (any, error)) (any, error) {
	ret := make(chan state.Pair[any, error], 1)
	task := func(r core.Router) error {
		res, err := fun(r)
		ret <- state.Pair[any, error]{V1: res, V2: err}
		return nil
	}
	select {
	case n.dispatch <- task:
	case <-n.ctx.Done():
		return nil, context.Cause(n.ctx)
	}
	select {
	case res := <-ret:
		return res.V1, res.V2
	case <-n.ctx.Done():
		return nil, context.Cause(n.ctx)
	}
}

// Stop shuts the node down and waits for its main loop to exit.
func (n *SimNode) Stop() {
	n.cancel(context.Canceled)
	<-n.done
}

package state

import "time"

var (
	// SpfPopLimit bounds the number of priority queue pops in a single
	// shortest path computation. Graphs with more nodes raise the bound to
	// their node count.
	SpfPopLimit = 1000

	// DispatchBuffer is the capacity of each node actor's dispatch channel.
	DispatchBuffer = 128
	// SlowDispatchThreshold is how long a dispatched call may run before it is logged.
	SlowDispatchThreshold = time.Millisecond * 4

	// DefaultLatency is the simulated delivery delay of a routing message, in ticks.
	DefaultLatency = int64(1)
	// MaxSimEvents stops a simulation that does not reach quiescence.
	MaxSimEvents = 1_000_000
)

package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency   = metric.NewHistogram("1m1s")
	MessageSize       = metric.NewHistogram("10s1s")
	MessagesSent      = metric.NewCounter("10s1s")
	MessagesDelivered = metric.NewCounter("10s1s")
	MessagesDropped   = metric.NewCounter("10s1s")
	BytesSent         = metric.NewCounter("10s1s")
	LinkChanges       = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("nyroute:MessageSize", MessageSize)

	expvar.Publish("nyroute:MessagesSent/s", MessagesSent)
	expvar.Publish("nyroute:MessagesDelivered/s", MessagesDelivered)
	expvar.Publish("nyroute:MessagesDropped/s", MessagesDropped)
	expvar.Publish("nyroute:BytesSent/s", BytesSent)
	expvar.Publish("nyroute:LinkChanges/s", LinkChanges)
	expvar.Publish("nyroute:DispatchLatency (µs)", DispatchLatency)
}

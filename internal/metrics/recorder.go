// Package metrics records HTTP and hydration metrics. The Prometheus implementation is
// used in production and NoopRecorder when metrics are disabled.
package metrics

import (
	"time"

	"github.com/jackielii/ventas/structpages"
)

// Recorder defines the observability hooks of the server. It is also the hydrator's
// structpages.HydrationRecorder.
type Recorder interface {
	structpages.HydrationRecorder
	// ObserveRequest records one served page. route is the page's route ID.
	ObserveRequest(route, method string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveRequest(string, string, int, time.Duration) {}
func (NoopRecorder) GuardMounted()                                      {}
func (NoopRecorder) GuardReady()                                        {}
func (NoopRecorder) GuardDiscarded(string)                              {}

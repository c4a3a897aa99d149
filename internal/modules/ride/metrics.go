// README: Prometheus counters for ride transitions.
package ride

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "uride_ride_transitions_total",
		Help: "Applied ride status transitions by destination status.",
	},
	[]string{"to_status"},
)

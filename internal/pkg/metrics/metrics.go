// Package metrics defines and registers all custom Prometheus metrics for the
// people console. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on import and
// exposed by the router on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console"

// ── Upstream API metrics ──────────────────────────────────────────────────────

// UpstreamRequestsTotal counts calls made through the HTTP client adapter.
// Labels:
//   - method:   HTTP method (e.g. "GET")
//   - resource: first path segment of the API path (e.g. "users", "auth")
//   - outcome:  status code as text, or "network_error" / "session_expired"
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of People API calls, by method, resource and outcome.",
	},
	[]string{"method", "resource", "outcome"},
)

// UpstreamRequestDuration measures People API round trips.
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of People API calls from send to fully read body.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "resource"},
)

// MalformedCollectionsTotal counts list responses that were not arrays and
// were replaced by an empty collection.
var MalformedCollectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "malformed_collections_total",
		Help:      "Total number of list responses that were not JSON arrays.",
	},
	[]string{"resource"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session status transitions.
// Label:
//   - to: "unauthenticated", "resolving" or "authenticated"
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session status transitions, by target status.",
	},
	[]string{"to"},
)

// ForcedSignOutsTotal counts sessions cleared by the HTTP client adapter.
// Label:
//   - reason: "expired", "malformed" or "unauthorized"
var ForcedSignOutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forced_sign_outs_total",
		Help:      "Total number of sessions cleared because of an expired credential or a 401.",
	},
	[]string{"reason"},
)

// PermissionDeniedTotal counts requests rejected by the RBAC middleware.
var PermissionDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_denied_total",
		Help:      "Total number of console requests rejected for lack of permission.",
	},
	[]string{"route"},
)

// ── Activity trail metrics ────────────────────────────────────────────────────

// ActivityQueueDepth tracks the activities waiting in each dispatcher worker.
var ActivityQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "activity_queue_depth",
		Help:      "Current number of activities pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ActivityErrorsTotal counts activities that could not be persisted.
var ActivityErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_errors_total",
		Help:      "Total number of activities that failed to persist.",
	},
)

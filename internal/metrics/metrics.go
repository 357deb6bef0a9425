// Package metrics exposes the application's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focus_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "focus_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	ActivitiesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focus_activities_recorded_total",
		Help: "Activity records created, by app.",
	}, []string{"app_name"})

	ActivityMinutes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focus_activity_minutes_total",
		Help: "Minutes of tracked usage, by app.",
	}, []string{"app_name"})

	LimitReached = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focus_limit_reached_total",
		Help: "Daily limit hits, by app.",
	}, []string{"app_name"})

	AppsBlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focus_apps_blocked_total",
		Help: "Block transitions, by app.",
	}, []string{"app_name"})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focus_notifications_sent_total",
		Help: "Push notifications delivered, by kind.",
	}, []string{"kind"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focus_cache_hits_total",
		Help: "Cache-aside lookups served from Redis.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focus_cache_misses_total",
		Help: "Cache-aside lookups that fell through to the database.",
	})

	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "focus_websocket_connections",
		Help: "Currently open websocket channels.",
	})

	UsersRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focus_users_registered_total",
		Help: "Accounts created.",
	})

	UserLogins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focus_user_logins_total",
		Help: "Successful logins.",
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

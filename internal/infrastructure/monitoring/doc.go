/*
Package monitoring provides Prometheus metrics for web conversations.

# Overview

Metrics track every exchange a conversation makes: requests by method and
status, redirects followed, authentication retries, transport failures,
cookie acceptance decisions and form validation failures.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	conv := conversation.New(client, conversation.WithMetrics(metrics))

A nil registerer creates collectors that are not registered anywhere, which
is what tests want.

# Metrics Endpoint

Expose metrics via the standard Prometheus handler:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
*/
package monitoring

/*
Package monitoring provides metrics collection.

# Overview

Metrics are registered on a private Prometheus registry per collector, so
tests and embedded servers can create as many collectors as they like.
Alongside the Prometheus series, a small snapshot is kept for the JSON
health endpoint.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.RecordWindowOpened("terminal")

	timer := monitoring.NewTimer(metrics, "session", "create")
	// ... perform operation ...
	timer.Stop("success")
*/
package monitoring

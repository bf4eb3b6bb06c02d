// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WidgetEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "widgetic",
		Name:      "widget_events_total",
		Help:      "Tracked widget events by type.",
	}, []string{"event"})

	WidgetsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "widgetic",
		Name:      "widgets_created_total",
		Help:      "Widgets created.",
	})

	QuotaRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "widgetic",
		Name:      "quota_rejections_total",
		Help:      "Widget creations refused because the website quota was full.",
	})
)

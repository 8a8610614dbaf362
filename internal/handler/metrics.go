package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storiesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tale_stories_created_total",
		Help: "Total number of stories created.",
	})

	refinementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tale_refinements_total",
			Help: "Total number of refinement requests by scope and status.",
		},
		[]string{"scope", "status"},
	)

	revertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tale_reverts_total",
		Help: "Total number of successful version reverts.",
	})
)

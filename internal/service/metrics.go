package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goaltracker_checkins_total",
			Help: "Checkins written, by answer",
		},
		[]string{"answer"},
	)

	numberEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goaltracker_number_entries_total",
			Help: "Number entries written",
		},
	)

	rejectedWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goaltracker_rejected_writes_total",
			Help: "Checkin and value writes rejected, by reason",
		},
		[]string{"reason"},
	)
)

package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wizardSessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forge_wizard_sessions_started_total",
		Help: "Number of creation wizard sessions opened.",
	})
	forgeRunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forge_runs_started_total",
		Help: "Number of forge runs launched from completed wizards.",
	})
	copilotExchanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forge_copilot_exchanges_total",
		Help: "Number of copilot exchanges accepted.",
	})
)

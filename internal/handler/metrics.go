package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	studySessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyquest_study_sessions_total",
		Help: "Total number of recorded study sessions by outcome.",
	}, []string{"outcome"})

	themeRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyquest_theme_refreshes_total",
		Help: "Total number of theme refresh requests by status.",
	}, []string{"status"})
)

// Package metrics registers the Prometheus instruments for the
// abuse-detection core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsScored counts scored events by resulting level
	EventsScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riskcore",
		Subsystem: "scorer",
		Name:      "events_scored_total",
		Help:      "Total events scored by resulting risk level.",
	}, []string{"level"})

	// CasesFlagged counts suspicious cases opened by detection rule
	CasesFlagged = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riskcore",
		Subsystem: "scorer",
		Name:      "cases_flagged_total",
		Help:      "Total suspicious cases opened by detection rule.",
	}, []string{"rule"})

	// RequestsThrottled counts rate limiter denials
	RequestsThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "riskcore",
		Subsystem: "ratelimit",
		Name:      "requests_throttled_total",
		Help:      "Total requests denied by the rate limiter.",
	})

	// OtpVerifications counts OTP checks by outcome
	OtpVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riskcore",
		Subsystem: "otp",
		Name:      "verifications_total",
		Help:      "Total OTP verification attempts by outcome.",
	}, []string{"channel", "outcome"})
)

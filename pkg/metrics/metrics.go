package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "form_submissions_received_total",
		Help: "The total number of form submissions received",
	}, []string{"scope"})

	SubmissionsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "form_submissions_processed_total",
		Help: "The total number of form submissions processed through the rule engine",
	}, []string{"scope", "status"})

	SubmissionProcessingTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "form_submission_processing_duration_seconds",
		Help:    "Time taken to process a form submission through the rule engine",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})

	RulesMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "submission_rules_matched_total",
		Help: "The total number of rule matches during submission processing",
	}, []string{"scope"})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "The total number of webhook delivery attempts by outcome",
	}, []string{"status"})

	WebhookDeliveryTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_delivery_duration_seconds",
		Help:    "Round-trip time of outbound webhook deliveries",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	WebhookTests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_tests_total",
		Help: "The total number of webhook endpoint tests by outcome",
	}, []string{"status"})

	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "submission_rate_limit_exceeded_total",
		Help: "The total number of submissions rejected by plan limits",
	}, []string{"website_id"})

	EventQueueSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "submission_event_queue_size",
		Help: "Current size of the submission event queue",
	}, []string{"queue"})

	RollupEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "submission_rollup_events_total",
		Help: "The total number of submission events consumed by the rollup worker",
	}, []string{"status"})
)

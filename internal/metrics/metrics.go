package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	JobsClaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nudge_jobs_claimed_total",
			Help: "Total reminder jobs claimed by this worker",
		},
	)

	JobsReclaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nudge_jobs_reclaimed_total",
			Help: "Total stale claims released back to pending",
		},
	)

	RemindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nudge_reminders_sent_total",
			Help: "Total reminders dispatched successfully",
		},
	)

	RemindersFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nudge_reminders_failed_total",
			Help: "Total reminder delivery failures",
		},
	)
)

func Init() {
	prometheus.MustRegister(JobsClaimed)
	prometheus.MustRegister(JobsReclaimed)
	prometheus.MustRegister(RemindersSent)
	prometheus.MustRegister(RemindersFailed)
}

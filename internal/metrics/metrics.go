// Package metrics defines Prometheus metrics for the account service,
// covering logins, lockouts, registrations and mail delivery.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "accounts_login_attempts_total",
		Help: "Total number of login attempts grouped by outcome",
	}, []string{"outcome"})
	AccountsLocked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accounts_locked_total",
		Help: "Total number of accounts locked after too many failed logins",
	})
	Registrations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accounts_registrations_total",
		Help: "Total number of successfully created accounts",
	})
	Verifications = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accounts_email_verifications_total",
		Help: "Total number of successful email verifications",
	})
	AccountsCleaned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accounts_unverified_cleaned_total",
		Help: "Total number of unverified accounts removed by the cleanup job",
	})
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "accounts_mail_send_success_total",
		Help: "Total number of emails sent successfully",
	}, []string{"type"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "accounts_mail_send_failure_total",
		Help: "Total number of emails that failed to send",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(
		LoginAttempts,
		AccountsLocked,
		Registrations,
		Verifications,
		AccountsCleaned,
		MailSendSuccess,
		MailSendFailure,
	)
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

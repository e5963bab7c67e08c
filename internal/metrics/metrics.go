// Package metrics описывает метрики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — набор метрик синхронизации, журнала и напоминаний.
type Metrics struct {
	remoteWrites     *prometheus.CounterVec
	snapshotsApplied *prometheus.CounterVec
	degraded         prometheus.Gauge
	members          prometheus.Gauge
	logEntries       *prometheus.CounterVec
	reminders        *prometheus.CounterVec
}

// New создаёт метрики и регистрирует их в reg.
// Для /metrics используется prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		remoteWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "huygym",
			Name:      "remote_writes_total",
			Help:      "Writes to the remote store by collection and result.",
		}, []string{"collection", "result"}),
		snapshotsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "huygym",
			Name:      "snapshots_applied_total",
			Help:      "Remote snapshots applied to the member store by source.",
		}, []string{"source"}),
		degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "huygym",
			Name:      "sync_degraded",
			Help:      "1 when the service runs on local fallback data only.",
		}),
		members: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "huygym",
			Name:      "members",
			Help:      "Members currently held in memory.",
		}),
		logEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "huygym",
			Name:      "activity_log_entries_total",
			Help:      "Activity log entries appended by action.",
		}, []string{"action"}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "huygym",
			Name:      "expiry_reminders_total",
			Help:      "Expiry reminders published by routing key and result.",
		}, []string{"routing_key", "result"}),
	}
	reg.MustRegister(m.remoteWrites, m.snapshotsApplied, m.degraded, m.members, m.logEntries, m.reminders)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RemoteWrite учитывает запись в удалённое хранилище.
func (m *Metrics) RemoteWrite(collection string, err error) {
	m.remoteWrites.WithLabelValues(collection, result(err)).Inc()
}

// SnapshotApplied учитывает применённый снимок и текущее число участников.
func (m *Metrics) SnapshotApplied(source string, members int) {
	m.snapshotsApplied.WithLabelValues(source).Inc()
	m.members.Set(float64(members))
}

// SetDegraded выставляет признак работы на локальных данных.
func (m *Metrics) SetDegraded(degraded bool) {
	if degraded {
		m.degraded.Set(1)
		return
	}
	m.degraded.Set(0)
}

// SetMembers обновляет число участников.
func (m *Metrics) SetMembers(n int) {
	m.members.Set(float64(n))
}

// LogEntry учитывает новую запись журнала.
func (m *Metrics) LogEntry(action string) {
	m.logEntries.WithLabelValues(action).Inc()
}

// ReminderPublished учитывает публикацию напоминания.
func (m *Metrics) ReminderPublished(routingKey string, err error) {
	m.reminders.WithLabelValues(routingKey, result(err)).Inc()
}

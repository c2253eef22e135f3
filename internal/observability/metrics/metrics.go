package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters for webhook deliveries and chat flows.
type Metrics struct {
	webhookDeliveries *prometheus.CounterVec
	chatRelays        *prometheus.CounterVec
	flowSessions      prometheus.Counter
	leadsSubmitted    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		webhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "gateway",
			Name:      "webhook_deliveries_total",
			Help:      "Total webhook delivery attempts by kind and status",
		}, []string{"kind", "status"}),
		chatRelays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "completion",
			Name:      "chat_relays_total",
			Help:      "Total chat-completion relay calls by status",
		}, []string{"status"}),
		flowSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "flow",
			Name:      "sessions_total",
			Help:      "Total widget flow sessions started",
		}),
		leadsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "leads",
			Name:      "submitted_total",
			Help:      "Total lead submissions by webhook delivery status",
		}, []string{"webhook_status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.webhookDeliveries, m.chatRelays, m.flowSessions, m.leadsSubmitted)
	return m
}

func (m *Metrics) ObserveWebhookDelivery(kind, status string) {
	if m == nil {
		return
	}
	m.webhookDeliveries.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) ObserveChatRelay(status string) {
	if m == nil {
		return
	}
	m.chatRelays.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveFlowSession() {
	if m == nil {
		return
	}
	m.flowSessions.Inc()
}

func (m *Metrics) ObserveLeadSubmission(webhookStatus string) {
	if m == nil {
		return
	}
	m.leadsSubmitted.WithLabelValues(webhookStatus).Inc()
}

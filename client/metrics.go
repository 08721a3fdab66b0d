package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"manaclient/dispatch"
)

// SessionMetrics 会话运行期的关键指标（用于监控与调试）
type SessionMetrics struct {
	Messages      *prometheus.CounterVec // 按分发结果统计的入站消息
	BeingsCreated prometheus.Counter
	BeingsRetired prometheus.Counter
	WhisperQueue  prometheus.Gauge     // 等待结果的私聊数
	Disconnects   prometheus.Counter
	TickSeconds   prometheus.Histogram // 每次 Tick 耗时
}

// NewSessionMetrics 在给定注册器上创建指标；nil 使用默认注册器
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	const ns = "manaclient"
	return &SessionMetrics{
		Messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "messages_total",
			Help:      "Inbound messages by dispatch outcome",
		}, []string{"outcome"}),
		BeingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "beings_created_total",
			Help:      "Beings created on first sight",
		}),
		BeingsRetired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "beings_retired_total",
			Help:      "Beings removed from the registry",
		}),
		WhisperQueue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "whisper_queue_depth",
			Help:      "Whispers sent and not yet acknowledged",
		}),
		Disconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "disconnects_total",
			Help:      "Connection losses",
		}),
		TickSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "tick_duration_seconds",
			Help:      "Time spent draining and dispatching messages per tick",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05},
		}),
	}
}

// observe 作为 dispatch.Registry 的 Observer
func (m *SessionMetrics) observe(_ uint16, o dispatch.Outcome) {
	m.Messages.WithLabelValues(o.String()).Inc()
}

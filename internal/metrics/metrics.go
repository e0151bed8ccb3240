// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ブートストラップ、要約サービス、HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordBootstrap(outcome string)
	RecordGenerateSuccess()
	RecordGenerateFailure(reason string)
	RecordGenerateLatency(duration time.Duration)
	RecordSummarySaved()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	bootstrap       *prometheus.CounterVec
	generateSuccess prometheus.Counter
	generateFail    *prometheus.CounterVec
	generateLatency prometheus.Histogram
	summariesSaved  prometheus.Counter
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		bootstrap: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resumedigest_bootstrap_total",
			Help: "ページ読み込み時のセッション解決結果別の件数",
		}, []string{"outcome"}),
		generateSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resumedigest_generate_success_total",
			Help: "要約生成成功の合計数",
		}),
		generateFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resumedigest_generate_fail_total",
			Help: "要約生成失敗の合計数",
		}, []string{"reason"}),
		generateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "resumedigest_generate_latency_seconds",
			Help:    "要約生成APIのレイテンシ（秒）",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 60},
		}),
		summariesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resumedigest_summaries_saved_total",
			Help: "保存された要約レコードの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resumedigest_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.bootstrap,
		c.generateSuccess,
		c.generateFail,
		c.generateLatency,
		c.summariesSaved,
		c.httpStatus,
	)

	return c
}

// RecordBootstrap はページ読み込み時のセッション解決結果を記録する。
func (c *Collector) RecordBootstrap(outcome string) {
	c.bootstrap.WithLabelValues(outcome).Inc()
}

// RecordGenerateSuccess は要約生成成功を記録する。
func (c *Collector) RecordGenerateSuccess() {
	c.generateSuccess.Inc()
}

// RecordGenerateFailure は要約生成失敗を理由別に記録する。
func (c *Collector) RecordGenerateFailure(reason string) {
	c.generateFail.WithLabelValues(reason).Inc()
}

// RecordGenerateLatency は要約生成のレイテンシを記録する。
func (c *Collector) RecordGenerateLatency(duration time.Duration) {
	c.generateLatency.Observe(duration.Seconds())
}

// RecordSummarySaved は要約レコードの保存を記録する。
func (c *Collector) RecordSummarySaved() {
	c.summariesSaved.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ MetricsCollector = (*Collector)(nil)

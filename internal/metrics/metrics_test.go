package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetricFamily はレジストリから指定名のメトリクスファミリーを取得する。
func findMetricFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// labeledCounterValues はラベル値ごとのカウンタ値を返す。
func labeledCounterValues(mf *dto.MetricFamily) map[string]float64 {
	values := make(map[string]float64)
	for _, m := range mf.GetMetric() {
		values[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	return values
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordBootstrap_CountsByOutcome はセッション解決結果がラベル別に数えられることを検証する。
func TestRecordBootstrap_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordBootstrap("restored")
	c.RecordBootstrap("restored")
	c.RecordBootstrap("exchange_failed")

	values := labeledCounterValues(findMetricFamily(t, reg, "resumedigest_bootstrap_total"))
	if values["restored"] != 2 {
		t.Errorf("bootstrap_total{outcome=restored} = %v, want 2", values["restored"])
	}
	if values["exchange_failed"] != 1 {
		t.Errorf("bootstrap_total{outcome=exchange_failed} = %v, want 1", values["exchange_failed"])
	}
	if len(values) != 2 {
		t.Errorf("expected 2 label combinations, got %d", len(values))
	}
}

// TestRecordGenerateSuccess_IncrementsCounter は生成成功カウンタが増加することを検証する。
func TestRecordGenerateSuccess_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGenerateSuccess()
	c.RecordGenerateSuccess()

	mf := findMetricFamily(t, reg, "resumedigest_generate_success_total")
	if val := mf.GetMetric()[0].GetCounter().GetValue(); val != 2 {
		t.Errorf("generate_success_total = %v, want 2", val)
	}
}

// TestRecordGenerateFailure_CountsByReason は生成失敗が理由別に数えられることを検証する。
func TestRecordGenerateFailure_CountsByReason(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGenerateFailure("api_error")
	c.RecordGenerateFailure("timeout")
	c.RecordGenerateFailure("api_error")

	values := labeledCounterValues(findMetricFamily(t, reg, "resumedigest_generate_fail_total"))
	if values["api_error"] != 2 {
		t.Errorf("generate_fail_total{reason=api_error} = %v, want 2", values["api_error"])
	}
	if values["timeout"] != 1 {
		t.Errorf("generate_fail_total{reason=timeout} = %v, want 1", values["timeout"])
	}
}

// TestRecordGenerateLatency_ObservesHistogram はレイテンシのヒストグラムに値が記録されることを検証する。
func TestRecordGenerateLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGenerateLatency(300 * time.Millisecond)
	c.RecordGenerateLatency(3 * time.Second)

	h := findMetricFamily(t, reg, "resumedigest_generate_latency_seconds").GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("sample count = %d, want 2", h.GetSampleCount())
	}
	if sum := h.GetSampleSum(); sum < 3.29 || sum > 3.31 {
		t.Errorf("sample sum = %v, want 3.3", sum)
	}
}

// TestRecordSummarySaved_IncrementsCounter は保存カウンタが増加することを検証する。
func TestRecordSummarySaved_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSummarySaved()

	mf := findMetricFamily(t, reg, "resumedigest_summaries_saved_total")
	if val := mf.GetMetric()[0].GetCounter().GetValue(); val != 1 {
		t.Errorf("summaries_saved_total = %v, want 1", val)
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(502)

	values := labeledCounterValues(findMetricFamily(t, reg, "resumedigest_http_status_total"))
	if values["200"] != 2 {
		t.Errorf("http_status_total{status_code=200} = %v, want 2", values["200"])
	}
	if values["502"] != 1 {
		t.Errorf("http_status_total{status_code=502} = %v, want 1", values["502"])
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsエンドポイントがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordBootstrap("anonymous")
	c.RecordGenerateSuccess()
	c.RecordGenerateFailure("api_error")
	c.RecordGenerateLatency(500 * time.Millisecond)
	c.RecordSummarySaved()
	c.RecordHTTPStatus(200)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	expectedMetrics := []string{
		"resumedigest_bootstrap_total",
		"resumedigest_generate_success_total",
		"resumedigest_generate_fail_total",
		"resumedigest_generate_latency_seconds",
		"resumedigest_summaries_saved_total",
		"resumedigest_http_status_total",
	}
	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestMultipleCollectors_IndependentRegistries は異なるレジストリで独立に動作することを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordSummarySaved()
	c2.RecordSummarySaved()
	c2.RecordSummarySaved()

	val1 := findMetricFamily(t, reg1, "resumedigest_summaries_saved_total").GetMetric()[0].GetCounter().GetValue()
	val2 := findMetricFamily(t, reg2, "resumedigest_summaries_saved_total").GetMetric()[0].GetCounter().GetValue()

	if val1 != 1 {
		t.Errorf("reg1 summaries_saved = %v, want 1", val1)
	}
	if val2 != 2 {
		t.Errorf("reg2 summaries_saved = %v, want 2", val2)
	}
}

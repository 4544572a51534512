package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetricFamily は収集結果から指定名のメトリクスファミリーを返す。
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

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestNewCollector_DoubleRegisterPanics は同じレジストリへの二重登録がpanicすることを検証する。
func TestNewCollector_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}

// TestRecordCatalogLookup_CountsByOutcome はカタログ参照が結果別にカウントされることを検証する。
func TestRecordCatalogLookup_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCatalogLookup(OutcomeSuccess)
	c.RecordCatalogLookup(OutcomeSuccess)
	c.RecordCatalogLookup(OutcomeFailure)

	mf := findMetricFamily(t, reg, "animark_catalog_lookups_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[labelValue(m, "outcome")] = m.GetCounter().GetValue()
	}
	if got[OutcomeSuccess] != 2 {
		t.Errorf("success = %v, want 2", got[OutcomeSuccess])
	}
	if got[OutcomeFailure] != 1 {
		t.Errorf("failure = %v, want 1", got[OutcomeFailure])
	}
}

// TestRecordCatalogStatus_LabelsStatusCode はステータスコードがラベルとして記録されることを検証する。
func TestRecordCatalogStatus_LabelsStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCatalogStatus(429)

	mf := findMetricFamily(t, reg, "animark_catalog_http_status_total")
	if len(mf.GetMetric()) != 1 {
		t.Fatalf("expected 1 metric, got %d", len(mf.GetMetric()))
	}
	if v := labelValue(mf.GetMetric()[0], "status_code"); v != "429" {
		t.Errorf("status_code label = %q, want 429", v)
	}
}

// TestRecordCache_HitsAndMisses はキャッシュのヒット・ミスが別々に記録されることを検証する。
func TestRecordCache_HitsAndMisses(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCacheHit()
	c.RecordCacheMiss()
	c.RecordCacheMiss()

	hits := findMetricFamily(t, reg, "animark_catalog_cache_hits_total").GetMetric()[0].GetCounter().GetValue()
	misses := findMetricFamily(t, reg, "animark_catalog_cache_misses_total").GetMetric()[0].GetCounter().GetValue()
	if hits != 1 || misses != 2 {
		t.Errorf("hits=%v misses=%v, want 1 and 2", hits, misses)
	}
}

// TestRecordCatalogLatency_ObservesHistogram はレイテンシがヒストグラムに記録されることを検証する。
func TestRecordCatalogLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCatalogLatency(150 * time.Millisecond)

	h := findMetricFamily(t, reg, "animark_catalog_latency_seconds").GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 {
		t.Errorf("sample count = %d, want 1", h.GetSampleCount())
	}
	if h.GetSampleSum() < 0.149 || h.GetSampleSum() > 0.151 {
		t.Errorf("sample sum = %v, want ~0.15", h.GetSampleSum())
	}
}

// TestRecordHTTPRequest_CountsAndObserves はAPIリクエストのカウントとレイテンシを検証する。
func TestRecordHTTPRequest_CountsAndObserves(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest("GET", 200, 10*time.Millisecond)
	c.RecordHTTPRequest("POST", 410, 5*time.Millisecond)

	mf := findMetricFamily(t, reg, "animark_http_requests_total")
	if len(mf.GetMetric()) != 2 {
		t.Errorf("expected 2 label combinations, got %d", len(mf.GetMetric()))
	}
	h := findMetricFamily(t, reg, "animark_http_request_duration_seconds").GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("sample count = %d, want 2", h.GetSampleCount())
	}
}

// TestRecordAnimeCompleted_IncrementsCounter は完了カウンタの増加を検証する。
func TestRecordAnimeCompleted_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAnimeCompleted()

	v := findMetricFamily(t, reg, "animark_anime_completed_total").GetMetric()[0].GetCounter().GetValue()
	if v != 1 {
		t.Errorf("anime_completed_total = %v, want 1", v)
	}
}

// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// カタログ参照の結果ラベル
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeFailure  = "failure"
)

// MetricsCollector はメトリクス収集のインターフェース。
// カタログクライアント、サービス層、HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordCatalogLookup(outcome string)
	RecordCatalogStatus(statusCode int)
	RecordCatalogLatency(duration time.Duration)
	RecordCacheHit()
	RecordCacheMiss()
	RecordAnimeCompleted()
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	catalogLookups *prometheus.CounterVec
	catalogStatus  *prometheus.CounterVec
	catalogLatency prometheus.Histogram
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	animeCompleted prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpLatency    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		catalogLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animark_catalog_lookups_total",
			Help: "アニメカタログ参照の結果別合計数",
		}, []string{"outcome"}),
		catalogStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animark_catalog_http_status_total",
			Help: "アニメカタログAPIのHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		catalogLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "animark_catalog_latency_seconds",
			Help:    "アニメカタログ参照のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "animark_catalog_cache_hits_total",
			Help: "カタログキャッシュのヒット数",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "animark_catalog_cache_misses_total",
			Help: "カタログキャッシュのミス数",
		}),
		animeCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "animark_anime_completed_total",
			Help: "視聴進捗により完了となったアニメの合計数",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animark_http_requests_total",
			Help: "APIリクエストのメソッド・ステータスコード別合計数",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "animark_http_request_duration_seconds",
			Help:    "APIリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.catalogLookups,
		c.catalogStatus,
		c.catalogLatency,
		c.cacheHits,
		c.cacheMisses,
		c.animeCompleted,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

// RecordCatalogLookup はカタログ参照の結果を記録する。
func (c *Collector) RecordCatalogLookup(outcome string) {
	c.catalogLookups.WithLabelValues(outcome).Inc()
}

// RecordCatalogStatus はカタログAPIのHTTPステータスコードを記録する。
func (c *Collector) RecordCatalogStatus(statusCode int) {
	c.catalogStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordCatalogLatency はカタログ参照のレイテンシを記録する。
func (c *Collector) RecordCatalogLatency(duration time.Duration) {
	c.catalogLatency.Observe(duration.Seconds())
}

// RecordCacheHit はキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Inc()
}

// RecordCacheMiss はキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss() {
	c.cacheMisses.Inc()
}

// RecordAnimeCompleted は視聴完了への昇格を記録する。
func (c *Collector) RecordAnimeCompleted() {
	c.animeCompleted.Inc()
}

// RecordHTTPRequest はAPIリクエストの結果と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)

package metrics

import "time"

// Nop はメトリクスを記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordCatalogLookup(string)                   {}
func (Nop) RecordCatalogStatus(int)                      {}
func (Nop) RecordCatalogLatency(time.Duration)           {}
func (Nop) RecordCacheHit()                              {}
func (Nop) RecordCacheMiss()                             {}
func (Nop) RecordAnimeCompleted()                        {}
func (Nop) RecordHTTPRequest(string, int, time.Duration) {}

var _ MetricsCollector = Nop{}

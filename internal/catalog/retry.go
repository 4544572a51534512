package catalog

import (
	"net/http"
	"strconv"
	"time"
)

// statusClass はカタログAPIのHTTPステータスコードの分類。
type statusClass int

const (
	// statusOK は取得成功（200）。
	statusOK statusClass = iota
	// statusNotFound はアニメが存在しない（404）。
	statusNotFound
	// statusRetry は再試行が必要なステータス（408/429/5xx）。
	statusRetry
	// statusFail は再試行しても成功しないステータス。
	statusFail
)

const (
	// defaultRetryBaseDelay は指数バックオフの初回遅延。
	defaultRetryBaseDelay = 500 * time.Millisecond
	// maxRetryDelay は指数バックオフの最大遅延。
	maxRetryDelay = 5 * time.Second
)

// classifyStatus はHTTPステータスコードを分類する。
func classifyStatus(statusCode int) statusClass {
	switch {
	case statusCode == http.StatusOK:
		return statusOK
	case statusCode == http.StatusNotFound:
		return statusNotFound
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusTooManyRequests:
		return statusRetry
	case statusCode >= 500:
		return statusRetry
	default:
		return statusFail
	}
}

// calculateBackoff は試行回数に基づいて指数バックオフ遅延を計算する。
// base から2倍ずつ増加し、maxRetryDelay で頭打ちになる。
func calculateBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = defaultRetryBaseDelay
	}
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}

// retryAfter はRetry-Afterヘッダー（秒数）を解釈する。
// 未指定または不正な値の場合は0を返す。上限はmaxRetryDelay。
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

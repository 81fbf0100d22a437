// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 認証イベントと記事操作のカウンターを提供する。
type Collector struct {
	loginSuccess  *prometheus.CounterVec
	loginFailure  *prometheus.CounterVec
	registrations prometheus.Counter
	postOps       *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_login_success_total",
			Help: "ログイン成功の合計数（認証方法別）",
		}, []string{"method"}),
		loginFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_login_failure_total",
			Help: "ログイン失敗の合計数（認証方法・理由別）",
		}, []string{"method", "reason"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_registrations_total",
			Help: "ローカルサインアップの合計数",
		}),
		postOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_post_operations_total",
			Help: "記事操作の合計数（操作別）",
		}, []string{"operation"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFailure,
		c.registrations,
		c.postOps,
		c.httpStatus,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess(method string) {
	c.loginSuccess.WithLabelValues(method).Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure(method, reason string) {
	c.loginFailure.WithLabelValues(method, reason).Inc()
}

// RecordRegistration はローカルサインアップを記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordPostOperation は記事操作を記録する。
func (c *Collector) RecordPostOperation(operation string) {
	c.postOps.WithLabelValues(operation).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

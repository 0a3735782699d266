package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeError   = "error"
)

// 儲存端紀錄被捨棄的原因
const (
	ReasonForeignReviewer = "foreign_reviewer"
	ReasonMalformed       = "malformed"
)

// stream 訊息處理階段
const (
	StagePublished    = "published"
	StagePublishError = "publish_error"
	StageConsumed     = "consumed"
	StageParseError   = "parse_error"
)

var (
	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Business metrics
	BidSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bid_saves_total",
			Help: "Total number of bid saves by outcome",
		},
		[]string{"outcome"},
	)

	BidDuplicatesCollapsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bid_duplicates_collapsed_total",
			Help: "Total number of duplicated bid rows collapsed while reconciling",
		},
	)

	BidRecordsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bid_records_discarded_total",
			Help: "Total number of store rows discarded before reconciling",
		},
		[]string{"reason"},
	)

	// Store metrics
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bid_store_operations_total",
			Help: "Total number of preference store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// Stream metrics
	StreamMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bid_event_stream_messages_total",
			Help: "Total number of bid change messages handled on redis streams",
		},
		[]string{"stream", "stage"},
	)

	// Application health metrics
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "application_info",
			Help: "Application information",
		},
		[]string{"service", "version", "store"},
	)
)

// Init 設定應用程式資訊
func Init(serviceName, version, store string) {
	ApplicationInfo.WithLabelValues(serviceName, version, store).Set(1)
}

// ObserveStore 記錄一次儲存端操作的結果
func ObserveStore(backend, operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOperationsTotal.WithLabelValues(backend, operation, status).Inc()
}

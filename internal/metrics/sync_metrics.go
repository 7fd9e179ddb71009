package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics содержит метрики прогонов синхронизации.
type SyncMetrics struct {
	// Счётчики прогонов
	runsStarted   prometheus.Counter
	runsCompleted prometheus.Counter
	runsFailed    prometheus.Counter

	// Счётчики заказов
	ordersProcessed prometheus.Counter
	ordersAdded     *prometheus.CounterVec

	// Rate-limit паузы источника
	rateLimitWaits prometheus.Counter

	// Гистограмма длительности прогона
	runDuration prometheus.Histogram

	// Gauge размера последней пересборки витрины
	customersRebuilt prometheus.Gauge
}

// NewSyncMetrics создаёт новый экземпляр метрик синхронизации.
func NewSyncMetrics() *SyncMetrics {
	return newSyncMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newSyncMetricsWithRegisterer(registerer prometheus.Registerer) *SyncMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SyncMetrics{
		runsStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "crmsync_runs_started_total",
			Help: "Total number of sync runs started",
		}),
		runsCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "crmsync_runs_completed_total",
			Help: "Total number of sync runs completed successfully",
		}),
		runsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "crmsync_runs_failed_total",
			Help: "Total number of sync runs failed",
		}),
		ordersProcessed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "crmsync_orders_processed_total",
			Help: "Total number of orders fetched from the source",
		}),
		ordersAdded: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "crmsync_orders_added_total",
			Help: "Total number of new orders appended to the ledger",
		}, []string{"ledger"}),
		rateLimitWaits: registerCounter(registerer, prometheus.CounterOpts{
			Name: "crmsync_rate_limit_waits_total",
			Help: "Total number of rate-limit pauses while fetching",
		}),
		runDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "crmsync_run_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		customersRebuilt: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "crmsync_customers_rebuilt",
			Help: "Number of customers in the last rebuilt table",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordRunStarted увеличивает счётчик запущенных прогонов.
func (m *SyncMetrics) RecordRunStarted() {
	m.runsStarted.Inc()
}

// RecordRunCompleted увеличивает счётчик успешных прогонов.
func (m *SyncMetrics) RecordRunCompleted() {
	m.runsCompleted.Inc()
}

// RecordRunFailed увеличивает счётчик неудачных прогонов.
func (m *SyncMetrics) RecordRunFailed() {
	m.runsFailed.Inc()
}

// RecordOrdersProcessed учитывает заказы, полученные из источника.
func (m *SyncMetrics) RecordOrdersProcessed(n int) {
	m.ordersProcessed.Add(float64(n))
}

// RecordOrdersAdded учитывает новые строки леджера ("valid" или "ignored").
func (m *SyncMetrics) RecordOrdersAdded(ledger string, n int) {
	m.ordersAdded.WithLabelValues(ledger).Add(float64(n))
}

// RecordRateLimitWait увеличивает счётчик пауз из-за rate limit источника.
func (m *SyncMetrics) RecordRateLimitWait() {
	m.rateLimitWaits.Inc()
}

// RecordRunDuration записывает длительность прогона.
func (m *SyncMetrics) RecordRunDuration(duration time.Duration) {
	m.runDuration.Observe(duration.Seconds())
}

// RecordCustomersRebuilt фиксирует размер последней пересборки витрины.
func (m *SyncMetrics) RecordCustomersRebuilt(n int) {
	m.customersRebuilt.Set(float64(n))
}

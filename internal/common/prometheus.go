package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	VoucherIssuedTotal         = "mint_voucher_issued_total"
	MintConfirmedTotal         = "mint_confirmed_total"
	GenerationTotal            = "generation_total"
	CastTotal                  = "outreach_cast_total"
)

var (
	PromGauges = map[string]*prometheus.GaugeVec{}

	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"path", "code"}),
		VoucherIssuedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: VoucherIssuedTotal,
			Help: "Count of mint voucher requests by result",
		}, []string{"result"}),
		MintConfirmedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MintConfirmedTotal,
			Help: "Count of mints confirmed by clients",
		}, []string{"result"}),
		GenerationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: GenerationTotal,
			Help: "Count of artwork generations by result",
		}, []string{"result"}),
		CastTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: CastTotal,
			Help: "Count of outreach casts by result",
		}, []string{"result"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"path", "code"}),
	}

	PromSummaries = map[string]*prometheus.SummaryVec{}
)

// IncCounter is a no-op for unknown names.
func IncCounter(name string, labels ...string) {
	if c, ok := PromCounters[name]; ok {
		c.WithLabelValues(labels...).Inc()
	}
}

package cart

import "github.com/prometheus/client_golang/prometheus"

const (
	opAdd      = "add"
	opSetQty   = "set_quantity"
	opRemove   = "remove"
	opClear    = "clear"
	opCheckout = "checkout"
	opPrune    = "prune"
	opRestore  = "restore"
)

type Metrics struct {
	Operations *prometheus.CounterVec
	Lines      prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cart_operations_total",
				Help: "Cart operations by kind and outcome",
			},
			[]string{"op", "result"},
		),
		Lines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cart_checkout_lines",
			Help:    "Line items per checked-out cart",
			Buckets: prometheus.LinearBuckets(1, 2, 8),
		}),
	}
	reg.MustRegister(m.Operations, m.Lines)
	return m
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) checkout(lines int) {
	if m == nil {
		return
	}
	m.Lines.Observe(float64(lines))
}

package services

import "github.com/prometheus/client_golang/prometheus"

var (
	ItemWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "items_writes_total", Help: "Item writes by operation and outcome"},
		[]string{"op", "outcome"},
	)
	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "items_store_errors_total", Help: "Document store failures by operation"},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(ItemWrites, StoreErrors)
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trading_cycles_total", Help: "Evaluation cycles run by the automation loop"},
	)
	SkippedTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trading_skipped_ticks_total", Help: "Timer ticks skipped because a cycle was still running"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trading_signals_total", Help: "Signals generated by action"},
		[]string{"action"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trading_trades_total", Help: "Orders submitted by the automation loop"},
		[]string{"symbol", "side"},
	)
	TradeFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trading_trade_failures_total", Help: "Trade executions that failed"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, SkippedTicksTotal, SignalsTotal, TradesTotal, TradeFailuresTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

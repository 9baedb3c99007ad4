package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CouponValidateTotal counts coupon validation outcomes by result.
	CouponValidateTotal *prometheus.CounterVec
	// CartTotalDuration records cart total computation latency in milliseconds.
	CartTotalDuration prometheus.Histogram
	// SearchCacheTotal counts catalog search cache lookups by result.
	SearchCacheTotal *prometheus.CounterVec
	// ShipRocketAuthTotal counts courier token refresh attempts by result.
	ShipRocketAuthTotal *prometheus.CounterVec
	// ReturnTransitionTotal counts return request status transitions.
	ReturnTransitionTotal *prometheus.CounterVec
	// CouponSweepTotal counts expired-coupon sweep runs by result.
	CouponSweepTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CouponValidateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_validate_total",
			Help:      "Count of coupon validation outcomes.",
		}, []string{"result"})
		CartTotalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cart_total_duration_ms",
			Help:      "Latency of cart total computation in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		})
		SearchCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_cache_total",
			Help:      "Count of catalog search cache lookups by result.",
		}, []string{"result"})
		ShipRocketAuthTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shiprocket_auth_total",
			Help:      "Count of courier API authentication attempts by result.",
		}, []string{"result"})
		ReturnTransitionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "return_transition_total",
			Help:      "Count of return request status transitions.",
		}, []string{"from", "to"})
		CouponSweepTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_sweep_total",
			Help:      "Count of expired-coupon sweep runs by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, CouponValidateTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponValidateTotal = v
			}
		})
		mustRegisterCollector(reg, CartTotalDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				CartTotalDuration = v
			}
		})
		mustRegisterCollector(reg, SearchCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SearchCacheTotal = v
			}
		})
		mustRegisterCollector(reg, ShipRocketAuthTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ShipRocketAuthTotal = v
			}
		})
		mustRegisterCollector(reg, ReturnTransitionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReturnTransitionTotal = v
			}
		})
		mustRegisterCollector(reg, CouponSweepTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponSweepTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

// Hyperdrive Metrics Collector
// Provides metrics for monitoring the pool and trade flow

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all hyperdrive metrics
type Collector struct {
	// Trade metrics
	TradesTotal *prometheus.CounterVec
	TradeVolume *prometheus.CounterVec

	// Liquidity metrics
	LiquidityEventsTotal *prometheus.CounterVec
	LiquidityVolume      *prometheus.CounterVec

	// Checkpoint metrics
	CheckpointsTotal prometheus.Counter
	PositionsMatured *prometheus.CounterVec

	// Pool state gauges
	ShareReserves         prometheus.Gauge
	BondReserves          prometheus.Gauge
	LongsOutstanding      prometheus.Gauge
	ShortsOutstanding     prometheus.Gauge
	GovernanceFeesAccrued prometheus.Gauge

	// Governance fee metrics
	GovernanceCollected prometheus.Counter
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	c.TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hyperdrive",
			Subsystem: "trades",
			Name:      "total",
			Help:      "Total number of trades",
		},
		[]string{"side", "action"},
	)

	c.TradeVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hyperdrive",
			Subsystem: "trades",
			Name:      "volume",
			Help:      "Cumulative trade volume in base",
		},
		[]string{"side", "action"},
	)

	c.LiquidityEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hyperdrive",
			Subsystem: "liquidity",
			Name:      "events_total",
			Help:      "Total number of liquidity events",
		},
		[]string{"action"},
	)

	c.LiquidityVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hyperdrive",
			Subsystem: "liquidity",
			Name:      "volume",
			Help:      "Cumulative liquidity volume in base",
		},
		[]string{"action"},
	)

	c.CheckpointsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hyperdrive",
			Subsystem: "checkpoints",
			Name:      "total",
			Help:      "Total number of checkpoints minted",
		},
	)

	c.PositionsMatured = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hyperdrive",
			Subsystem: "checkpoints",
			Name:      "positions_matured",
			Help:      "Cumulative bond amount matured",
		},
		[]string{"side"},
	)

	c.ShareReserves = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hyperdrive",
			Subsystem: "pool",
			Name:      "share_reserves",
			Help:      "Current share reserves",
		},
	)

	c.BondReserves = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hyperdrive",
			Subsystem: "pool",
			Name:      "bond_reserves",
			Help:      "Current bond reserves",
		},
	)

	c.LongsOutstanding = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hyperdrive",
			Subsystem: "pool",
			Name:      "longs_outstanding",
			Help:      "Aggregate open long exposure in bonds",
		},
	)

	c.ShortsOutstanding = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hyperdrive",
			Subsystem: "pool",
			Name:      "shorts_outstanding",
			Help:      "Aggregate open short exposure in bonds",
		},
	)

	c.GovernanceFeesAccrued = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hyperdrive",
			Subsystem: "pool",
			Name:      "governance_fees_accrued",
			Help:      "Uncollected governance fees in shares",
		},
	)

	c.GovernanceCollected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hyperdrive",
			Subsystem: "governance",
			Name:      "fees_collected",
			Help:      "Cumulative governance fees paid out in base",
		},
	)

	c.registerAll()
	return c
}

func (c *Collector) registerAll() {
	prometheus.MustRegister(c.TradesTotal)
	prometheus.MustRegister(c.TradeVolume)
	prometheus.MustRegister(c.LiquidityEventsTotal)
	prometheus.MustRegister(c.LiquidityVolume)
	prometheus.MustRegister(c.CheckpointsTotal)
	prometheus.MustRegister(c.PositionsMatured)
	prometheus.MustRegister(c.ShareReserves)
	prometheus.MustRegister(c.BondReserves)
	prometheus.MustRegister(c.LongsOutstanding)
	prometheus.MustRegister(c.ShortsOutstanding)
	prometheus.MustRegister(c.GovernanceFeesAccrued)
	prometheus.MustRegister(c.GovernanceCollected)
}

func toFloat(v hdmath.FixedPoint) float64 {
	f, _ := v.Dec().Float64()
	return f
}

// ============ Recording Helpers ============

// RecordTrade records a trade event
func RecordTrade(side, action string, volume hdmath.FixedPoint) {
	c := GetCollector()
	c.TradesTotal.WithLabelValues(side, action).Inc()
	c.TradeVolume.WithLabelValues(side, action).Add(toFloat(volume))
}

// RecordLiquidity records a liquidity event
func RecordLiquidity(action string, volume hdmath.FixedPoint) {
	c := GetCollector()
	c.LiquidityEventsTotal.WithLabelValues(action).Inc()
	c.LiquidityVolume.WithLabelValues(action).Add(toFloat(volume))
}

// RecordCheckpoint records a minted checkpoint and the matured positions
func RecordCheckpoint(maturedLongs, maturedShorts hdmath.FixedPoint) {
	c := GetCollector()
	c.CheckpointsTotal.Inc()
	c.PositionsMatured.WithLabelValues("long").Add(toFloat(maturedLongs))
	c.PositionsMatured.WithLabelValues("short").Add(toFloat(maturedShorts))
}

// RecordPoolState updates the pool state gauges
func RecordPoolState(state types.MarketState) {
	c := GetCollector()
	c.ShareReserves.Set(toFloat(state.ShareReserves))
	c.BondReserves.Set(toFloat(state.BondReserves))
	c.LongsOutstanding.Set(toFloat(state.LongsOutstanding))
	c.ShortsOutstanding.Set(toFloat(state.ShortsOutstanding))
	c.GovernanceFeesAccrued.Set(toFloat(state.GovernanceFeesAccrued))
}

// RecordGovernanceCollection records a governance fee payout
func RecordGovernanceCollection(proceeds hdmath.FixedPoint) {
	GetCollector().GovernanceCollected.Add(toFloat(proceeds))
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package metrics exposes the bridge's operator-facing Prometheus
// instrumentation: the pending-withdrawals gauge Q must provide per the
// specification, plus claim and swap volume counters and the chain
// scanner's checkpoint gauge.
package metrics

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder groups the bridge's Prometheus collectors. All methods are safe
// for concurrent use, inheriting the thread safety of the underlying
// prometheus types.
type Recorder struct {
	PendingWithdrawals prometheus.Gauge
	ClaimsTotal        *prometheus.CounterVec
	SwapVolumeTotal    *prometheus.CounterVec
	CheckpointHeight   prometheus.Gauge
}

// NewRecorder builds and registers a Recorder against reg. Passing a fresh
// prometheus.NewRegistry() keeps tests hermetic; passing
// prometheus.DefaultRegisterer wires the bridge into the default handler.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		PendingWithdrawals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "banbridge",
			Subsystem: "queue",
			Name:      "pending_withdrawals_base_units",
			Help:      "Summed amount of withdrawals currently waiting on hot wallet funding.",
		}),
		ClaimsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "banbridge",
			Subsystem: "claims",
			Name:      "total",
			Help:      "Claim attempts by result.",
		}, []string{"result"}),
		SwapVolumeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "banbridge",
			Subsystem: "swaps",
			Name:      "volume_base_units_total",
			Help:      "Swap volume by direction.",
		}, []string{"direction"}),
		CheckpointHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "banbridge",
			Subsystem: "chainscan",
			Name:      "checkpoint_height",
			Help:      "Highest fully-processed EVM block height.",
		}),
	}

	reg.MustRegister(r.PendingWithdrawals, r.ClaimsTotal, r.SwapVolumeTotal, r.CheckpointHeight)
	return r
}

// SetPendingWithdrawals records the current pending-withdrawal total.
func (r *Recorder) SetPendingWithdrawals(amount *big.Int) {
	f, _ := new(big.Float).SetInt(amount).Float64()
	r.PendingWithdrawals.Set(f)
}

// ObserveClaim records a claim attempt outcome by its result label.
func (r *Recorder) ObserveClaim(result string) {
	r.ClaimsTotal.WithLabelValues(result).Inc()
}

// ObserveSwapVolume adds amount to the running total for direction.
func (r *Recorder) ObserveSwapVolume(direction string, amount *big.Int) {
	f, _ := new(big.Float).SetInt(amount).Float64()
	r.SwapVolumeTotal.WithLabelValues(direction).Add(f)
}

// SetCheckpointHeight records the chain scanner's current checkpoint.
func (r *Recorder) SetCheckpointHeight(height uint64) {
	r.CheckpointHeight.Set(float64(height))
}

package app

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/undotree/internal/engine/history"
	"github.com/dshills/undotree/internal/engine/transaction"
)

// Metrics exports history and transaction activity as Prometheus
// collectors. It implements history.Observer and transaction.Observer, so
// one value can be attached to every document.
type Metrics struct {
	history.BaseObserver

	commits       prometheus.Counter
	rollbacks     prometheus.Counter
	rollbackFails prometheus.Counter
	steps         *prometheus.CounterVec
	moves         prometheus.Counter
	moveFailures  prometheus.Counter
	pruned        prometheus.Counter
	nodes         prometheus.Gauge
	memory        prometheus.Gauge

	mu    sync.Mutex
	sizes map[*history.History]int
	total int
}

// NewMetrics creates the collectors under namespace and registers them
// with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transaction",
			Name:      "commits_total",
			Help:      "Transactions committed to history.",
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transaction",
			Name:      "rollbacks_total",
			Help:      "Transactions rolled back.",
		}),
		rollbackFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transaction",
			Name:      "rollback_failures_total",
			Help:      "Rollbacks where at least one undo failed.",
		}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "steps_total",
			Help:      "Commands undone or redone while moving through history.",
		}, []string{"direction"}),
		moves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "moves_total",
			Help:      "Undo, redo and jump operations.",
		}),
		moveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "move_failures_total",
			Help:      "Moves stopped by a failing command.",
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "pruned_nodes_total",
			Help:      "Nodes dropped by ClearRedo or Clear.",
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "nodes",
			Help:      "Nodes currently held across all documents.",
		}),
		memory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "memory_bytes",
			Help:      "Estimated bytes retained across all documents.",
		}),
		sizes: make(map[*history.History]int),
	}

	for _, c := range []prometheus.Collector{
		m.commits, m.rollbacks, m.rollbackFails, m.steps,
		m.moves, m.moveFailures, m.pruned, m.nodes, m.memory,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// OnAdd implements history.Observer.
func (m *Metrics) OnAdd(*history.History, history.NodeID) {
	m.nodes.Inc()
}

// OnDelete implements history.Observer.
func (m *Metrics) OnDelete(*history.History, history.NodeID) {
	m.nodes.Dec()
	m.pruned.Inc()
}

// OnMove implements history.Observer.
func (m *Metrics) OnMove(_ *history.History, mv history.Move) {
	m.moves.Inc()
	m.steps.WithLabelValues("undo").Add(float64(mv.Undone))
	m.steps.WithLabelValues("redo").Add(float64(mv.Redone))
	if mv.Err != nil {
		m.moveFailures.Inc()
	}
}

// OnTotalSizeChange implements history.Observer.
func (m *Metrics) OnTotalSizeChange(h *history.History, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total += total - m.sizes[h]
	m.sizes[h] = total
	m.memory.Set(float64(m.total))
}

// Forget drops the size recorded for h, typically when its document closes.
func (m *Metrics) Forget(h *history.History) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total -= m.sizes[h]
	delete(m.sizes, h)
	m.memory.Set(float64(m.total))
	m.nodes.Sub(float64(h.Len()))
}

// OnCommit implements transaction.Observer.
func (m *Metrics) OnCommit(*transaction.Transaction, history.NodeID) {
	m.commits.Inc()
}

// OnRollback implements transaction.Observer.
func (m *Metrics) OnRollback(_ *transaction.Transaction, _ int, err error) {
	m.rollbacks.Inc()
	if err != nil {
		m.rollbackFails.Inc()
	}
}

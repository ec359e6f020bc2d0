// Package metrics — Prometheus-метрики аирдропа.
// Счётчики регистрируются один раз при первом обращении к Airdrop().
package metrics

import (
	"math/big"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AirdropMetrics — счётчики выдач и изменений конфигурации.
type AirdropMetrics struct {
	claims        *prometheus.CounterVec
	distributed   *prometheus.CounterVec
	configChanges *prometheus.CounterVec
}

var (
	airdropOnce     sync.Once
	airdropRegistry *AirdropMetrics
)

// Airdrop возвращает общий набор метрик.
func Airdrop() *AirdropMetrics {
	airdropOnce.Do(func() {
		airdropRegistry = &AirdropMetrics{
			claims: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "airdrop_claims_total",
				Help: "Distribute attempts by action and result.",
			}, []string{"action", "result"}),
			distributed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "airdrop_distributed_amount_total",
				Help: "Sum of paid rewards by action (smallest token units, approximate).",
			}, []string{"action"}),
			configChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "airdrop_config_changes_total",
				Help: "Administrator configuration changes by kind.",
			}, []string{"kind"}),
		}
		prometheus.MustRegister(
			airdropRegistry.claims,
			airdropRegistry.distributed,
			airdropRegistry.configChanges,
		)
	})
	return airdropRegistry
}

// ObserveClaim учитывает попытку выдачи.
func (m *AirdropMetrics) ObserveClaim(action, result string) {
	if m == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.claims.WithLabelValues(action, result).Inc()
}

// ObserveDistributed учитывает выплаченную сумму.
func (m *AirdropMetrics) ObserveDistributed(action string, amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	f, _ := new(big.Float).SetInt(amount).Float64()
	m.distributed.WithLabelValues(action).Add(f)
}

// ObserveConfigChange учитывает изменение конфигурации.
func (m *AirdropMetrics) ObserveConfigChange(kind string) {
	if m == nil {
		return
	}
	m.configChanges.WithLabelValues(kind).Inc()
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}

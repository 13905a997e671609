package observability

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusProvider cria coletores sob demanda, um por nome de métrica.
// As chaves das tags ("chave:valor") viram labels; o conjunto de labels de uma
// métrica é fixado na primeira emissão.
type PrometheusProvider struct {
	namespace string
	registry  *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

func NewPrometheusProvider(namespace string) *PrometheusProvider {
	return &PrometheusProvider{
		namespace:  sanitize(namespace),
		registry:   prometheus.NewRegistry(),
		counters:   map[string]*prometheus.CounterVec{},
		gauges:     map[string]*prometheus.GaugeVec{},
		histograms: map[string]*prometheus.HistogramVec{},
	}
}

// Handler serve o formato de exposição do Prometheus.
func (p *PrometheusProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry expõe o registro (testes e coletores extras).
func (p *PrometheusProvider) Registry() *prometheus.Registry { return p.registry }

func (p *PrometheusProvider) Count(name string, value float64, tags []string) error {
	if value < 0 {
		return fmt.Errorf("contador %s não aceita valor negativo: %v", name, value)
	}
	keys, values := splitTags(tags)

	p.mu.Lock()
	defer p.mu.Unlock()
	vec, ok := p.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      sanitize(name) + "_total",
			Help:      name,
		}, keys)
		if err := p.registry.Register(vec); err != nil {
			return fmt.Errorf("falha ao registrar %s: %w", name, err)
		}
		p.counters[name] = vec
	}
	c, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return fmt.Errorf("labels inválidas para %s: %w", name, err)
	}
	c.Add(value)
	return nil
}

func (p *PrometheusProvider) Gauge(name string, value float64, tags []string) error {
	keys, values := splitTags(tags)

	p.mu.Lock()
	defer p.mu.Unlock()
	vec, ok := p.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      sanitize(name),
			Help:      name,
		}, keys)
		if err := p.registry.Register(vec); err != nil {
			return fmt.Errorf("falha ao registrar %s: %w", name, err)
		}
		p.gauges[name] = vec
	}
	g, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return fmt.Errorf("labels inválidas para %s: %w", name, err)
	}
	g.Set(value)
	return nil
}

func (p *PrometheusProvider) Histogram(name string, value float64, tags []string) error {
	keys, values := splitTags(tags)

	p.mu.Lock()
	defer p.mu.Unlock()
	vec, ok := p.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      sanitize(name),
			Help:      name,
			Buckets:   prometheus.DefBuckets,
		}, keys)
		if err := p.registry.Register(vec); err != nil {
			return fmt.Errorf("falha ao registrar %s: %w", name, err)
		}
		p.histograms[name] = vec
	}
	h, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return fmt.Errorf("labels inválidas para %s: %w", name, err)
	}
	h.Observe(value)
	return nil
}

// splitTags converte tags no formato Datadog em labels ordenadas por chave.
// Tags sem ":" viram labels com valor vazio.
func splitTags(tags []string) ([]string, []string) {
	pairs := make(map[string]string, len(tags))
	for _, t := range tags {
		k, v, _ := strings.Cut(t, ":")
		pairs[sanitize(k)] = v
	}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = pairs[k]
	}
	return keys, values
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}

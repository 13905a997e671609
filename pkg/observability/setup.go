package observability

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/raywall/fast-simulator-toolkit/pkg/config"
	"github.com/raywall/fast-simulator-toolkit/pkg/metrics"
)

// NoopProvider é um placeholder para quando métricas estão desabilitadas.
type NoopProvider struct{}

func (n *NoopProvider) Count(name string, value float64, tags []string) error     { return nil }
func (n *NoopProvider) Gauge(name string, value float64, tags []string) error     { return nil }
func (n *NoopProvider) Histogram(name string, value float64, tags []string) error { return nil }

// StatsdClient é o subconjunto do cliente statsd usado pelo provedor (permite mock).
type StatsdClient interface {
	Count(name string, value int64, tags []string, rate float64) error
	Gauge(name string, value float64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
}

// DatadogProvider adapta a lib oficial do Datadog para nossa interface.
type DatadogProvider struct {
	client StatsdClient
}

func NewDatadogProvider(client StatsdClient) *DatadogProvider {
	return &DatadogProvider{client: client}
}

func (d *DatadogProvider) Count(name string, value float64, tags []string) error {
	return d.client.Count(name, int64(value), tags, 1)
}

func (d *DatadogProvider) Gauge(name string, value float64, tags []string) error {
	return d.client.Gauge(name, value, tags, 1)
}

func (d *DatadogProvider) Histogram(name string, value float64, tags []string) error {
	return d.client.Histogram(name, value, tags, 1)
}

// MultiProvider replica cada métrica para vários provedores.
type MultiProvider []metrics.Provider

func (m MultiProvider) Count(name string, value float64, tags []string) error {
	return m.each(func(p metrics.Provider) error { return p.Count(name, value, tags) })
}

func (m MultiProvider) Gauge(name string, value float64, tags []string) error {
	return m.each(func(p metrics.Provider) error { return p.Gauge(name, value, tags) })
}

func (m MultiProvider) Histogram(name string, value float64, tags []string) error {
	return m.each(func(p metrics.Provider) error { return p.Histogram(name, value, tags) })
}

func (m MultiProvider) each(fn func(metrics.Provider) error) error {
	var errs []error
	for _, p := range m {
		if err := fn(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Handler expõe o endpoint do primeiro provedor que tiver um (Prometheus).
func (m MultiProvider) Handler() http.Handler {
	for _, p := range m {
		if h := MetricsHandler(p); h != nil {
			return h
		}
	}
	return nil
}

// MetricsHandler devolve o handler HTTP de scrape do provedor, ou nil.
func MetricsHandler(p metrics.Provider) http.Handler {
	if hp, ok := p.(interface{ Handler() http.Handler }); ok {
		return hp.Handler()
	}
	return nil
}

// SetupMetrics inicializa os provedores habilitados no YAML.
func SetupMetrics(cfg config.MetricsConf) (metrics.Provider, error) {
	var providers MultiProvider

	if cfg.Datadog.Enabled {
		// Configurações do cliente StatsD
		opts := []statsd.Option{
			statsd.WithNamespace(cfg.Datadog.Namespace),
		}

		client, err := statsd.New(cfg.Datadog.Addr, opts...)
		if err != nil {
			return nil, fmt.Errorf("falha ao conectar no datadog statsd: %w", err)
		}
		providers = append(providers, NewDatadogProvider(client))
	}

	if cfg.Prometheus.Enabled {
		providers = append(providers, NewPrometheusProvider(cfg.Prometheus.Namespace))
	}

	switch len(providers) {
	case 0:
		return &NoopProvider{}, nil
	case 1:
		return providers[0], nil
	}
	return providers, nil
}

package metrics

// Provider define o contrato para envio de métricas.
// Isso permite trocar Datadog por Prometheus sem alterar a lógica de negócio.
type Provider interface {
	Count(name string, value float64, tags []string) error
	Gauge(name string, value float64, tags []string) error
	Histogram(name string, value float64, tags []string) error
}

// MetricType define os tipos suportados.
type MetricType string

const (
	TypeCount     MetricType = "count"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
)

// MetricDefinition armazena os metadados da métrica (nome real, tipo).
type MetricDefinition struct {
	Name string
	Type MetricType
}

// Métricas emitidas pelo próprio serviço, independentes das customizadas.
const (
	MetricDataRequests     = "simulator.data.requests"
	MetricFailureApplied   = "simulator.failure.applied"
	MetricFailureDeviation = "simulator.failure.deviation"
	MetricRequestDuration  = "http.request.duration_ms"
	MetricRequests         = "http.requests"
)

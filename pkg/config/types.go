package config

import "time"

// ServiceConfig representa a estrutura raiz do arquivo YAML do serviço de simuladores.
type ServiceConfig struct {
	Version    string          `yaml:"version" validate:"required"`
	Service    ServiceDetails  `yaml:"service" validate:"required"`
	Engine     EngineConf      `yaml:"engine"`
	Storage    StorageConf     `yaml:"storage"`
	Redis      RedisConf       `yaml:"redis"`
	History    HistoryConf     `yaml:"history"`
	GraphQL    GraphQLConf     `yaml:"graphql"`
	Simulators []SimulatorSeed `yaml:"simulators" validate:"dive"`
	Scenarios  []ScenarioSeed  `yaml:"scenarios" validate:"dive"`
}

// ServiceDetails contém os metadados e configurações de runtime do serviço.
type ServiceDetails struct {
	Name           string        `yaml:"name" validate:"required,hostname_rfc1123"`
	Runtime        string        `yaml:"runtime" validate:"required,oneof=local lambda ecs eks ec2"`
	Port           int           `yaml:"port" validate:"required_if=Runtime local"` // Obrigatório apenas se local
	Route          string        `yaml:"route" validate:"omitempty,startswith=/"`
	Timeout        string        `yaml:"timeout" validate:"required"` // Ex: "500ms", "2s"
	OnTimeout      ErrorResponse `yaml:"on_timeout"`
	SQSReloadQueue string        `yaml:"sqs_reload_queue" env:"SQS_RELOAD_QUEUE"`
	Logging        LoggingConf   `yaml:"logging"`
	Metrics        MetricsConf   `yaml:"metrics"`
}

// EngineConf controla a fonte aleatória do motor de falhas.
// Sem seed, o motor é semeado pelo relógio.
type EngineConf struct {
	Seed *int64 `yaml:"seed"`
}

// StorageConf escolhe o backend do repositório de simuladores e cenários.
type StorageConf struct {
	Driver string `yaml:"driver" validate:"omitempty,oneof=memory postgres sqlite dynamodb"`
	DSN    string `yaml:"dsn" env:"STORAGE_DSN" validate:"required_if=Driver postgres,required_if=Driver sqlite"`
	Table  string `yaml:"table" env:"STORAGE_TABLE" validate:"required_if=Driver dynamodb"`
}

// RedisConf habilita o cache de leitura e o histórico de falhas no Redis.
type RedisConf struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr" env:"REDIS_ADDR" validate:"required_if=Enabled true"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" validate:"gte=0"`
	CacheTTL string `yaml:"cache_ttl"`
}

// HistoryConf define para onde vão os registros de perturbação do motor.
type HistoryConf struct {
	Log        bool   `yaml:"log"`
	Redis      bool   `yaml:"redis"`
	RedisKey   string `yaml:"redis_key"`
	MaxEntries int    `yaml:"max_entries" validate:"gte=0"`
	Metrics    bool   `yaml:"metrics"`
}

type GraphQLConf struct {
	Enabled bool   `yaml:"enabled"`
	Route   string `yaml:"route" validate:"omitempty,startswith=/"`
}

// SimulatorSeed é um simulador pré-carregado no repositório na inicialização.
type SimulatorSeed struct {
	Owner      string                 `yaml:"owner" validate:"required"`
	Name       string                 `yaml:"name" validate:"required"`
	Active     *bool                  `yaml:"active"`
	Parameters map[string]interface{} `yaml:"parameters" validate:"required,min=1"`
}

// ScenarioSeed é um cenário de falha pré-carregado. AdvancedConfig segue o
// mesmo formato JSON aceito pela API.
type ScenarioSeed struct {
	Owner             string                 `yaml:"owner" validate:"required"`
	Simulator         string                 `yaml:"simulator" validate:"required"`
	Name              string                 `yaml:"name" validate:"required"`
	Description       string                 `yaml:"description"`
	FailureParameters map[string]interface{} `yaml:"failure_parameters" validate:"required,min=1"`
	AdvancedConfig    map[string]interface{} `yaml:"advanced_config"`
	Condition         string                 `yaml:"condition"`
	Active            *bool                  `yaml:"active"`
	Apply             bool                   `yaml:"apply"`
}

type ErrorResponse struct {
	Code int    `yaml:"code" validate:"omitempty,gte=400,lt=600"`
	Msg  string `yaml:"msg"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" validate:"omitempty,oneof=json console"`
}

type MetricsConf struct {
	Datadog           DatadogConf              `yaml:"datadog"`
	Prometheus        PrometheusConf           `yaml:"prometheus"`
	CustomDefinitions []CustomMetricDefinition `yaml:"custom_definitions" validate:"dive"`
	Rules             []MetricRegistrationRule `yaml:"rules" validate:"dive"`
}

type DatadogConf struct {
	Enabled   bool   `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace"`
}

type PrometheusConf struct {
	Enabled   bool   `yaml:"enabled" env:"PROMETHEUS_ENABLED"`
	Namespace string `yaml:"namespace"`
	Route     string `yaml:"route" validate:"omitempty,startswith=/"`
}

type CustomMetricDefinition struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"oneof=count gauge histogram"`
}

// MetricRegistrationRule associa uma expressão CEL a uma métrica declarada.
// A expressão enxerga params, simulator, scenario e elapsed.
type MetricRegistrationRule struct {
	MetricID string            `yaml:"metric_id" validate:"required"`
	Value    string            `yaml:"value" validate:"required"`
	Tags     map[string]string `yaml:"tags"`
}

func (s ServiceDetails) GetTimeout() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetCacheTTL devolve o TTL do cache de simuladores (padrão: 30s).
func (r RedisConf) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(r.CacheTTL)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// ApplyDefaults preenche os campos opcionais com os valores padrão do serviço.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.GraphQL.Route == "" {
		c.GraphQL.Route = "/graphql"
	}
	if c.Service.Metrics.Prometheus.Route == "" {
		c.Service.Metrics.Prometheus.Route = "/metrics"
	}
	if c.History.RedisKey == "" {
		c.History.RedisKey = "fast-simulator:history"
	}
	if c.History.MaxEntries == 0 {
		c.History.MaxEntries = 1000
	}
}

// Package history liga os registros de perturbação do motor de falhas ao log,
// ao Redis e às métricas.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/raywall/fast-simulator-toolkit/pkg/config"
	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
	"github.com/raywall/fast-simulator-toolkit/pkg/metrics"
)

// LogSink escreve cada registro em nível debug.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(rec failure.HistoryRecord) {
	s.logger.Debug().
		Str("parameter", rec.Parameter).
		Str("failure_type", rec.FailureType).
		Str("noise", rec.Noise).
		Bool("clamped", rec.Clamped).
		Float64("elapsed_seconds", rec.Elapsed).
		Interface("original", rec.Original).
		Interface("result", rec.Result).
		Msg("parâmetro perturbado")
}

// RedisSink mantém os últimos registros numa lista (LPUSH + LTRIM).
type RedisSink struct {
	client  redis.Cmdable
	key     string
	max     int64
	timeout time.Duration
	logger  zerolog.Logger
}

func NewRedisSink(client redis.Cmdable, key string, maxEntries int, logger zerolog.Logger) *RedisSink {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &RedisSink{
		client:  client,
		key:     key,
		max:     int64(maxEntries),
		timeout: 500 * time.Millisecond,
		logger:  logger,
	}
}

// Record não bloqueia além do timeout; falhas só são logadas.
func (s *RedisSink) Record(rec failure.HistoryRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warn().Err(err).Str("parameter", rec.Parameter).Msg("falha ao serializar histórico")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key, data)
		pipe.LTrim(ctx, s.key, 0, s.max-1)
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("falha ao gravar histórico no redis")
	}
}

// Recent devolve até n registros, do mais novo para o mais antigo.
func (s *RedisSink) Recent(ctx context.Context, n int) ([]failure.HistoryRecord, error) {
	if n <= 0 || int64(n) > s.max {
		n = int(s.max)
	}
	raw, err := s.client.LRange(ctx, s.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("falha ao ler histórico: %w", err)
	}

	out := make([]failure.HistoryRecord, 0, len(raw))
	for _, item := range raw {
		var rec failure.HistoryRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			s.logger.Warn().Err(err).Msg("registro de histórico corrompido ignorado")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// MetricsSink conta perturbações e mede o desvio absoluto dos valores numéricos.
type MetricsSink struct {
	provider metrics.Provider
	logger   zerolog.Logger
}

func NewMetricsSink(provider metrics.Provider, logger zerolog.Logger) *MetricsSink {
	return &MetricsSink{provider: provider, logger: logger}
}

func (s *MetricsSink) Record(rec failure.HistoryRecord) {
	tags := []string{"parameter:" + rec.Parameter, "failure_type:" + orNone(rec.FailureType)}
	if err := s.provider.Count(metrics.MetricFailureApplied, 1, tags); err != nil {
		s.logger.Warn().Err(err).Msg("falha ao emitir métrica de falha")
	}

	before, ok1 := failure.ToFloat(rec.Original)
	after, ok2 := failure.ToFloat(rec.Result)
	if !ok1 || !ok2 {
		return
	}
	if err := s.provider.Histogram(metrics.MetricFailureDeviation, math.Abs(after-before), tags); err != nil {
		s.logger.Warn().Err(err).Msg("falha ao emitir métrica de desvio")
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// Reader lê registros recentes (implementado por RedisSink e Memory).
type Reader interface {
	Recent(ctx context.Context, n int) ([]failure.HistoryRecord, error)
}

// Memory é um buffer circular em memória, usado quando o Redis está desligado.
type Memory struct {
	mu   sync.Mutex
	ring []failure.HistoryRecord
	next int
	full bool
}

func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Memory{ring: make([]failure.HistoryRecord, maxEntries)}
}

func (m *Memory) Record(rec failure.HistoryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ring[m.next] = rec
	m.next = (m.next + 1) % len(m.ring)
	if m.next == 0 {
		m.full = true
	}
}

func (m *Memory) Recent(_ context.Context, n int) ([]failure.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.next
	if m.full {
		size = len(m.ring)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]failure.HistoryRecord, 0, n)
	for i := 1; i <= n; i++ {
		idx := (m.next - i + len(m.ring)) % len(m.ring)
		out = append(out, m.ring[idx])
	}
	return out, nil
}

// Build monta o sink do motor a partir da configuração. O Reader devolvido
// atende a consulta de histórico recente.
func Build(cfg config.HistoryConf, client redis.Cmdable, provider metrics.Provider, logger zerolog.Logger) (failure.HistorySink, Reader) {
	var sinks []failure.HistorySink
	var reader Reader

	if cfg.Log {
		sinks = append(sinks, NewLogSink(logger))
	}
	if cfg.Metrics && provider != nil {
		sinks = append(sinks, NewMetricsSink(provider, logger))
	}
	if cfg.Redis && client != nil {
		rs := NewRedisSink(client, cfg.RedisKey, cfg.MaxEntries, logger)
		sinks = append(sinks, rs)
		reader = rs
	} else {
		mem := NewMemory(cfg.MaxEntries)
		sinks = append(sinks, mem)
		reader = mem
	}

	return failure.MultiSink(sinks...), reader
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "fast-simulator:simulator:"

// Cached adiciona cache de leitura no Redis para GetSimulatorByName, o
// caminho quente do endpoint de dados. Escritas invalidam a chave. Falhas
// do Redis são registradas e a leitura cai para o repositório.
type Cached struct {
	Repository
	client redis.Cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCached(repo Repository, client redis.Cmdable, ttl time.Duration, logger zerolog.Logger) *Cached {
	return &Cached{Repository: repo, client: client, ttl: ttl, logger: logger}
}

func cacheKey(owner, name string) string {
	return cacheKeyPrefix + owner + ":" + name
}

func (c *Cached) GetSimulatorByName(ctx context.Context, owner, name string) (*Simulator, error) {
	key := cacheKey(owner, name)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var sim Simulator
		if jsonErr := json.Unmarshal(raw, &sim); jsonErr == nil {
			return &sim, nil
		}
		c.logger.Warn().Str("key", key).Msg("Entrada de cache inválida, consultando repositório")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Str("key", key).Msg("Falha ao ler cache")
	}

	sim, err := c.Repository.GetSimulatorByName(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(sim); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Falha ao gravar cache")
		}
	}
	return sim, nil
}

func (c *Cached) evict(ctx context.Context, owner, name string) {
	if err := c.client.Del(ctx, cacheKey(owner, name)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("owner", owner).Str("name", name).Msg("Falha ao invalidar cache")
	}
}

func (c *Cached) UpdateSimulator(ctx context.Context, sim *Simulator) error {
	prev, err := c.Repository.GetSimulator(ctx, sim.ID)
	if err != nil {
		return err
	}
	if err := c.Repository.UpdateSimulator(ctx, sim); err != nil {
		return err
	}
	c.evict(ctx, prev.Owner, prev.Name)
	c.evict(ctx, sim.Owner, sim.Name)
	return nil
}

func (c *Cached) DeleteSimulator(ctx context.Context, id string) error {
	prev, err := c.Repository.GetSimulator(ctx, id)
	if err != nil {
		return err
	}
	if err := c.Repository.DeleteSimulator(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, prev.Owner, prev.Name)
	return nil
}

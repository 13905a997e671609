package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/raywall/fast-simulator-toolkit/pkg/awsenv"
	"github.com/raywall/fast-simulator-toolkit/pkg/config"
	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
	gql "github.com/raywall/fast-simulator-toolkit/pkg/graphql"
	"github.com/raywall/fast-simulator-toolkit/pkg/history"
	"github.com/raywall/fast-simulator-toolkit/pkg/loader"
	"github.com/raywall/fast-simulator-toolkit/pkg/logger"
	"github.com/raywall/fast-simulator-toolkit/pkg/metrics"
	"github.com/raywall/fast-simulator-toolkit/pkg/observability"
	"github.com/raywall/fast-simulator-toolkit/pkg/rules"
	"github.com/raywall/fast-simulator-toolkit/pkg/simulator"
	"github.com/raywall/fast-simulator-toolkit/pkg/store"
	"github.com/raywall/fast-simulator-toolkit/pkg/transport"
)

var (
	configPath string
	// Variáveis injetáveis para mocking
	serverStarter = func(ctx context.Context, srv *transport.Server, addr string) error {
		return srv.ListenAndServe(ctx, addr)
	}
	lambdaStarter  = func(handler interface{}) { lambda.Start(handler) }
	reloaderRunner = startSQSReloader
	configLoader   = loader.Load
)

func init() {
	configPath = os.Getenv("CONFIG_FILE_PATH")
}

func main() {
	if configPath == "" {
		log.Fatalln("FATAL: CONFIG_FILE_PATH não definido")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configPath); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// app reúne as dependências montadas na inicialização.
type app struct {
	cfg     *config.ServiceConfig
	logger  zerolog.Logger
	service *simulator.Service
	server  *transport.Server
	repo    store.Repository
	redis   *redis.Client
}

func (a *app) Close() {
	if err := a.repo.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Falha ao fechar repositório")
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// run contém a lógica principal testável
func run(ctx context.Context, cfgPath string) error {
	cfg, err := configLoader(ctx, cfgPath)
	if err != nil {
		return err
	}

	a, err := bootstrap(ctx, cfg, cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Service.SQSReloadQueue != "" {
		go reloaderRunner(ctx, cfg.Service.SQSReloadQueue, a.service)
	}

	switch cfg.Service.Runtime {
	case "local", "ec2", "ecs", "eks":
		return serverStarter(ctx, a.server, ":"+strconv.Itoa(cfg.Service.Port))
	case "lambda":
		lambdaStarter(transport.NewLambdaHandler(a.server).Handle)
		return nil
	default:
		return fmt.Errorf("runtime desconhecido: %s", cfg.Service.Runtime)
	}
}

func bootstrap(ctx context.Context, cfg *config.ServiceConfig, source string) (*app, error) {
	cfg.ApplyDefaults()
	base := logger.Configure(cfg.Service.Logging, cfg.Service.Name)

	provider, err := observability.SetupMetrics(cfg.Service.Metrics)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: base}

	// Cmdable nil quando o Redis está desligado
	var cache redis.Cmdable
	if cfg.Redis.Enabled {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = a.redis
	}

	repo, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		repo = store.NewCached(repo, cache, cfg.Redis.GetCacheTTL(), logger.Component(base, "cache"))
	}
	a.repo = repo

	sink, reader := history.Build(cfg.History, cache, provider, logger.Component(base, "history"))
	engineOpts := []failure.Option{failure.WithHistory(sink)}
	if cfg.Engine.Seed != nil {
		engineOpts = append(engineOpts, failure.WithSeed(*cfg.Engine.Seed))
	}

	rm, err := rules.NewRuleManager()
	if err != nil {
		return nil, err
	}
	processor := metrics.NewProcessor(cfg.Service.Metrics, provider, rm)
	if err := processor.Validate(); err != nil {
		return nil, err
	}

	svc, err := simulator.New(simulator.Options{
		Repository:   repo,
		Engine:       failure.NewEngine(engineOpts...),
		Rules:        rm,
		Metrics:      provider,
		Processor:    processor,
		Logger:       logger.Component(base, "simulator"),
		ConfigSource: source,
		Loader:       configLoader,
	})
	if err != nil {
		return nil, err
	}
	if err := svc.Seed(ctx, cfg); err != nil {
		return nil, fmt.Errorf("falha ao semear simuladores: %w", err)
	}
	a.service = svc

	opts := transport.Options{
		Service:        svc,
		History:        reader,
		Metrics:        provider,
		MetricsHandler: observability.MetricsHandler(provider),
		MetricsRoute:   cfg.Service.Metrics.Prometheus.Route,
		GraphQLRoute:   cfg.GraphQL.Route,
		Timeout:        cfg.Service.GetTimeout(),
		Logger:         logger.Component(base, "http"),
	}
	if cfg.GraphQL.Enabled {
		engine, err := gql.NewEngine(svc, reader)
		if err != nil {
			return nil, fmt.Errorf("falha ao montar schema GraphQL: %w", err)
		}
		opts.GraphQL = engine
	}
	a.server = transport.NewServer(opts)

	base.Info().
		Str("storage", cfg.Storage.Driver).
		Bool("redis", cfg.Redis.Enabled).
		Bool("graphql", cfg.GraphQL.Enabled).
		Int("simulators", len(cfg.Simulators)).
		Msg("Serviço de simuladores inicializado")
	return a, nil
}

func startSQSReloader(ctx context.Context, queue string, r transport.Reloader) {
	awsCfg, err := awsenv.GetAWSConfig(ctx, "")
	if err != nil {
		log.Printf("Hot reload desativado: %v", err)
		return
	}
	transport.NewSQSReloader(sqs.NewFromConfig(awsCfg), queue, r).Start(ctx)
}

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"

	gql "github.com/raywall/fast-simulator-toolkit/pkg/graphql"
	"github.com/raywall/fast-simulator-toolkit/pkg/history"
	"github.com/raywall/fast-simulator-toolkit/pkg/metrics"
	"github.com/raywall/fast-simulator-toolkit/pkg/simulator"
)

const (
	HeaderCorrelationID = "x-correlation-id"
	HeaderLatency       = "x-latency-ms"
	HeaderUserID        = "X-User-ID"
	ContextKeyCorrID    = ctxKey("correlation_id")
)

type ctxKey string

// GraphQLExecutor executa consultas GraphQL (implementado por graphql.Engine).
// O dono da requisição chega via graphql.WithOwner.
type GraphQLExecutor interface {
	Execute(ctx context.Context, query string, variables map[string]interface{}) *graphql.Result
}

// Options agrupa as dependências do Server. GraphQL, History e
// MetricsHandler são opcionais: rotas sem dependência não são registradas.
type Options struct {
	Service        *simulator.Service
	History        history.Reader
	GraphQL        GraphQLExecutor
	GraphQLRoute   string
	Metrics        metrics.Provider
	MetricsHandler http.Handler
	MetricsRoute   string
	Timeout        time.Duration
	Logger         zerolog.Logger
	Clock          func() time.Time
}

// Server expõe o Service via HTTP. O mesmo roteador atende o servidor
// local e o adaptador Lambda.
type Server struct {
	opts   Options
	router *mux.Router
}

func NewServer(opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.GraphQLRoute == "" {
		opts.GraphQLRoute = "/graphql"
	}
	if opts.MetricsRoute == "" {
		opts.MetricsRoute = "/metrics"
	}
	s := &Server{opts: opts}
	s.router = s.routes()
	return s
}

// Handler devolve o roteador com o middleware de observabilidade.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(ObservabilityMiddleware(s.opts.Metrics))
	if s.opts.Timeout > 0 {
		r.Use(timeoutMiddleware(s.opts.Timeout))
	}

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/api/data/{user_id}/{simulator_name}", s.simulatorData).Methods(http.MethodGet)

	sims := r.PathPrefix("/api/simulators").Subrouter()
	sims.HandleFunc("", s.listSimulators).Methods(http.MethodGet)
	sims.HandleFunc("", s.createSimulator).Methods(http.MethodPost)
	sims.HandleFunc("/{id}", s.getSimulator).Methods(http.MethodGet)
	sims.HandleFunc("/{id}", s.updateSimulator).Methods(http.MethodPut)
	sims.HandleFunc("/{id}", s.deleteSimulator).Methods(http.MethodDelete)
	sims.HandleFunc("/{id}/toggle", s.toggleSimulator).Methods(http.MethodPatch)

	scs := r.PathPrefix("/api/failure-scenarios").Subrouter()
	scs.HandleFunc("", s.listScenarios).Methods(http.MethodGet)
	scs.HandleFunc("", s.createScenario).Methods(http.MethodPost)
	scs.HandleFunc("/simulator/{id}", s.scenariosBySimulator).Methods(http.MethodGet)
	scs.HandleFunc("/simulator/{id}/current", s.currentResponse).Methods(http.MethodGet)
	scs.HandleFunc("/apply/{simulator_id}", s.applyScenario).Methods(http.MethodPost)
	scs.HandleFunc("/release/{simulator_id}", s.releaseScenario).Methods(http.MethodPost)
	scs.HandleFunc("/{id}", s.getScenario).Methods(http.MethodGet)
	scs.HandleFunc("/{id}", s.updateScenario).Methods(http.MethodPut)
	scs.HandleFunc("/{id}", s.deleteScenario).Methods(http.MethodDelete)

	an := r.PathPrefix("/api/failure-analytics").Subrouter()
	an.HandleFunc("/patterns/{type}", s.pattern).Methods(http.MethodGet)
	an.HandleFunc("/simulate-advanced", s.simulateAdvanced).Methods(http.MethodPost)
	an.HandleFunc("/predict-failure", s.predictFailure).Methods(http.MethodPost)
	an.HandleFunc("/failure-types", s.failureTypes).Methods(http.MethodGet)
	an.HandleFunc("/noise-types", s.noiseTypes).Methods(http.MethodGet)
	an.HandleFunc("/test-engine", s.testEngine).Methods(http.MethodGet)
	if s.opts.History != nil {
		an.HandleFunc("/history", s.history).Methods(http.MethodGet)
	}

	if s.opts.GraphQL != nil {
		r.HandleFunc(s.opts.GraphQLRoute, s.graphql).Methods(http.MethodPost)
	}
	if s.opts.MetricsHandler != nil {
		r.Handle(s.opts.MetricsRoute, s.opts.MetricsHandler).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "rota não encontrada")
	})
	return r
}

// ListenAndServe bloqueia até ctx ser cancelado e então encerra o servidor
// aguardando as requisições em andamento.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info().Msgf("Servidor HTTP ouvindo em %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.opts.Logger.Info().Msg("Encerrando servidor HTTP")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) graphql(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	ctx := gql.WithOwner(r.Context(), r.Header.Get(HeaderUserID))
	writeJSON(w, http.StatusOK, s.opts.GraphQL.Execute(ctx, p.Query, p.Variables))
}

// --- helpers ---

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// owner lê o dono da requisição do cabeçalho X-User-ID.
func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(HeaderUserID)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "cabeçalho X-User-ID obrigatório")
		return "", false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("JSON inválido: %v", err))
		return false
	}
	return true
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parâmetro '%s' deve ser inteiro", name)
	}
	return v, nil
}

func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parâmetro '%s' deve ser numérico", name)
	}
	return v, nil
}

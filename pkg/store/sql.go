package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
)

// Dialetos suportados pelo SQLStore.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS simulators (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		parameters TEXT NOT NULL,
		is_active BOOLEAN NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS failure_scenarios (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		simulator_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		failure_parameters TEXT NOT NULL,
		advanced_config TEXT NOT NULL DEFAULT '',
		condition_expr TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL,
		is_applied BOOLEAN NOT NULL,
		applied_at TIMESTAMP NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_failure_scenarios_simulator ON failure_scenarios (simulator_id)`,
}

const (
	simulatorColumns = `id, user_id, name, parameters, is_active, created_at, updated_at`
	scenarioColumns  = `id, user_id, simulator_id, name, description, failure_parameters, advanced_config, condition_expr, is_active, is_applied, applied_at, created_at, updated_at`
)

// SQLStore implementa o Repository sobre database/sql. As consultas são
// escritas com '?' e reescritas para '$n' no Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// OpenSQL abre a conexão, valida com ping e cria as tabelas.
func OpenSQL(ctx context.Context, dialect, dsn string) (*SQLStore, error) {
	if dialect != DialectPostgres && dialect != DialectSQLite {
		return nil, fmt.Errorf("store: dialeto não suportado '%s'", dialect)
	}
	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: falha ao abrir banco: %w", err)
	}
	if dialect == DialectSQLite {
		// SQLite serializa escritas; uma conexão evita SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: falha no ping: %w", err)
	}
	s := NewSQLStore(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore usa uma conexão já aberta.
func NewSQLStore(db *sql.DB, dialect string) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// Migrate cria as tabelas se ainda não existirem.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: falha na migração: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// affected converte "0 linhas" em ErrNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSimulator(row rowScanner) (*Simulator, error) {
	var (
		sim    Simulator
		params string
	)
	err := row.Scan(&sim.ID, &sim.Owner, &sim.Name, &params, &sim.Active, &sim.CreatedAt, &sim.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &sim.Parameters); err != nil {
		return nil, fmt.Errorf("store: parâmetros corrompidos do simulador %s: %w", sim.ID, err)
	}
	sim.CreatedAt = sim.CreatedAt.UTC()
	sim.UpdatedAt = sim.UpdatedAt.UTC()
	return &sim, nil
}

func scanScenario(row rowScanner) (*Scenario, error) {
	var (
		sc                 Scenario
		failureParams, adv string
		appliedAt          sql.NullTime
	)
	err := row.Scan(&sc.ID, &sc.Owner, &sc.SimulatorID, &sc.Name, &sc.Description, &failureParams, &adv,
		&sc.Condition, &sc.Active, &sc.Applied, &appliedAt, &sc.CreatedAt, &sc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(failureParams), &sc.FailureParameters); err != nil {
		return nil, fmt.Errorf("store: failure_parameters corrompido no cenário %s: %w", sc.ID, err)
	}
	if adv != "" {
		sc.AdvancedConfig = &failure.AdvancedConfig{}
		if err := json.Unmarshal([]byte(adv), sc.AdvancedConfig); err != nil {
			return nil, fmt.Errorf("store: advanced_config corrompido no cenário %s: %w", sc.ID, err)
		}
	}
	if appliedAt.Valid {
		t := appliedAt.Time.UTC()
		sc.AppliedAt = &t
	}
	sc.CreatedAt = sc.CreatedAt.UTC()
	sc.UpdatedAt = sc.UpdatedAt.UTC()
	return &sc, nil
}

func scenarioArgs(sc *Scenario) ([]any, error) {
	fp, err := json.Marshal(sc.FailureParameters)
	if err != nil {
		return nil, err
	}
	adv := ""
	if sc.AdvancedConfig != nil {
		raw, err := json.Marshal(sc.AdvancedConfig)
		if err != nil {
			return nil, err
		}
		adv = string(raw)
	}
	var appliedAt sql.NullTime
	if sc.AppliedAt != nil {
		appliedAt = sql.NullTime{Time: sc.AppliedAt.UTC(), Valid: true}
	}
	return []any{sc.Owner, sc.SimulatorID, sc.Name, sc.Description, string(fp), adv, sc.Condition,
		sc.Active, sc.Applied, appliedAt}, nil
}

func (s *SQLStore) CreateSimulator(ctx context.Context, sim *Simulator) error {
	params, err := json.Marshal(sim.Parameters)
	if err != nil {
		return err
	}
	id, ts := uuid.NewString(), now()
	_, err = s.exec(ctx, `INSERT INTO simulators (`+simulatorColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, sim.Owner, sim.Name, string(params), sim.Active, ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	sim.ID, sim.CreatedAt, sim.UpdatedAt = id, ts, ts
	return nil
}

func (s *SQLStore) GetSimulator(ctx context.Context, id string) (*Simulator, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+simulatorColumns+` FROM simulators WHERE id = ?`), id)
	return scanSimulator(row)
}

func (s *SQLStore) GetSimulatorByName(ctx context.Context, owner, name string) (*Simulator, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+simulatorColumns+` FROM simulators WHERE user_id = ? AND name = ?`), owner, name)
	return scanSimulator(row)
}

func (s *SQLStore) ListSimulators(ctx context.Context, owner string, offset, limit int) ([]Simulator, error) {
	offset, limit = normalizePage(offset, limit)
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+simulatorColumns+` FROM simulators
		WHERE user_id = ? ORDER BY created_at, id LIMIT ? OFFSET ?`), owner, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Simulator{}
	for rows.Next() {
		sim, err := scanSimulator(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sim)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateSimulator(ctx context.Context, sim *Simulator) error {
	params, err := json.Marshal(sim.Parameters)
	if err != nil {
		return err
	}
	ts := now()
	if err := affected(s.exec(ctx, `UPDATE simulators SET user_id = ?, name = ?, parameters = ?, is_active = ?, updated_at = ?
		WHERE id = ?`, sim.Owner, sim.Name, string(params), sim.Active, ts, sim.ID)); err != nil {
		return err
	}
	cur, err := s.GetSimulator(ctx, sim.ID)
	if err != nil {
		return err
	}
	sim.CreatedAt, sim.UpdatedAt = cur.CreatedAt, ts
	return nil
}

func (s *SQLStore) DeleteSimulator(ctx context.Context, id string) error {
	return affected(s.exec(ctx, `DELETE FROM simulators WHERE id = ?`, id))
}

func (s *SQLStore) CreateScenario(ctx context.Context, sc *Scenario) error {
	args, err := scenarioArgs(sc)
	if err != nil {
		return err
	}
	id, ts := uuid.NewString(), now()
	args = append([]any{id}, args...)
	args = append(args, ts, ts)
	if _, err := s.exec(ctx, `INSERT INTO failure_scenarios (`+scenarioColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...); err != nil {
		return err
	}
	sc.ID, sc.CreatedAt, sc.UpdatedAt = id, ts, ts
	return nil
}

func (s *SQLStore) GetScenario(ctx context.Context, id string) (*Scenario, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+scenarioColumns+` FROM failure_scenarios WHERE id = ?`), id)
	return scanScenario(row)
}

func (s *SQLStore) queryScenarios(ctx context.Context, query string, args ...any) ([]Scenario, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Scenario{}
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListScenarios(ctx context.Context, owner string, offset, limit int) ([]Scenario, error) {
	offset, limit = normalizePage(offset, limit)
	return s.queryScenarios(ctx, `SELECT `+scenarioColumns+` FROM failure_scenarios
		WHERE user_id = ? ORDER BY created_at, id LIMIT ? OFFSET ?`, owner, limit, offset)
}

func (s *SQLStore) ListScenariosBySimulator(ctx context.Context, simulatorID string) ([]Scenario, error) {
	return s.queryScenarios(ctx, `SELECT `+scenarioColumns+` FROM failure_scenarios
		WHERE simulator_id = ? ORDER BY created_at, id`, simulatorID)
}

func (s *SQLStore) UpdateScenario(ctx context.Context, sc *Scenario) error {
	args, err := scenarioArgs(sc)
	if err != nil {
		return err
	}
	ts := now()
	args = append(args, ts, sc.ID)
	if err := affected(s.exec(ctx, `UPDATE failure_scenarios SET user_id = ?, simulator_id = ?, name = ?, description = ?,
		failure_parameters = ?, advanced_config = ?, condition_expr = ?, is_active = ?, is_applied = ?, applied_at = ?,
		updated_at = ? WHERE id = ?`, args...)); err != nil {
		return err
	}
	cur, err := s.GetScenario(ctx, sc.ID)
	if err != nil {
		return err
	}
	sc.CreatedAt, sc.UpdatedAt = cur.CreatedAt, ts
	return nil
}

func (s *SQLStore) DeleteScenario(ctx context.Context, id string) error {
	return affected(s.exec(ctx, `DELETE FROM failure_scenarios WHERE id = ?`, id))
}

func (s *SQLStore) AppliedScenario(ctx context.Context, simulatorID string) (*Scenario, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+scenarioColumns+` FROM failure_scenarios
		WHERE simulator_id = ? AND is_applied = ? ORDER BY applied_at DESC LIMIT 1`), simulatorID, true)
	return scanScenario(row)
}

func (s *SQLStore) Close() error { return s.db.Close() }

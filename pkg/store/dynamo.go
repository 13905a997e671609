package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoDBClient é o subconjunto do cliente usado pelo DynamoStore.
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

const (
	entitySimulator = "SIMULATOR"
	entityScenario  = "SCENARIO"
	hashKey         = "pk"
)

// dynamoItem guarda a entidade serializada em payload; os demais
// atributos existem só para os filtros do Scan.
type dynamoItem struct {
	PK          string `dynamodbav:"pk"`
	Entity      string `dynamodbav:"entity"`
	Owner       string `dynamodbav:"owner"`
	Name        string `dynamodbav:"name"`
	SimulatorID string `dynamodbav:"simulator_id"`
	Applied     bool   `dynamodbav:"applied"`
	Payload     string `dynamodbav:"payload"`
}

// DynamoStore usa uma tabela única com chave de partição "pk" no formato
// ENTIDADE#id. Listagens são Scans filtrados, sem GSI.
//
// A unicidade de (dono, nome) é verificada antes da escrita e não é atômica.
type DynamoStore struct {
	client DynamoDBClient
	table  string
}

func NewDynamoStore(client DynamoDBClient, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

func pk(entity, id string) string { return entity + "#" + id }

func attr(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func (s *DynamoStore) get(ctx context.Context, entity, id string, out any) error {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            map[string]types.AttributeValue{hashKey: attr(pk(entity, id))},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("dynamostore: get failed: %w", err)
	}
	if resp.Item == nil {
		return ErrNotFound
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(resp.Item, &item); err != nil {
		return fmt.Errorf("dynamostore: unmarshal failed: %w", err)
	}
	return json.Unmarshal([]byte(item.Payload), out)
}

// put grava o item. mustExist exige que a chave exista (update); caso
// contrário exige que não exista (create).
func (s *DynamoStore) put(ctx context.Context, item dynamoItem, payload any, mustExist bool) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dynamostore: marshal failed: %w", err)
	}
	item.Payload = string(raw)

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dynamostore: marshal failed: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name(hashKey))
	if mustExist {
		cond = expression.AttributeExists(expression.Name(hashKey))
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("dynamostore: build condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		if mustExist {
			return ErrNotFound
		}
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("dynamostore: put failed: %w", err)
	}
	return nil
}

func (s *DynamoStore) delete(ctx context.Context, entity, id string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name(hashKey))).
		Build()
	if err != nil {
		return fmt.Errorf("dynamostore: build condition: %w", err)
	}
	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.table),
		Key:                      map[string]types.AttributeValue{hashKey: attr(pk(entity, id))},
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("dynamostore: delete failed: %w", err)
	}
	return nil
}

// scan percorre todas as páginas e devolve os payloads dos itens que
// satisfazem entity = X AND cada par de filters.
func (s *DynamoStore) scan(ctx context.Context, entity string, filters map[string]any) ([]string, error) {
	cond := expression.Name("entity").Equal(expression.Value(entity))
	for name, value := range filters {
		cond = cond.And(expression.Name(name).Equal(expression.Value(value)))
	}
	expr, err := expression.NewBuilder().WithFilter(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("dynamostore: build filter: %w", err)
	}

	var (
		payloads []string
		startKey map[string]types.AttributeValue
	)
	for {
		resp, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(s.table),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamostore: scan failed: %w", err)
		}
		for _, raw := range resp.Items {
			var item dynamoItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("dynamostore: unmarshal failed: %w", err)
			}
			payloads = append(payloads, item.Payload)
		}
		if len(resp.LastEvaluatedKey) == 0 {
			return payloads, nil
		}
		startKey = resp.LastEvaluatedKey
	}
}

func decodeAll[T any](payloads []string) ([]T, error) {
	out := make([]T, 0, len(payloads))
	for _, p := range payloads {
		var v T
		if err := json.Unmarshal([]byte(p), &v); err != nil {
			return nil, fmt.Errorf("dynamostore: payload corrompido: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *DynamoStore) simulatorItem(sim *Simulator) dynamoItem {
	return dynamoItem{PK: pk(entitySimulator, sim.ID), Entity: entitySimulator, Owner: sim.Owner, Name: sim.Name}
}

func (s *DynamoStore) scenarioItem(sc *Scenario) dynamoItem {
	return dynamoItem{
		PK: pk(entityScenario, sc.ID), Entity: entityScenario, Owner: sc.Owner, Name: sc.Name,
		SimulatorID: sc.SimulatorID, Applied: sc.Applied,
	}
}

func (s *DynamoStore) nameTaken(ctx context.Context, owner, name, exceptID string) (bool, error) {
	cur, err := s.GetSimulatorByName(ctx, owner, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return cur.ID != exceptID, nil
}

func (s *DynamoStore) CreateSimulator(ctx context.Context, sim *Simulator) error {
	taken, err := s.nameTaken(ctx, sim.Owner, sim.Name, "")
	if err != nil {
		return err
	}
	if taken {
		return ErrConflict
	}
	sim.ID = uuid.NewString()
	sim.CreatedAt = now()
	sim.UpdatedAt = sim.CreatedAt
	return s.put(ctx, s.simulatorItem(sim), sim, false)
}

func (s *DynamoStore) GetSimulator(ctx context.Context, id string) (*Simulator, error) {
	var sim Simulator
	if err := s.get(ctx, entitySimulator, id, &sim); err != nil {
		return nil, err
	}
	return &sim, nil
}

func (s *DynamoStore) GetSimulatorByName(ctx context.Context, owner, name string) (*Simulator, error) {
	payloads, err := s.scan(ctx, entitySimulator, map[string]any{"owner": owner, "name": name})
	if err != nil {
		return nil, err
	}
	sims, err := decodeAll[Simulator](payloads)
	if err != nil {
		return nil, err
	}
	if len(sims) == 0 {
		return nil, ErrNotFound
	}
	return &sims[0], nil
}

func (s *DynamoStore) ListSimulators(ctx context.Context, owner string, offset, limit int) ([]Simulator, error) {
	payloads, err := s.scan(ctx, entitySimulator, map[string]any{"owner": owner})
	if err != nil {
		return nil, err
	}
	sims, err := decodeAll[Simulator](payloads)
	if err != nil {
		return nil, err
	}
	sortByCreation(sims, simulatorKey)
	return paginate(sims, offset, limit), nil
}

func (s *DynamoStore) UpdateSimulator(ctx context.Context, sim *Simulator) error {
	cur, err := s.GetSimulator(ctx, sim.ID)
	if err != nil {
		return err
	}
	taken, err := s.nameTaken(ctx, sim.Owner, sim.Name, sim.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrConflict
	}
	sim.CreatedAt = cur.CreatedAt
	sim.UpdatedAt = now()
	return s.put(ctx, s.simulatorItem(sim), sim, true)
}

func (s *DynamoStore) DeleteSimulator(ctx context.Context, id string) error {
	return s.delete(ctx, entitySimulator, id)
}

func (s *DynamoStore) CreateScenario(ctx context.Context, sc *Scenario) error {
	sc.ID = uuid.NewString()
	sc.CreatedAt = now()
	sc.UpdatedAt = sc.CreatedAt
	return s.put(ctx, s.scenarioItem(sc), sc, false)
}

func (s *DynamoStore) GetScenario(ctx context.Context, id string) (*Scenario, error) {
	var sc Scenario
	if err := s.get(ctx, entityScenario, id, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *DynamoStore) listScenarios(ctx context.Context, filters map[string]any) ([]Scenario, error) {
	payloads, err := s.scan(ctx, entityScenario, filters)
	if err != nil {
		return nil, err
	}
	scs, err := decodeAll[Scenario](payloads)
	if err != nil {
		return nil, err
	}
	sortByCreation(scs, scenarioKey)
	return scs, nil
}

func (s *DynamoStore) ListScenarios(ctx context.Context, owner string, offset, limit int) ([]Scenario, error) {
	scs, err := s.listScenarios(ctx, map[string]any{"owner": owner})
	if err != nil {
		return nil, err
	}
	return paginate(scs, offset, limit), nil
}

func (s *DynamoStore) ListScenariosBySimulator(ctx context.Context, simulatorID string) ([]Scenario, error) {
	return s.listScenarios(ctx, map[string]any{"simulator_id": simulatorID})
}

func (s *DynamoStore) UpdateScenario(ctx context.Context, sc *Scenario) error {
	cur, err := s.GetScenario(ctx, sc.ID)
	if err != nil {
		return err
	}
	sc.CreatedAt = cur.CreatedAt
	sc.UpdatedAt = now()
	return s.put(ctx, s.scenarioItem(sc), sc, true)
}

func (s *DynamoStore) DeleteScenario(ctx context.Context, id string) error {
	return s.delete(ctx, entityScenario, id)
}

func (s *DynamoStore) AppliedScenario(ctx context.Context, simulatorID string) (*Scenario, error) {
	scs, err := s.listScenarios(ctx, map[string]any{"simulator_id": simulatorID, "applied": true})
	if err != nil {
		return nil, err
	}
	if len(scs) == 0 {
		return nil, ErrNotFound
	}
	return &scs[0], nil
}

func (s *DynamoStore) Close() error { return nil }

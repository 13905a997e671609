package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
)

// fakeDynamo guarda itens em memória e entende as expressões geradas pelo
// DynamoStore: attribute_(not_)exists e igualdades unidas por AND. O Scan
// devolve páginas de pageSize itens para exercitar LastEvaluatedKey.
type fakeDynamo struct {
	mu       sync.Mutex
	keys     []string
	items    map[string]map[string]types.AttributeValue
	pageSize int
	scans    int
	failScan bool
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}, pageSize: 2}
}

func keyOf(m map[string]types.AttributeValue) string {
	if s, ok := m[hashKey].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) checkCondition(cond *string, exists bool) error {
	if cond == nil {
		return nil
	}
	switch {
	case strings.Contains(*cond, "attribute_not_exists") && exists:
		return &types.ConditionalCheckFailedException{}
	case strings.Contains(*cond, "attribute_exists") && !strings.Contains(*cond, "attribute_not_exists") && !exists:
		return &types.ConditionalCheckFailedException{}
	}
	return nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := keyOf(in.Item)
	_, exists := f.items[k]
	if err := f.checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}
	if !exists {
		f.keys = append(f.keys, k)
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := keyOf(in.Key)
	_, exists := f.items[k]
	if err := f.checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}
	delete(f.items, k)
	for i, key := range f.keys {
		if key == k {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) matches(item map[string]types.AttributeValue, in *dynamodb.ScanInput) bool {
	if in.FilterExpression == nil {
		return true
	}
	expr := strings.NewReplacer("(", "", ")", "").Replace(*in.FilterExpression)
	for _, clause := range strings.Split(expr, " AND ") {
		parts := strings.Split(strings.TrimSpace(clause), " = ")
		if len(parts) != 2 {
			return false
		}
		name := in.ExpressionAttributeNames[parts[0]]
		if !reflect.DeepEqual(item[name], in.ExpressionAttributeValues[parts[1]]) {
			return false
		}
	}
	return true
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	if f.failScan {
		return nil, errors.New("throttled")
	}

	start := 0
	if in.ExclusiveStartKey != nil {
		last := keyOf(in.ExclusiveStartKey)
		for i, k := range f.keys {
			if k == last {
				start = i + 1
				break
			}
		}
	}

	out := &dynamodb.ScanOutput{}
	end := start + f.pageSize
	if end > len(f.keys) {
		end = len(f.keys)
	}
	for _, k := range f.keys[start:end] {
		if f.matches(f.items[k], in) {
			out.Items = append(out.Items, f.items[k])
		}
	}
	if end < len(f.keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{hashKey: attr(f.keys[end-1])}
	}
	return out, nil
}

func TestDynamoStore_Repository(t *testing.T) {
	runRepositoryTests(t, func(t *testing.T) Repository {
		return NewDynamoStore(newFakeDynamo(), "simulators")
	})
}

func TestDynamoStore_ScanFollowsPages(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	repo := NewDynamoStore(fake, "simulators")

	for _, n := range []string{"a", "b", "c", "d", "e"} {
		assert.NoError(t, repo.CreateSimulator(ctx, &Simulator{Owner: "u1", Name: n}))
	}

	fake.scans = 0
	sims, err := repo.ListSimulators(ctx, "u1", 0, 0)
	assert.NoError(t, err)
	assert.Len(t, sims, 5)
	assert.Equal(t, 3, fake.scans)
}

func TestDynamoStore_ScanError(t *testing.T) {
	fake := newFakeDynamo()
	fake.failScan = true
	repo := NewDynamoStore(fake, "simulators")

	_, err := repo.ListScenarios(context.Background(), "u1", 0, 0)
	assert.ErrorContains(t, err, "throttled")
}

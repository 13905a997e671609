// Package secrets resolve referências a SSM Parameter Store e Secrets Manager
// usadas na interpolação da configuração.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/raywall/fast-simulator-toolkit/pkg/awsenv"
)

// Interfaces para abstrair o SDK da AWS (Permite Mocking)
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver cria os clientes reais sob demanda, na primeira referência.
type Resolver struct {
	region string

	mu      sync.Mutex
	ssm     SSMClient
	secrets SecretsClient
}

func NewResolver(region string) *Resolver {
	return &Resolver{region: region}
}

// NewResolverWithClients injeta clientes prontos (testes ou clientes já configurados).
func NewResolverWithClients(ssmClient SSMClient, secretsClient SecretsClient) *Resolver {
	return &Resolver{ssm: ssmClient, secrets: secretsClient}
}

// Parameter lê um parâmetro do SSM com descriptografia.
func (r *Resolver) Parameter(ctx context.Context, path string) (string, error) {
	client, err := r.ssmClient(ctx)
	if err != nil {
		return "", err
	}
	decrypt := true
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &path,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return "", fmt.Errorf("erro no SSM GetParameter: %w", err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parâmetro SSM '%s' sem valor", path)
	}
	return *out.Parameter.Value, nil
}

// Secret lê um segredo. A referência "id#campo" extrai um campo de um segredo JSON.
func (r *Resolver) Secret(ctx context.Context, ref string) (string, error) {
	secretID, field, _ := strings.Cut(ref, "#")

	client, err := r.secretsClient(ctx)
	if err != nil {
		return "", err
	}
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretID,
	})
	if err != nil {
		return "", fmt.Errorf("erro no SecretsManager: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("segredo '%s' sem SecretString", secretID)
	}

	val := *out.SecretString
	if field == "" {
		return val, nil
	}

	// Tenta decodificar JSON
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return "", fmt.Errorf("segredo '%s' não é JSON: %w", secretID, err)
	}
	v, ok := data[field]
	if !ok {
		return "", fmt.Errorf("campo '%s' não encontrado no segredo '%s'", field, secretID)
	}
	return fmt.Sprintf("%v", v), nil
}

func (r *Resolver) ssmClient(ctx context.Context) (SSMClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ssm == nil {
		cfg, err := awsenv.GetAWSConfig(ctx, r.region)
		if err != nil {
			return nil, err
		}
		r.ssm = ssm.NewFromConfig(cfg)
	}
	return r.ssm, nil
}

func (r *Resolver) secretsClient(ctx context.Context) (SecretsClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.secrets == nil {
		cfg, err := awsenv.GetAWSConfig(ctx, r.region)
		if err != nil {
			return nil, err
		}
		r.secrets = secretsmanager.NewFromConfig(cfg)
	}
	return r.secrets, nil
}

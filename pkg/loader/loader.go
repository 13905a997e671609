// Package loader lê a configuração do serviço de um arquivo local, do S3 ou
// do DynamoDB, resolve variáveis e segredos e valida o resultado.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"

	"github.com/raywall/fast-simulator-toolkit/pkg/awsenv"
	localConfig "github.com/raywall/fast-simulator-toolkit/pkg/config"
	"github.com/raywall/fast-simulator-toolkit/pkg/config/injector"
	"github.com/raywall/fast-simulator-toolkit/pkg/secrets"
)

// Load é a função simplificada usada na inicialização e no hot reload.
func Load(ctx context.Context, source string) (*localConfig.ServiceConfig, error) {
	return NewUniversalLoader().Load(ctx, source)
}

// --- Interfaces para Mocking ---

type S3Downloader interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type DynamoGetter interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// UniversalLoader suporta múltiplas fontes de configuração (Local, S3, DynamoDB).
// Clientes nil são criados a partir da configuração AWS padrão.
type UniversalLoader struct {
	validator *localConfig.ConfigValidator
	injector  *injector.Injector

	S3     S3Downloader
	Dynamo DynamoGetter
}

// NewUniversalLoader cria uma nova instância.
func NewUniversalLoader() *UniversalLoader {
	return &UniversalLoader{
		validator: localConfig.NewValidator(),
		injector:  injector.New(secrets.NewResolver("")),
	}
}

// WithResolver troca o resolvedor de segredos usado na interpolação.
func (ul *UniversalLoader) WithResolver(r injector.Resolver) *UniversalLoader {
	ul.injector = injector.New(r)
	return ul
}

// Load detecta o esquema da fonte e carrega a configuração.
func (ul *UniversalLoader) Load(ctx context.Context, source string) (*localConfig.ServiceConfig, error) {
	rawData, err := ul.read(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("falha leitura config (%s): %w", source, err)
	}
	return ul.parseAndValidate(ctx, rawData)
}

func (ul *UniversalLoader) read(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "s3://"):
		if ul.S3 == nil {
			cfg, err := awsenv.GetAWSConfig(ctx, "")
			if err != nil {
				return nil, err
			}
			ul.S3 = s3.NewFromConfig(cfg)
		}
		return ul.loadFromS3(ctx, ul.S3, source)

	case strings.HasPrefix(source, "dynamodb://"):
		if ul.Dynamo == nil {
			cfg, err := awsenv.GetAWSConfig(ctx, "")
			if err != nil {
				return nil, err
			}
			ul.Dynamo = dynamodb.NewFromConfig(cfg)
		}
		return ul.loadFromDynamoDB(ctx, ul.Dynamo, source)
	}

	// Default: Arquivo Local
	return ul.loadFromFile(source)
}

// --- Estratégias de carregamento ---

func (ul *UniversalLoader) loadFromFile(path string) ([]byte, error) {
	// Suporta tanto "file://config.yaml" quanto apenas "config.yaml"
	return os.ReadFile(strings.TrimPrefix(path, "file://"))
}

func (ul *UniversalLoader) loadFromS3(ctx context.Context, client S3Downloader, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL S3 inválida: %w", err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (ul *UniversalLoader) loadFromDynamoDB(ctx context.Context, client DynamoGetter, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL DynamoDB inválida: %w", err)
	}

	tableName := u.Host
	pkValue := strings.TrimPrefix(u.Path, "/")

	// Query Params opcionais: dynamodb://tabela/chave?col=dado&pk=UserId
	colName := u.Query().Get("col")
	if colName == "" {
		colName = "config" // Coluna padrão onde o YAML está salvo
	}

	pkName := u.Query().Get("pk")
	if pkName == "" {
		pkName = "id" // Nome padrão da Partition Key
	}

	out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &tableName,
		Key: map[string]types.AttributeValue{
			pkName: &types.AttributeValueMemberS{Value: pkValue},
		},
	})
	if err != nil {
		return nil, err
	}

	if out.Item == nil {
		return nil, errors.New("item não encontrado no DynamoDB")
	}

	var itemMap map[string]interface{}
	if err := attributevalue.UnmarshalMap(out.Item, &itemMap); err != nil {
		return nil, err
	}

	content, ok := itemMap[colName].(string)
	if !ok {
		return nil, fmt.Errorf("coluna '%s' inválida ou vazia no DynamoDB", colName)
	}

	return []byte(content), nil
}

func (ul *UniversalLoader) parseAndValidate(ctx context.Context, data []byte) (*localConfig.ServiceConfig, error) {
	var cfg localConfig.ServiceConfig

	// 1. Unmarshal (YAML -> Struct), rejeitando chaves desconhecidas
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("YAML malformado: %w", err)
	}

	// 2. Injection (Env/Secrets/SSM)
	if err := ul.injector.Inject(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("falha na injeção de variáveis: %w", err)
	}

	cfg.ApplyDefaults()

	// 3. Validation
	if ul.validator != nil {
		if err := ul.validator.Validate(&cfg); err != nil {
			return nil, fmt.Errorf("validação da configuração falhou: %w", err)
		}
	}

	return &cfg, nil
}

package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/raywall/fast-simulator-toolkit/pkg/awsenv"
	"github.com/raywall/fast-simulator-toolkit/pkg/config"
)

// Open cria o repositório descrito em cfg. O driver vazio equivale a memory.
func Open(ctx context.Context, cfg config.StorageConf) (Repository, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "postgres":
		return OpenSQL(ctx, DialectPostgres, cfg.DSN)
	case "sqlite":
		return OpenSQL(ctx, DialectSQLite, cfg.DSN)
	case "dynamodb":
		awsCfg, err := awsenv.GetAWSConfig(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("store: falha ao carregar config AWS: %w", err)
		}
		return NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.Table), nil
	default:
		return nil, fmt.Errorf("store: driver desconhecido '%s'", cfg.Driver)
	}
}

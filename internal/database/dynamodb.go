package database

import (
	"context"
	"fmt"

	"ancillary-api/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"
)

// NewDynamoDBClient creates a DynamoDB client from the default AWS credential
// chain, or from static credentials when both keys are configured. A custom
// endpoint points the client at dynamodb-local.
func NewDynamoDBClient(ctx context.Context, cfg config.DynamoDBConfig, logger zerolog.Logger) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logger.Info().
		Str("region", cfg.Region).
		Str("endpoint", cfg.Endpoint).
		Str("table_prefix", cfg.TablePrefix).
		Msg("created dynamodb client")

	return client, nil
}

package aws

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	"github.com/veritix/veritix-api/internal/logger"
)

// SecretsManagerClient resolves operational secrets, most importantly the
// relayer signing key, from AWS Secrets Manager with a plain env fallback
// for local development.
type SecretsManagerClient struct {
	svc *secretsmanager.Client
}

// NewSecretsManagerClient builds a client from the default AWS configuration
// chain (environment, shared config, IAM role).
func NewSecretsManagerClient(ctx context.Context) (*SecretsManagerClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return &SecretsManagerClient{svc: secretsmanager.NewFromConfig(cfg)}, nil
}

// GetSecretString fetches a secret whose ARN is named by arnEnvVar. When the
// ARN variable is unset or the fetch fails, the value of fallbackEnvVar is
// used instead. The signing key never appears in logs either way.
func (c *SecretsManagerClient) GetSecretString(ctx context.Context, arnEnvVar, fallbackEnvVar string) (string, error) {
	secretArn := os.Getenv(arnEnvVar)
	if secretArn != "" {
		result, err := c.svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretArn),
		})
		if err == nil && result.SecretString != nil && *result.SecretString != "" {
			logger.Log.Info("Fetched secret from Secrets Manager", zap.String("arn_env", arnEnvVar))
			return *result.SecretString, nil
		}
		logger.Log.Warn("Secrets Manager fetch failed, falling back to env var",
			zap.String("arn_env", arnEnvVar),
			zap.String("fallback_env", fallbackEnvVar),
			zap.Error(err),
		)
	}

	if value := os.Getenv(fallbackEnvVar); value != "" {
		logger.Log.Debug("Using secret from environment variable", zap.String("env", fallbackEnvVar))
		return value, nil
	}

	return "", fmt.Errorf("secret not found via ARN env var %q or direct env var %q", arnEnvVar, fallbackEnvVar)
}

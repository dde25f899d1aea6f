package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	awspkg "github.com/amangirdhar210/order-processing-system/pkg/aws"
)

type Config struct {
	Port               string
	Env                string
	JWTSecret          string
	JWTExpirationHours int
	AWSRegion          string
	DynamoDBTableName  string
	SNSTopicArn        string
}

func LoadConfig() (*Config, error) {
	// Missing .env is fine in deployed environments.
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("APP_ENV", "development"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTExpirationHours: getEnvInt("JWT_EXPIRATION_HOURS", 24),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		DynamoDBTableName:  os.Getenv("DYNAMODB_TABLE_NAME"),
		SNSTopicArn:        os.Getenv("SNS_TOPIC_ARN"),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := awspkg.LoadConfig(context.Background()); err == nil {
			sm := awspkg.NewSecretsClient(awsCfg)
			if secret, err := sm.GetSecret(context.Background(), "orders/JWT_SECRET"); err == nil && secret != "" {
				cfg.JWTSecret = secret
			}
		}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DynamoDBTableName == "" {
		return nil, fmt.Errorf("DYNAMODB_TABLE_NAME is required")
	}
	if cfg.SNSTopicArn == "" {
		return nil, fmt.Errorf("SNS_TOPIC_ARN is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

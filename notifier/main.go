package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/amangirdhar210/order-processing-system/logger"
	"github.com/amangirdhar210/order-processing-system/notifier/consumer"
	"github.com/amangirdhar210/order-processing-system/notifier/emailer"
	"github.com/amangirdhar210/order-processing-system/notifier/sender"
	awspkg "github.com/amangirdhar210/order-processing-system/pkg/aws"
	dynamopkg "github.com/amangirdhar210/order-processing-system/pkg/dynamodb"
	"github.com/amangirdhar210/order-processing-system/repository"
)

func main() {
	_ = godotenv.Load()

	log := logger.New(os.Getenv("APP_ENV"))
	defer log.Sync()

	queueURL := os.Getenv("SQS_QUEUE_URL")
	if queueURL == "" {
		log.Fatal("SQS_QUEUE_URL is required")
	}
	tableName := os.Getenv("DYNAMODB_TABLE_NAME")
	if tableName == "" {
		log.Fatal("DYNAMODB_TABLE_NAME is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awspkg.LoadConfig(ctx)
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}

	userRepo := repository.NewDynamoUserRepository(dynamopkg.NewClientFromConfig(awsCfg), tableName)

	smtpSender, err := sender.NewSMTPSender()
	if err != nil {
		log.Fatal("Failed to configure SMTP sender", zap.Error(err))
	}

	processor := emailer.New(userRepo, smtpSender, log)
	c := consumer.NewSQSConsumer(sqs.NewFromConfig(awsCfg), queueURL, processor, log)

	log.Info("Notification worker started")
	c.Start(ctx)
	log.Info("Notification worker stopped")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/amangirdhar210/order-processing-system/controllers"
	"github.com/amangirdhar210/order-processing-system/logger"
	awspkg "github.com/amangirdhar210/order-processing-system/pkg/aws"
	dynamopkg "github.com/amangirdhar210/order-processing-system/pkg/dynamodb"
	"github.com/amangirdhar210/order-processing-system/repository"
	"github.com/amangirdhar210/order-processing-system/routes"
	"github.com/amangirdhar210/order-processing-system/services"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Env)
	defer log.Sync()

	ctx := context.Background()

	awsCfg, err := awspkg.LoadConfig(ctx)
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}

	ddbClient := dynamopkg.NewClientFromConfig(awsCfg)
	snsClient := awspkg.NewSNSClient(awsCfg)

	metricsClient, err := awspkg.NewMetricsClient(ctx)
	if err != nil {
		log.Warn("CloudWatch metrics client init failed (non-fatal)", zap.Error(err))
	}

	orderRepo := repository.NewDynamoOrderRepository(ddbClient, cfg.DynamoDBTableName)
	userRepo := repository.NewDynamoUserRepository(ddbClient, cfg.DynamoDBTableName)

	publisher := services.NewSnsService(snsClient, cfg.SNSTopicArn, log)
	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTExpirationHours)
	userService := services.NewUserService(userRepo, log)
	authService := services.NewAuthService(userRepo, jwtService, log)
	orderService := services.NewOrderService(orderRepo, userRepo, publisher, log)

	r := routes.NewRouter(routes.Dependencies{
		Logger:      log,
		JWTService:  jwtService,
		Metrics:     metricsClient,
		Auth:        controllers.NewAuthController(userService, authService),
		AdminUsers:  controllers.NewAdminUserController(userService),
		Orders:      controllers.NewOrderController(orderService),
		StaffOrders: controllers.NewStaffOrderController(orderService),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("Order processing API started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited cleanly")
}

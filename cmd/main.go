package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"github.com/coralbank/account-service/internal/command"
	"github.com/coralbank/account-service/internal/config"
	"github.com/coralbank/account-service/internal/events"
	"github.com/coralbank/account-service/internal/handler"
	"github.com/coralbank/account-service/internal/lock"
	"github.com/coralbank/account-service/internal/query"
	internalredis "github.com/coralbank/account-service/internal/redis"
	"github.com/coralbank/account-service/internal/repository"
)

func main() {
	cfg := config.Load()

	// Database connection (write store)
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Redis connection (account locks + read model store + event streaming)
	redis, err := internalredis.NewClient(cfg.RedisAddr, "", cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client)
	locker := lock.NewRedisLocker(redis.Client, cfg.LockTTL, 0)

	userRepo := repository.NewUserRepository(db)
	accountWriteRepo := repository.NewAccountWriteRepository(db)
	accountReadRepo := repository.NewAccountReadRepository(db, redis.Client)
	transactionWriteRepo := repository.NewTransactionWriteRepository(db)
	transactionReadRepo := repository.NewTransactionReadRepository(db, redis.Client)

	policy := command.Policy{
		LockWaitTimeout:    cfg.LockWaitTimeout,
		MinAmount:          cfg.MinTransactionAmount,
		MaxAmount:          cfg.MaxTransactionAmount,
		MaxAccountsPerUser: cfg.MaxAccountsPerUser,
	}

	accountCmdSvc := command.NewAccountCommandService(
		userRepo, accountWriteRepo, locker, accountReadRepo, publisher, policy)
	transactionCmdSvc := command.NewTransactionCommandService(
		accountWriteRepo, transactionWriteRepo, locker, accountReadRepo,
		transactionReadRepo, publisher, policy)

	accountQrySvc := query.NewAccountQueryService(userRepo, accountReadRepo)
	transactionQrySvc := query.NewTransactionQueryService(transactionReadRepo)

	accountHandler := handler.NewAccountHandler(accountCmdSvc, accountQrySvc)
	transactionHandler := handler.NewTransactionHandler(transactionCmdSvc, transactionQrySvc)

	// Setup router
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		v1.POST("/users", accountHandler.CreateUser)

		v1.POST("/accounts", accountHandler.OpenAccount)
		v1.DELETE("/accounts", accountHandler.CloseAccount)
		v1.GET("/accounts", accountHandler.ListAccounts)
		v1.GET("/accounts/:accountNumber/transactions", transactionHandler.ListTransactions)

		v1.POST("/transactions/use", transactionHandler.UseBalance)
		v1.POST("/transactions/cancel", transactionHandler.CancelBalance)
		v1.GET("/transactions/:transactionId", transactionHandler.GetTransaction)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		subscriber := events.NewSubscriber(redis.Client,
			events.TransactionEventsStream, "account-service", "ledger-projector-1",
			transactionReadRepo.HandleLedgerEvent)
		if err := subscriber.Start(ctx); err != nil {
			log.Printf("Subscriber stopped: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		cancel()
	}()

	log.Printf("Account service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

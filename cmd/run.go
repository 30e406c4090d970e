package cmd

import (
	"context"
	"fmt"
	"time"

	"tapcoin/config"
	"tapcoin/database"
	"tapcoin/events"
	"tapcoin/repository"
	"tapcoin/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()

	log.WithField("environment", cfg.Environment).Info("Starting tapcoin engine...")

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Health(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	subscribeEventLogging(eventBus)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	accountService := service.NewAccountService(uowFactory, cfg)
	economyService := service.NewEconomyService(uowFactory, cfg)
	leaderboardService := service.NewLeaderboardService(uowFactory, cfg)
	log.Info("Services initialized successfully")

	// The engine exposes its operations to the embedding process; keep the
	// references alive for the lifetime of the context.
	_ = accountService
	_ = economyService
	_ = leaderboardService

	log.WithFields(log.Fields{
		"tapRateInterval":   cfg.TapRateInterval,
		"dailyReward":       cfg.DailyRewardAmount,
		"minimumWithdrawal": cfg.MinimumWithdrawal,
	}).Info("Engine is running")

	<-ctx.Done()

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Info("Shutdown completed")
	}

	return nil
}

// subscribeEventLogging attaches structured log handlers for the committed
// economy events, giving an audit trail without touching the request path
func subscribeEventLogging(bus *events.Bus) {
	bus.Subscribe(events.EventTypeAccountCreated, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.AccountCreatedEvent); ok {
			log.WithFields(log.Fields{
				"accountID":    e.AccountID,
				"referralCode": e.ReferralCode,
			}).Info("Account created")
		}
	})

	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BalanceChangeEvent); ok {
			log.WithFields(log.Fields{
				"accountID":    e.AccountID,
				"oldBalance":   e.OldBalance,
				"newBalance":   e.NewBalance,
				"entryType":    e.EntryType,
				"changeAmount": e.ChangeAmount,
			}).Debug("Balance changed")
		}
	})

	bus.Subscribe(events.EventTypeWithdrawalRequested, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.WithdrawalRequestedEvent); ok {
			log.WithFields(log.Fields{
				"accountID":    e.AccountID,
				"withdrawalID": e.WithdrawalID,
				"method":       e.Method,
				"amount":       e.Amount,
			}).Info("Withdrawal requested")
		}
	})
}

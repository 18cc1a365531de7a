package main

import (
	"fmt"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/config"
	"finanzas/internal/database"
	"finanzas/internal/logger"
	"finanzas/internal/services"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one due-date notification scan",
	Long:  "Raise UPCOMING_DUE, DUE_TODAY and PAST_DUE notifications for unpaid movements, honouring the dedup window.",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(_ *cobra.Command, _ []string) error {
	cfg := config.Get()
	log := logger.Get()

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	var publisher services.NotificationPublisher = services.NopPublisher{}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			log.Warnf("AMQP unavailable, scan results will not be fanned out: %v", err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	dedup := services.NewNotificationDeduplicator(dbManager.DB(), cfg.DedupWindow, publisher)
	scanner := services.NewDueDateScanner(dbManager.DB(), dedup, cfg.UpcomingDueDays)

	created, err := scanner.Scan(time.Now())
	if err != nil {
		return fmt.Errorf("due-date scan failed: %w", err)
	}
	log.Infow("Due-date scan complete", "created", created)
	return nil
}

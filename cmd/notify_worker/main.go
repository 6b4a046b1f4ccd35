package main

import (
	"context"
	"encoding/json"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/spotit-app/spotit-api/config"
	"github.com/spotit-app/spotit-api/pkg/helpers"
	"github.com/spotit-app/spotit-api/pkg/notifier"
)

// Consumes finalized-encounter jobs from RabbitMQ and mails the user
// via Mailgun. Malformed messages are dropped; delivery failures are
// requeued once by the broker.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-notify", cfg.Env)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(cfg.RabbitMQNotifyQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		log.Fatalf("failed to set qos: %v", err)
	}

	deliveries, err := ch.Consume(cfg.RabbitMQNotifyQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	mailer := notifier.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Infof("notify worker consuming from %s", cfg.RabbitMQNotifyQueue)
	for {
		select {
		case <-ctx.Done():
			logger.Info("notify worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				logger.Warn("delivery channel closed")
				return
			}
			handle(ctx, logger, mailer, cfg.MailSendEnabled, d)
		}
	}
}

func handle(ctx context.Context, logger *logrus.Logger, mailer *notifier.Mailgun, sendEnabled bool, d amqp.Delivery) {
	var job notifier.EncounterJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		logger.Errorf("dropping malformed job: %v", err)
		_ = d.Nack(false, false)
		return
	}
	if !sendEnabled || job.UserEmail == "" {
		logger.Infof("skipping mail for encounter %s", job.EncounterID)
		_ = d.Ack(false)
		return
	}
	if err := mailer.SendEncounter(ctx, job); err != nil {
		logger.Errorf("mail failed for encounter %s: %v", job.EncounterID, err)
		_ = d.Nack(false, !d.Redelivered)
		return
	}
	logger.Infof("mailed %s about encounter %s", job.UserEmail, job.EncounterID)
	_ = d.Ack(false)
}

// Worker consumes queued access codes from RabbitMQ and sends them through SMS Local.
// Set RABBITMQ_URL, SMS_QUEUE and SMS_LOCAL_API_KEY.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"user-enrollment/backend/internal/config"
	"user-enrollment/backend/internal/logging"
	"user-enrollment/backend/internal/notify"
	"user-enrollment/backend/internal/notify/sms"
)

const consumerTag = "sms-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("worker", "production", "").WithError(err).Fatal("config")
	}
	log := logging.New(cfg.ServiceName+"-worker", cfg.Env, cfg.LogLevel)

	if cfg.RabbitMQURL == "" {
		log.Fatal("worker: RABBITMQ_URL is required")
	}
	if cfg.SMSLocalAPIKey == "" {
		log.Fatal("worker: SMS_LOCAL_API_KEY is required")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.WithError(err).Fatal("worker: rabbitmq dial")
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Fatal("worker: rabbitmq channel")
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.SMSQueue, true, false, false, false, nil); err != nil {
		log.WithError(err).Fatal("worker: queue declare")
	}
	if err := ch.Qos(1, 0, false); err != nil {
		log.WithError(err).Fatal("worker: qos")
	}
	deliveries, err := ch.Consume(cfg.SMSQueue, consumerTag, false, false, false, false, nil)
	if err != nil {
		log.WithError(err).Fatal("worker: consume")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("worker: shutting down...")
		cancel()
	}()

	sender := sms.NewSMSLocalClient(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender)
	log.WithField("queue", cfg.SMSQueue).Info("worker: consuming")
	notify.NewWorker(sender, cfg.NotifyTimeout(), log).Run(ctx, deliveries)
	log.Info("worker: stopped")
}

package worker

import (
	"context"
	"errors"
	"log"

	"checkout-service/internal/broker"
	"checkout-service/internal/models"
	"checkout-service/internal/service"
)

// PaymentWorker consumes payment events from the external payment
// collaborator and marks the corresponding orders as paid. Redelivered
// events are harmless: MarkAsPaid treats a replay as a no-op.
type PaymentWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewPaymentWorker creates a new payment worker
func NewPaymentWorker(consumer *broker.Consumer, checkoutService *service.CheckoutService) *PaymentWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnPaymentSucceeded(func(ctx context.Context, event *models.PaymentSucceededEvent) error {
		log.Printf("Payment succeeded for order %d (tx %s)", event.OrderID, event.TxID)

		_, err := checkoutService.MarkAsPaid(ctx, event.OrderID)

		// an event that can never apply must not wedge the consumer on
		// endless redelivery
		var derr *models.DomainError
		if errors.As(err, &derr) {
			log.Printf("Dropping payment event for order %d: %v", event.OrderID, derr)
			return nil
		}
		return err
	})

	return &PaymentWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *PaymentWorker) Start(ctx context.Context) error {
	log.Println("Starting payment worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *PaymentWorker) Stop() error {
	log.Println("Stopping payment worker...")
	return w.consumer.Close()
}

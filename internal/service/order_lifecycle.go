package service

import (
	"context"

	"checkout-service/internal/models"
	"checkout-service/internal/store"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

// MarkAsPaid transitions a PENDING order to PAID. Replays are not errors:
// payment webhooks get redelivered, so an order that is already PAID (or
// past it) is returned unchanged.
func (s *CheckoutService) MarkAsPaid(ctx context.Context, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.MarkAsPaid")
	defer span.End()

	var (
		order        *models.Order
		transitioned bool
	)

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if o.Status == models.OrderStatusPaid || o.Status == models.OrderStatusCompleted {
			order = o
			return nil
		}

		next, err := NextStatus(o.Status, EventPay)
		if err != nil {
			util.InvalidTransitionsTotal.WithLabelValues(o.Status.String(), string(EventPay)).Inc()
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, orderID, next); err != nil {
			return err
		}

		o.Status = next
		order = o
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !transitioned {
		s.logger.Info("Order already paid, no-op", zap.Int64("order_id", orderID))
		return order, nil
	}

	util.OrdersPaidTotal.Inc()
	s.invalidateCache(ctx, orderID)
	s.logger.Info("Order marked as paid", zap.Int64("order_id", orderID))

	event := &models.OrderPaidEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderPaid),
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount,
	}
	if err := s.events.PublishOrderPaid(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
	}

	return order, nil
}

// Complete transitions a PAID order to COMPLETED. An already-completed
// order is returned unchanged; completing from any other status than PAID
// is rejected by the state machine.
func (s *CheckoutService) Complete(ctx context.Context, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Complete")
	defer span.End()

	var (
		order        *models.Order
		transitioned bool
	)

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if o.Status == models.OrderStatusCompleted {
			order = o
			return nil
		}

		next, err := NextStatus(o.Status, EventComplete)
		if err != nil {
			util.InvalidTransitionsTotal.WithLabelValues(o.Status.String(), string(EventComplete)).Inc()
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, orderID, next); err != nil {
			return err
		}

		o.Status = next
		order = o
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !transitioned {
		s.logger.Info("Order already completed, no-op", zap.Int64("order_id", orderID))
		return order, nil
	}

	util.OrdersCompletedTotal.Inc()
	s.invalidateCache(ctx, orderID)
	s.logger.Info("Order completed", zap.Int64("order_id", orderID))

	event := &models.OrderCompletedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeOrderCompleted),
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
	}
	if err := s.events.PublishOrderCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCompleted event", zap.Error(err))
	}

	return order, nil
}

// Cancel transitions a PENDING order to CANCELLED and restores the
// snapshotted quantity for every line. Restoration resolves inventory rows
// through the immutable sku, so it survives product renames and price
// changes made after checkout. Only PENDING orders are cancellable; a paid
// or completed order needs a refund flow instead. An already-cancelled
// order is returned unchanged.
func (s *CheckoutService) Cancel(ctx context.Context, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Cancel")
	defer span.End()

	var (
		order        *models.Order
		transitioned bool
		restoredQty  int
	)

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if o.Status == models.OrderStatusCancelled {
			order = o
			return nil
		}

		next, err := NextStatus(o.Status, EventCancel)
		if err != nil {
			util.InvalidTransitionsTotal.WithLabelValues(o.Status.String(), string(EventCancel)).Inc()
			return err
		}

		items, err := tx.GetOrderItems(ctx, orderID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := tx.RestoreStockBySKU(ctx, item.ProductSKU, item.Quantity); err != nil {
				return err
			}
			restoredQty += item.Quantity
		}

		if err := tx.UpdateOrderStatus(ctx, orderID, next); err != nil {
			return err
		}

		o.Status = next
		order = o
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !transitioned {
		s.logger.Info("Order already cancelled, no-op", zap.Int64("order_id", orderID))
		return order, nil
	}

	util.OrdersCancelledTotal.Inc()
	util.StockRestoredTotal.Add(float64(restoredQty))
	s.invalidateCache(ctx, orderID)
	s.logger.Info("Order cancelled",
		zap.Int64("order_id", orderID),
		zap.Int("restored_quantity", restoredQty))

	event := &models.OrderCancelledEvent{
		BaseEvent:  newBaseEvent(models.EventTypeOrderCancelled),
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
	}
	if err := s.events.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}

	return order, nil
}

func (s *CheckoutService) invalidateCache(ctx context.Context, orderID int64) {
	if err := s.cache.InvalidateOrder(ctx, orderID); err != nil {
		s.logger.Warn("Failed to invalidate order cache",
			zap.Int64("order_id", orderID), zap.Error(err))
	}
}

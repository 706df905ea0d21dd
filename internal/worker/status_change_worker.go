package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"knowledge-governance/internal/app"
	"knowledge-governance/internal/model"
	"knowledge-governance/internal/platform/rabbitmq"
)

// StatusChangeWorker applies document status changes published by the lifecycle
// to the golden answer registry.
type StatusChangeWorker struct {
	conn      *amqp.Connection
	handler   app.StatusChangeHandler
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStatusChangeWorker(conn *amqp.Connection, handler app.StatusChangeHandler, queueName string, logger *zap.Logger) *StatusChangeWorker {
	return &StatusChangeWorker{
		conn:      conn,
		handler:   handler,
		queueName: queueName,
		logger:    logger.With(zap.String("worker", "status_change")),
	}
}

func (w *StatusChangeWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.logger.Warn("delivery channel closed")
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					w.logger.Warn("status change not applied, left to the reconcile sweep", zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.logger.Info("worker started", zap.String("queue", w.queueName))
	return nil
}

func (w *StatusChangeWorker) handle(ctx context.Context, body []byte) error {
	var event model.StatusChangeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode status event failed: %w", err)
	}
	if event.DocumentID == "" || !event.To.Valid() {
		return fmt.Errorf("malformed status event for document %q", event.DocumentID)
	}
	n, err := w.handler.OnDocumentStatusChanged(ctx, event.DocumentID, event.To)
	if err != nil {
		return err
	}
	if n > 0 {
		w.logger.Info("golden answers downgraded",
			zap.String("document_id", event.DocumentID),
			zap.String("status", string(event.To)),
			zap.Int("count", n))
	}
	return nil
}

func (w *StatusChangeWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

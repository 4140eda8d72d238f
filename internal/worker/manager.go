package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"yatube/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second
)

// errorBackoff is how long a worker pauses after a failed read.
var errorBackoff = time.Second

// Manager runs worker goroutines that consume the image stream.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	logger      *zap.Logger
	workerCount int
	batchSize   int64
	blockTime   time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration // XREADGROUP BLOCK
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig, logger *zap.Logger) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		logger:      logger.Named("worker_manager"),
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
	}
}

// Start launches the workers. Stop shuts them down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamImages, queue.ConsumerGroupImages); err != nil {
		m.cancel()
		return err
	}

	for i := 1; i <= m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(i, consumerNameForWorker(i))
	}

	m.logger.Info("workers started",
		zap.Int("workers", m.workerCount),
		zap.String("stream", queue.StreamImages),
		zap.String("group", queue.ConsumerGroupImages),
	)
	return nil
}

// Stop blocks until every worker has returned.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
	m.logger.Info("workers stopped")
}

func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()
	log := m.logger.With(zap.Int("worker", workerID))

	// Messages left unacknowledged by a previous run come first.
	m.processPending(log, consumerName)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
			m.processMessages(log, consumerName)
		}
	}
}

func (m *Manager) processPending(log *zap.Logger, consumerName string) {
	for {
		messages, err := m.consumer.ReadPending(m.ctx, queue.StreamImages, queue.ConsumerGroupImages, consumerName, m.batchSize)
		if err != nil {
			log.Warn("read pending failed", zap.Error(err))
			return
		}
		if len(messages) == 0 {
			return
		}
		log.Info("recovering pending messages", zap.Int("count", len(messages)))
		m.handleMessages(log, messages)
	}
}

func (m *Manager) processMessages(log *zap.Logger, consumerName string) {
	messages, err := m.consumer.Read(m.ctx, queue.StreamImages, queue.ConsumerGroupImages, consumerName, m.batchSize, m.blockTime)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.Warn("read failed", zap.Error(err))
		select {
		case <-time.After(errorBackoff):
		case <-m.ctx.Done():
		}
		return
	}

	m.handleMessages(log, messages)
}

// handleMessages acknowledges every message, failed or not. A failed delete
// leaves an orphan object behind, which is logged.
func (m *Manager) handleMessages(log *zap.Logger, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			log.Warn("handle event failed",
				zap.String("message_id", msg.ID),
				zap.String("type", msg.Event.Type),
				zap.Error(err),
			)
		}

		if err := m.consumer.Ack(m.ctx, queue.StreamImages, queue.ConsumerGroupImages, msg.ID); err != nil {
			log.Warn("ack failed", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
}

func consumerNameForWorker(workerID int) string {
	return fmt.Sprintf("worker-%d", workerID)
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IBM/sarama"

	"github.com/osutrack-bridge/internal/config"
	"github.com/osutrack-bridge/internal/domain"
)

// UploadJob is the message format for queued upload requests.
type UploadJob struct {
	RequestID string `json:"request_id,omitempty"`
	UserID    string `json:"user_id"`
	Player    string `json:"player"`
	Mode      int    `json:"mode"`
}

// Uploader runs one upload job through the orchestrator
type Uploader interface {
	UploadScores(ctx context.Context, req domain.UploadRequest) (*domain.UploadResult, error)
}

// Consumer consumes upload jobs from Kafka
type Consumer struct {
	config        *config.KafkaConfig
	uploader      Uploader
	logger        *slog.Logger
	consumerGroup sarama.ConsumerGroup
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	ready         chan bool
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, uploader Uploader, logger *slog.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		config:        cfg,
		uploader:      uploader,
		logger:        logger,
		consumerGroup: consumerGroup,
		ctx:           ctx,
		cancel:        cancel,
		ready:         make(chan bool),
	}, nil
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start() error {
	c.logger.Info("starting Kafka consumer",
		"brokers", c.config.Brokers,
		"topic", c.config.Topic,
		"group_id", c.config.GroupID,
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			handler := &consumerGroupHandler{
				consumer: c,
				ready:    c.ready,
			}

			if err := c.consumerGroup.Consume(c.ctx, []string{c.config.Topic}, handler); err != nil {
				if err == sarama.ErrClosedConsumerGroup {
					return
				}
				c.logger.Error("error from consumer", "error", err)
			}

			// Check if context was cancelled
			if c.ctx.Err() != nil {
				return
			}

			c.ready = make(chan bool)
		}
	}()

	// Wait until consumer is ready
	<-c.ready
	c.logger.Info("Kafka consumer ready")

	// Handle errors in separate goroutine
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				c.logger.Error("consumer group error", "error", err)
			}
		}
	}()

	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info("stopping Kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

// runJob executes one upload job with the configured per-job timeout. Jobs
// are fire-and-forget from the queue's perspective; the orchestrator already
// retries what is worth retrying, so a failed job is logged, not redelivered.
func (c *Consumer) runJob(req domain.UploadRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.JobTimeout)
	defer cancel()

	result, err := c.uploader.UploadScores(ctx, req)
	if err != nil {
		c.logger.Error("upload job failed",
			"request_id", req.RequestID,
			"user_id", req.UserID,
			"player", req.Player,
			"error", err,
		)
		return
	}

	c.logger.Info("upload job completed",
		"request_id", req.RequestID,
		"player", req.Player,
		"accepted", result.Accepted,
		"new_bests", result.NewBests,
	)
}

// decodeJob parses and validates one queued message.
func decodeJob(value []byte) (domain.UploadRequest, error) {
	var job UploadJob
	if err := json.Unmarshal(value, &job); err != nil {
		return domain.UploadRequest{}, fmt.Errorf("decoding upload job: %w", err)
	}

	req := domain.UploadRequest{
		RequestID: job.RequestID,
		UserID:    job.UserID,
		Player:    job.Player,
		Mode:      domain.Mode(job.Mode),
	}
	if err := req.Validate(); err != nil {
		return domain.UploadRequest{}, err
	}
	return req, nil
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer *Consumer
	ready    chan bool
}

// Setup is called at the beginning of a new session
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

// Cleanup is called at the end of a session
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes messages from a topic partition. Every message is
// marked once handled; malformed jobs are skipped, never redelivered.
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil

		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			req, err := decodeJob(message.Value)
			if err != nil {
				h.consumer.logger.Warn("skipping bad upload job",
					"error", err,
					"offset", message.Offset,
					"partition", message.Partition,
				)
				session.MarkMessage(message, "")
				continue
			}

			h.consumer.runJob(req)
			session.MarkMessage(message, "")
		}
	}
}

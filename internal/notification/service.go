package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/souvik9998/gym-crm-sub001/internal/logger"
	"github.com/souvik9998/gym-crm-sub001/internal/metrics"
)

const (
	outboxKey   = "whatsapp:outbox"
	failedKey   = "whatsapp:failed"
	maxTries    = 3
	pollTimeout = 2 * time.Second
	errorDelay  = time.Second
)

type Job struct {
	ID       string      `json:"id"`
	To       string      `json:"to"`
	MemberID int         `json:"member_id"`
	Type     MessageType `json:"type"`
	Body     string      `json:"body"`
	Tries    int         `json:"tries"`
	Created  time.Time   `json:"created"`
}

// Service queues WhatsApp messages in Redis and delivers them from Start.
type Service struct {
	redis      *redis.Client
	sender     Sender
	retryDelay time.Duration
	errorDelay time.Duration
}

func New(rdb *redis.Client, sender Sender) *Service {
	return &Service{redis: rdb, sender: sender, retryDelay: 5 * time.Second, errorDelay: errorDelay}
}

// Notify renders msg and puts it on the outbox.
func (s *Service) Notify(ctx context.Context, msg Message) error {
	body, err := Render(msg.Type, msg.Data)
	if err != nil {
		return err
	}

	job := Job{
		ID:       uuid.NewString(),
		To:       NormalizePhone(msg.To),
		MemberID: msg.MemberID,
		Type:     msg.Type,
		Body:     body,
		Created:  time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if err := s.redis.LPush(ctx, outboxKey, string(data)).Err(); err != nil {
		logger.Error("failed to queue whatsapp message", "member_id", msg.MemberID, "type", msg.Type, "error", err)
		return err
	}

	metrics.RecordNotification(string(msg.Type), "queued")
	logger.Debug("whatsapp message queued", "job_id", job.ID, "member_id", msg.MemberID, "type", msg.Type)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("whatsapp worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("whatsapp worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, pollTimeout, outboxKey).Result()
	if errors.Is(err, redis.Nil) {
		return
	}
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("whatsapp outbox unavailable", "error", err)
		}
		// Redis is down; wait before polling again.
		select {
		case <-ctx.Done():
		case <-time.After(s.errorDelay):
		}
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("bad whatsapp job", "error", err)
		return
	}

	job.Tries++
	if err := s.sender.Send(ctx, job.To, job.Body); err != nil {
		logger.Warn("whatsapp send failed", "job_id", job.ID, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			s.retry(ctx, job)
			return
		}
		s.saveFailed(ctx, job, err)
		return
	}

	metrics.RecordNotification(string(job.Type), "sent")
	logger.Info("whatsapp message sent", "job_id", job.ID, "member_id", job.MemberID, "type", job.Type)
}

func (s *Service) retry(ctx context.Context, job Job) {
	select {
	case <-ctx.Done():
	case <-time.After(s.retryDelay):
	}

	data, _ := json.Marshal(job)
	if err := s.redis.LPush(context.WithoutCancel(ctx), outboxKey, string(data)).Err(); err != nil {
		logger.Error("failed to requeue whatsapp job", "job_id", job.ID, "error", err)
		return
	}
	metrics.RecordNotification(string(job.Type), "retried")
}

func (s *Service) saveFailed(ctx context.Context, job Job, sendErr error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": sendErr.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.WithoutCancel(ctx), failedKey, string(data))

	metrics.RecordNotification(string(job.Type), "failed")
	logger.Error("whatsapp job moved to failed queue", "job_id", job.ID, "tries", job.Tries)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	n, _ := s.redis.LLen(ctx, outboxKey).Result()
	metrics.SetNotificationQueueLength(n)
	return n
}

func (s *Service) Close() error {
	return s.redis.Close()
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

const (
	TaskBookApproved = "email:book_approved"
	TaskBookRejected = "email:book_rejected"
	TaskBookSold     = "email:book_sold"

	emailQueue = "emails"

	enqueueTimeout = 5 * time.Second
)

func taskType(t EventType) (string, error) {
	switch t {
	case EventBookApproved:
		return TaskBookApproved, nil
	case EventBookRejected:
		return TaskBookRejected, nil
	case EventBookSold:
		return TaskBookSold, nil
	}
	return "", fmt.Errorf("unknown event type %q", t)
}

// NewTask serializes an event into an asynq task on the email queue
func NewTask(event Event) (*asynq.Task, error) {
	name, err := taskType(event.Type)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(name, payload, asynq.Queue(emailQueue), asynq.MaxRetry(5)), nil
}

// QueuePublisher hands events to Redis through asynq. It is a Sink, so it
// runs behind a Dispatcher and a slow Redis never holds up a request.
type QueuePublisher struct {
	client *asynq.Client
}

func NewQueuePublisher(redisAddr string) *QueuePublisher {
	return &QueuePublisher{client: asynq.NewClient(redisOpt(redisAddr))}
}

// Deliver enqueues the event, giving up after enqueueTimeout
func (q *QueuePublisher) Deliver(ctx context.Context, event Event) error {
	task, err := NewTask(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, enqueueTimeout)
	defer cancel()

	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	log.Debug().Str("service", "notify").Str("task_id", info.ID).Str("type", task.Type()).Msg("notification enqueued")
	return nil
}

func (q *QueuePublisher) Close() error {
	return q.client.Close()
}

func redisOpt(addr string) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	}
}

// QueueWorker consumes email tasks and delivers them
type QueueWorker struct {
	server    *asynq.Server
	deliverer *Deliverer
}

func NewQueueWorker(redisAddr string, concurrency int, deliverer *Deliverer) *QueueWorker {
	server := asynq.NewServer(redisOpt(redisAddr), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			emailQueue: 10,
		},
	})
	return &QueueWorker{server: server, deliverer: deliverer}
}

// Mux routes every email task type to the deliverer
func (w *QueueWorker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskBookApproved, w.handle)
	mux.HandleFunc(TaskBookRejected, w.handle)
	mux.HandleFunc(TaskBookSold, w.handle)
	return mux
}

// Start runs the asynq server in the background
func (w *QueueWorker) Start() error {
	return w.server.Start(w.Mux())
}

func (w *QueueWorker) Shutdown() {
	w.server.Shutdown()
}

func (w *QueueWorker) handle(ctx context.Context, t *asynq.Task) error {
	var event Event
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return w.deliverer.Deliver(ctx, event)
}

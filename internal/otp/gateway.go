package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

type deliveryJob struct {
	Phone string
	Body  string
}

type worker struct {
	id         int
	workerPool chan chan deliveryJob
	jobChannel chan deliveryJob
	logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan deliveryJob, logger *slog.Logger) *worker {
	return &worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan deliveryJob),
		logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, deliver func(deliveryJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case w.workerPool <- w.jobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.jobChannel:
				deliver(job)
			case <-ctx.Done():
				w.logger.Debug("sms worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

type GatewayConfig struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	MaxWorkers int
	QueueSize  int
}

// GatewaySender hands codes to an HTTP SMS gateway through a bounded worker
// pool. Send only queues; a full queue is reported as an error so the caller
// does not store a code that will never arrive.
type GatewaySender struct {
	url     string
	apiKey  string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger

	jobQueue   chan deliveryJob
	workerPool chan chan deliveryJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewGatewaySender(cfg GatewayConfig, logger *slog.Logger) *GatewaySender {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	s := &GatewaySender{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		client:     &http.Client{Timeout: cfg.Timeout},
		timeout:    cfg.Timeout,
		logger:     logger,
		jobQueue:   make(chan deliveryJob, cfg.QueueSize),
		workerPool: make(chan chan deliveryJob, cfg.MaxWorkers),
		maxWorkers: cfg.MaxWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.startWorkerPool()
	return s
}

func (s *GatewaySender) startWorkerPool() {
	s.once.Do(func() {
		for i := 0; i < s.maxWorkers; i++ {
			newWorker(i, s.workerPool, s.logger).start(s.ctx, &s.wg, s.deliver)
		}

		s.wg.Add(1)
		go s.dispatch()

		s.logger.Info("sms gateway worker pool started",
			"max_workers", s.maxWorkers,
			"queue_size", cap(s.jobQueue))
	})
}

func (s *GatewaySender) dispatch() {
	defer s.wg.Done()

	for {
		select {
		case job := <-s.jobQueue:
			select {
			case jobChannel := <-s.workerPool:
				select {
				case jobChannel <- job:
				case <-s.ctx.Done():
					return
				}
			case <-s.ctx.Done():
				return
			}
		case <-s.ctx.Done():
			s.logger.Info("sms dispatcher shutting down")
			return
		}
	}
}

func (s *GatewaySender) Send(_ context.Context, phone, code string) error {
	if s.ctx.Err() != nil {
		return fmt.Errorf("sms gateway is shut down")
	}

	job := deliveryJob{
		Phone: phone,
		Body:  fmt.Sprintf("Your chit fund portal verification code is %s", code),
	}

	select {
	case s.jobQueue <- job:
		s.logger.Debug("sms queued", "phone", maskPhone(phone), "queue_length", len(s.jobQueue))
		return nil
	default:
		s.logger.Warn("sms queue full, rejecting code", "phone", maskPhone(phone), "queue_capacity", cap(s.jobQueue))
		return fmt.Errorf("sms queue full, please try again later")
	}
}

func (s *GatewaySender) deliver(job deliveryJob) {
	if err := s.post(job); err != nil {
		s.logger.Error("sms delivery failed", "phone", maskPhone(job.Phone), "error", err)
		return
	}
	s.logger.Info("sms delivered", "phone", maskPhone(job.Phone))
}

func (s *GatewaySender) post(job deliveryJob) error {
	payload, err := json.Marshal(map[string]string{
		"to":   job.Phone,
		"body": job.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sms request: %w", err)
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// Shutdown stops the workers. Queued messages that were not picked up are
// dropped.
func (s *GatewaySender) Shutdown() {
	s.logger.Info("shutting down sms gateway sender")
	s.cancel()
	s.wg.Wait()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/liventcord/LiventCord-sub002/internal/database"
	"github.com/liventcord/LiventCord-sub002/internal/metadata"
	"github.com/liventcord/LiventCord-sub002/internal/models"
	"github.com/liventcord/LiventCord-sub002/internal/snowflake"
	"golang.org/x/time/rate"
)

// EnrichJob asks for the links of a saved message to be resolved.
type EnrichJob struct {
	MessageID string
	ChannelID string
	GuildID   string
	UserID    string
	Content   string
}

// EnrichmentConfig tunes an EnrichmentQueue.
type EnrichmentConfig struct {
	Workers   int
	QueueSize int
	// Rate is the number of fetcher calls allowed per second.
	Rate       float64
	JobTimeout time.Duration
}

// EnrichmentQueue resolves message links off the request path. Every job runs
// at most once; failures are logged and dropped.
type EnrichmentQueue struct {
	jobs    chan EnrichJob
	workers int
	timeout time.Duration
	limiter *rate.Limiter

	fetcher     metadata.Fetcher
	urls        database.MessageURLRepository
	media       database.MediaURLRepository
	attachments database.AttachmentRepository
	messages    database.MessageRepository
	cache       MessageCache
	ids         *snowflake.Generator

	root   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewEnrichmentQueue(
	cfg EnrichmentConfig,
	fetcher metadata.Fetcher,
	urls database.MessageURLRepository,
	media database.MediaURLRepository,
	attachments database.AttachmentRepository,
	messages database.MessageRepository,
	cache MessageCache,
	ids *snowflake.Generator,
) *EnrichmentQueue {
	workers := max(cfg.Workers, 1)
	queueSize := max(cfg.QueueSize, 1)
	limit := rate.Inf
	burst := workers
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
		burst = max(int(cfg.Rate), 1)
	}
	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	root, cancel := context.WithCancel(context.Background())
	return &EnrichmentQueue{
		jobs:        make(chan EnrichJob, queueSize),
		workers:     workers,
		timeout:     timeout,
		limiter:     rate.NewLimiter(limit, burst),
		fetcher:     fetcher,
		urls:        urls,
		media:       media,
		attachments: attachments,
		messages:    messages,
		cache:       cache,
		ids:         ids,
		root:        root,
		cancel:      cancel,
	}
}

// Start launches the workers.
func (q *EnrichmentQueue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
}

// Enqueue hands a job to the workers. It never blocks: with a full buffer or
// a stopped queue the job is dropped and false is returned.
func (q *EnrichmentQueue) Enqueue(job EnrichJob) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		slog.Warn("enrichment queue stopped, dropping job", "messageID", job.MessageID)
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		slog.Warn("enrichment queue full, dropping job", "messageID", job.MessageID)
		return false
	}
}

// Stop refuses new jobs and waits for queued ones to finish. When ctx expires
// first, running jobs are cancelled and the jobs still queued are lost.
func (q *EnrichmentQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		lost := len(q.jobs)
		q.cancel()
		<-done
		slog.Warn("enrichment queue stopped before draining", "lostJobs", lost)
		return ctx.Err()
	}
}

func (q *EnrichmentQueue) work() {
	defer q.wg.Done()
	for job := range q.jobs {
		if q.root.Err() != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(q.root, q.timeout)
		if err := q.Process(ctx, job); err != nil {
			slog.Warn("enriching message failed", "messageID", job.MessageID, "channelID", job.ChannelID, "error", err)
		}
		cancel()
	}
}

// Process resolves the links of one message: the URLs are merged into the
// message's URL record, media found behind them becomes proxied attachments
// and the first metadata object becomes the message's link preview.
func (q *EnrichmentQueue) Process(ctx context.Context, job EnrichJob) error {
	found := metadata.ExtractURLs(job.Content)
	if len(found) == 0 {
		return nil
	}

	rec := &models.MessageURL{
		MessageID: job.MessageID,
		ChannelID: job.ChannelID,
		UserID:    job.UserID,
		URLs:      found,
	}
	if job.GuildID != "" {
		guildID := job.GuildID
		rec.GuildID = &guildID
	}
	if _, err := q.urls.Merge(ctx, rec); err != nil {
		return fmt.Errorf("merging message urls: %w", err)
	}

	if q.fetcher == nil {
		return nil
	}
	if err := q.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for fetch slot: %w", err)
	}
	results, err := q.fetcher.Fetch(ctx, found)
	if err != nil {
		return fmt.Errorf("fetching metadata: %w", err)
	}

	changed := false
	var errs []error
	var preview *models.Metadata
	for _, r := range results {
		if r.MediaURL != nil && r.MediaURL.URL != "" {
			if err := q.media.Upsert(ctx, r.MediaURL); err != nil {
				errs = append(errs, fmt.Errorf("saving media %s: %w", r.MediaURL.URL, err))
				continue
			}
			added, err := attachMedia(ctx, q.attachments, q.ids, job.ChannelID, job.MessageID, r.MediaURL)
			if err != nil {
				errs = append(errs, fmt.Errorf("attaching media %s: %w", r.MediaURL.URL, err))
				continue
			}
			changed = changed || added
		}
		if preview == nil && !r.Metadata.IsEmpty() {
			preview = r.Metadata
		}
	}

	if preview != nil {
		if err := q.messages.UpdateMetadata(ctx, job.MessageID, preview); err != nil {
			errs = append(errs, fmt.Errorf("saving metadata: %w", err))
		} else {
			changed = true
		}
	}

	if changed {
		invalidate(ctx, q.cache, job.GuildID, job.ChannelID)
	}
	return errors.Join(errs...)
}

package features

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	sv "sona/internal/service"
)

// ScrapeJob is one URL to fetch and clean for the knowledge pipeline. Reply
// always receives exactly one result.
type ScrapeJob struct {
	AgentID    string
	URL        string
	Reply      chan ScrapeJobResult
	EnqueuedAt time.Time
}

type ScrapeJobResult struct {
	URL     string
	Content string
	Title   string
	Err     error
}

// ScrapeWorkerPool bounds the number of concurrent scrape calls. Web-search
// imports fan a batch of URLs through it instead of hitting the scraping
// provider all at once.
type ScrapeWorkerPool struct {
	jobQueue        chan ScrapeJob
	workerCount     int
	maxTaskWaitTime time.Duration
	scraper         sv.Scraper
	logger          *zap.Logger
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	// Metrics
	totalJobsEnqueued  int64
	totalJobsProcessed int64
	totalJobsDropped   int64
	activeWorkers      int64
}

func NewScrapeWorkerPool(scraper sv.Scraper, logger *zap.Logger, size, queueDepth, maxTaskWaitTime int) *ScrapeWorkerPool {
	if size <= 0 {
		size = 3
	}
	if queueDepth <= 0 {
		queueDepth = size * 4
	}
	if maxTaskWaitTime <= 0 {
		maxTaskWaitTime = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ScrapeWorkerPool{
		jobQueue:        make(chan ScrapeJob, queueDepth),
		workerCount:     size,
		maxTaskWaitTime: time.Duration(maxTaskWaitTime) * time.Second,
		scraper:         scraper,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
	}
}

func (wp *ScrapeWorkerPool) Start() {
	wp.logger.Info("Starting scrape worker pool",
		zap.Int("workerCount", wp.workerCount),
		zap.Int("queueCapacity", cap(wp.jobQueue)))

	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *ScrapeWorkerPool) Stop() {
	wp.cancel()
	close(wp.jobQueue)
	wp.wg.Wait()
}

func (wp *ScrapeWorkerPool) worker(workerID int) {
	defer wp.wg.Done()
	atomic.AddInt64(&wp.activeWorkers, 1)
	defer atomic.AddInt64(&wp.activeWorkers, -1)

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				wp.logger.Info("Worker stopping - job queue closed", zap.Int("workerID", workerID))
				return
			}

			wp.logger.Debug("Worker scraping URL",
				zap.Int("workerID", workerID),
				zap.String("url", job.URL),
				zap.Duration("waitTime", time.Since(job.EnqueuedAt)))

			result := ScrapeJobResult{URL: job.URL}
			scraped, err := wp.scraper.Scrape(wp.ctx, job.URL)
			if err != nil {
				result.Err = err
			} else {
				result.Content = sv.ExtractMainContent(scraped.Content)
				result.Title = scraped.Title
			}
			job.Reply <- result

			atomic.AddInt64(&wp.totalJobsProcessed, 1)

		case <-wp.ctx.Done():
			wp.logger.Info("Worker stopping - context cancelled", zap.Int("workerID", workerID))
			return
		}
	}
}

// EnqueueJob submits a scrape job, failing fast when the queue stays full
// past the configured wait. A false return means the job was dropped.
func (wp *ScrapeWorkerPool) EnqueueJob(job ScrapeJob) bool {
	job.EnqueuedAt = time.Now()

	select {
	case wp.jobQueue <- job:
		atomic.AddInt64(&wp.totalJobsEnqueued, 1)
		return true
	case <-time.After(wp.maxTaskWaitTime):
		atomic.AddInt64(&wp.totalJobsDropped, 1)
		wp.logger.Error("Scrape job enqueue timeout",
			zap.String("url", job.URL),
			zap.Int("queueSize", len(wp.jobQueue)),
			zap.Int("queueCapacity", cap(wp.jobQueue)),
			zap.Int64("activeWorkers", atomic.LoadInt64(&wp.activeWorkers)))
		return false
	}
}

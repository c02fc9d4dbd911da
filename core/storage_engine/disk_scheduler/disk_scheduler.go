package diskscheduler

import (
	"context"
	"sync"

	diskmanager "burrowdb/core/storage_engine/disk_manager"
	pagemanager "burrowdb/core/storage_engine/page_manager"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// requestQueueDepth bounds the number of in-flight requests before Schedule
// blocks the caller.
const requestQueueDepth = 64

// Request is a single page read or write handed to the scheduler. Done is a
// one-shot completion channel: exactly one boolean is sent per request, true
// on success.
type Request struct {
	ID      string
	PageID  pagemanager.PageID
	IsWrite bool
	Data    []byte
	Done    chan bool
}

// NewRequest builds a Request with a fresh correlation ID and completion
// channel. Data is the caller's frame buffer; for reads it is filled in place.
func NewRequest(pageID pagemanager.PageID, isWrite bool, data []byte) *Request {
	return &Request{
		ID:      uuid.New().String(),
		PageID:  pageID,
		IsWrite: isWrite,
		Data:    data,
		Done:    make(chan bool, 1),
	}
}

// DiskScheduler accepts asynchronous page read/write requests and executes
// them against the disk manager on a background worker goroutine. Callers
// block on the request's Done channel when they need the result.
type DiskScheduler struct {
	dm       *diskmanager.DiskManager
	requests chan *Request
	stopChan chan struct{}
	wg       sync.WaitGroup
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewDiskScheduler starts the scheduler's worker goroutine. If
// writeRateBytesPerSec is positive, write throughput is throttled to that
// rate with a burst of one page.
func NewDiskScheduler(dm *diskmanager.DiskManager, writeRateBytesPerSec int64, logger *zap.Logger) *DiskScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DiskScheduler{
		dm:       dm,
		requests: make(chan *Request, requestQueueDepth),
		stopChan: make(chan struct{}),
		logger:   logger,
	}
	if writeRateBytesPerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(writeRateBytesPerSec), dm.GetPageSize())
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// Schedule enqueues a request for execution. The request completes by a
// single send on its Done channel.
func (s *DiskScheduler) Schedule(r *Request) {
	s.requests <- r
}

func (s *DiskScheduler) worker() {
	defer s.wg.Done()
	for {
		select {
		case r := <-s.requests:
			s.execute(r)
		case <-s.stopChan:
			// Drain whatever was queued before the stop signal.
			for {
				select {
				case r := <-s.requests:
					s.execute(r)
				default:
					return
				}
			}
		}
	}
}

func (s *DiskScheduler) execute(r *Request) {
	var err error
	if r.IsWrite {
		if s.limiter != nil {
			if werr := s.limiter.WaitN(context.Background(), len(r.Data)); werr != nil {
				s.logger.Error("rate limiter wait failed",
					zap.String("request_id", r.ID), zap.Error(werr))
			}
		}
		err = s.dm.WritePage(r.PageID, r.Data)
	} else {
		err = s.dm.ReadPage(r.PageID, r.Data)
	}
	if err != nil {
		s.logger.Error("disk request failed",
			zap.String("request_id", r.ID),
			zap.Int64("page_id", int64(r.PageID)),
			zap.Bool("is_write", r.IsWrite),
			zap.Error(err))
	}
	r.Done <- err == nil
}

// Close stops the worker after draining queued requests. Schedule must not be
// called concurrently with or after Close.
func (s *DiskScheduler) Close() {
	close(s.stopChan)
	s.wg.Wait()
}

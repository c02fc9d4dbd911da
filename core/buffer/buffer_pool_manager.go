package buffer

import (
	"context"
	"sync"

	diskscheduler "burrowdb/core/storage_engine/disk_scheduler"
	pagemanager "burrowdb/core/storage_engine/page_manager"
	internaltelemetry "burrowdb/internal/telemetry"

	"go.uber.org/zap"
)

// BufferPoolManager owns a fixed array of in-memory page frames and maps page
// IDs to frames. It pins, fetches, flushes, allocates and deletes pages,
// coordinating the LRU-K replacer and the disk scheduler.
//
// A single coarse mutex serializes all public operations on the pool
// metadata (page table, free list, pin counts, dirty flags, page IDs). Disk
// reads and writes block on the scheduler's completion channel while that
// mutex is held; this serializes I/O across the pool but keeps the page
// table consistent during victim replacement.
type BufferPoolManager struct {
	poolSize   int
	pages      []*pagemanager.Page
	pageTable  map[pagemanager.PageID]pagemanager.FrameID
	freeList   []pagemanager.FrameID
	replacer   *LRUKReplacer
	scheduler  *diskscheduler.DiskScheduler
	nextPageID pagemanager.PageID
	mu         sync.Mutex
	logger     *zap.Logger
	metrics    *internaltelemetry.BufferPoolMetrics
}

// NewBufferPoolManager creates a pool of poolSize frames of pageSize bytes
// each, replacing under LRU-K with history depth replacerK. All frames start
// on the free list. The metrics bundle may be nil.
func NewBufferPoolManager(poolSize int, pageSize int, replacerK int, scheduler *diskscheduler.DiskScheduler, logger *zap.Logger, metrics *internaltelemetry.BufferPoolMetrics) *BufferPoolManager {
	if poolSize <= 0 {
		panic(ErrInvalidPoolSize)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	bpm := &BufferPoolManager{
		poolSize:  poolSize,
		pages:     make([]*pagemanager.Page, poolSize),
		pageTable: make(map[pagemanager.PageID]pagemanager.FrameID, poolSize),
		freeList:  make([]pagemanager.FrameID, 0, poolSize),
		replacer:  NewLRUKReplacer(poolSize, replacerK),
		scheduler: scheduler,
		logger:    logger,
		metrics:   metrics,
	}
	for i := 0; i < poolSize; i++ {
		bpm.pages[i] = pagemanager.NewPage(pageSize)
		bpm.freeList = append(bpm.freeList, pagemanager.FrameID(i))
	}
	logger.Info("buffer pool initialized",
		zap.Int("pool_size", poolSize),
		zap.Int("page_size", pageSize),
		zap.Int("replacer_k", replacerK))
	return bpm
}

// NewPage allocates a fresh page ID, loads it into a frame and returns the
// pinned frame. ErrNoFrameAvailable is returned when every frame is pinned.
func (bpm *BufferPoolManager) NewPage() (*pagemanager.Page, pagemanager.PageID, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok := bpm.availableFrameLocked()
	if !ok {
		return nil, pagemanager.InvalidPageID, ErrNoFrameAvailable
	}

	p := bpm.pages[frameID]
	if p.IsDirty() {
		bpm.writeBackLocked(p)
	}

	oldPageID := p.GetPageID()
	p.Reset()

	newPageID := bpm.allocatePageLocked()
	p.SetPageID(newPageID)
	p.SetPinCount(1)
	p.SetDirty(false)

	if oldPageID != pagemanager.InvalidPageID {
		delete(bpm.pageTable, oldPageID)
	}
	bpm.pageTable[newPageID] = frameID

	bpm.replacer.RecordAccess(frameID, AccessUnknown)
	bpm.replacer.SetEvictable(frameID, false)

	if bpm.metrics != nil {
		bpm.metrics.PinnedUpDownCounter.Add(context.Background(), 1)
	}
	bpm.logger.Debug("new page",
		zap.Int64("page_id", int64(newPageID)),
		zap.Int("frame_id", int(frameID)))

	return p, newPageID, nil
}

// FetchPage returns the frame holding pageID, reading it from disk on a
// miss. On a hit the existing frame is returned with its pin count left
// unchanged; only a miss pins the frame. ErrNoFrameAvailable is returned
// when the page is not resident and every frame is pinned.
func (bpm *BufferPoolManager) FetchPage(pageID pagemanager.PageID, accessType AccessType) (*pagemanager.Page, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	if frameID, ok := bpm.pageTable[pageID]; ok {
		if bpm.metrics != nil {
			bpm.metrics.HitsCounter.Add(context.Background(), 1)
		}
		return bpm.pages[frameID], nil
	}
	if bpm.metrics != nil {
		bpm.metrics.MissesCounter.Add(context.Background(), 1)
	}

	frameID, ok := bpm.availableFrameLocked()
	if !ok {
		return nil, ErrNoFrameAvailable
	}

	p := bpm.pages[frameID]
	if p.IsDirty() {
		bpm.writeBackLocked(p)
	}

	oldPageID := p.GetPageID()
	p.Reset()
	p.SetPageID(pageID)
	p.SetPinCount(1)
	p.SetDirty(false)

	readReq := diskscheduler.NewRequest(pageID, false, p.GetData())
	bpm.scheduler.Schedule(readReq)
	if !<-readReq.Done {
		bpm.logger.Fatal("requested page has not been fetched from disk",
			zap.Int64("page_id", int64(pageID)),
			zap.String("request_id", readReq.ID))
	}

	if oldPageID != pagemanager.InvalidPageID {
		delete(bpm.pageTable, oldPageID)
	}
	bpm.pageTable[pageID] = frameID

	bpm.replacer.RecordAccess(frameID, accessType)
	bpm.replacer.SetEvictable(frameID, false)

	if bpm.metrics != nil {
		bpm.metrics.PinnedUpDownCounter.Add(context.Background(), 1)
	}
	bpm.logger.Debug("fetched page from disk",
		zap.Int64("page_id", int64(pageID)),
		zap.Int("frame_id", int(frameID)))

	return p, nil
}

// UnpinPage decrements the pin count of a resident page and, if it reaches
// zero, hands the frame to the replacer as an eviction candidate. The dirty
// flag is sticky: once set it stays set until the page is written back.
// Returns true iff a decrement happened.
func (bpm *BufferPoolManager) UnpinPage(pageID pagemanager.PageID, isDirty bool, accessType AccessType) bool {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		return false
	}

	p := bpm.pages[frameID]
	if isDirty {
		p.SetDirty(true)
	}
	if p.GetPinCount() == 0 {
		return false
	}

	p.Unpin()
	if p.GetPinCount() == 0 {
		bpm.replacer.SetEvictable(frameID, true)
	}
	if bpm.metrics != nil {
		bpm.metrics.PinnedUpDownCounter.Add(context.Background(), -1)
	}
	return true
}

// FlushPage writes a resident page to disk regardless of its dirty flag and
// clears the flag. Returns false when the page is not resident.
func (bpm *BufferPoolManager) FlushPage(pageID pagemanager.PageID) bool {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		return false
	}

	p := bpm.pages[frameID]
	bpm.writeBackLocked(p)
	return true
}

// FlushAllPages writes every resident page to disk and clears its dirty
// flag. Frames holding no page are skipped.
func (bpm *BufferPoolManager) FlushAllPages() {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	for _, p := range bpm.pages {
		if p.GetPageID() == pagemanager.InvalidPageID {
			continue
		}
		bpm.writeBackLocked(p)
	}
}

// DeletePage drops a resident page from the pool and returns its frame to
// the free list. Deleting a non-resident page succeeds vacuously; deleting a
// pinned page fails.
func (bpm *BufferPoolManager) DeletePage(pageID pagemanager.PageID) bool {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		return true
	}

	p := bpm.pages[frameID]
	if p.GetPinCount() > 0 {
		return false
	}

	bpm.freeList = append(bpm.freeList, frameID)
	bpm.replacer.Remove(frameID)
	p.Reset()
	delete(bpm.pageTable, pageID)
	bpm.deallocatePage(pageID)

	bpm.logger.Debug("deleted page",
		zap.Int64("page_id", int64(pageID)),
		zap.Int("frame_id", int(frameID)))
	return true
}

// AllocatePage hands out the next page ID.
func (bpm *BufferPoolManager) AllocatePage() pagemanager.PageID {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()
	return bpm.allocatePageLocked()
}

func (bpm *BufferPoolManager) allocatePageLocked() pagemanager.PageID {
	id := bpm.nextPageID
	bpm.nextPageID++
	return id
}

// deallocatePage is the reclamation hook for deleted page IDs. IDs are
// handed out by a monotonic counter and are not reused.
func (bpm *BufferPoolManager) deallocatePage(pageID pagemanager.PageID) {
	_ = pageID
}

// availableFrameLocked obtains a frame for a new resident page: the front of
// the free list when non-empty, otherwise a victim from the replacer.
// Callers must hold bpm.mu.
func (bpm *BufferPoolManager) availableFrameLocked() (pagemanager.FrameID, bool) {
	if len(bpm.freeList) > 0 {
		frameID := bpm.freeList[0]
		bpm.freeList = bpm.freeList[1:]
		return frameID, true
	}
	frameID, ok := bpm.replacer.Evict()
	if !ok {
		return 0, false
	}
	if bpm.metrics != nil {
		bpm.metrics.EvictionsCounter.Add(context.Background(), 1)
	}
	bpm.logger.Debug("evicted frame",
		zap.Int("frame_id", int(frameID)),
		zap.Int64("old_page_id", int64(bpm.pages[frameID].GetPageID())))
	return frameID, true
}

// writeBackLocked writes the frame's current contents through the disk
// scheduler, blocking on completion, and clears the dirty flag. A failed
// write while the pool latch is held means the in-memory state would diverge
// from disk, so it is fatal. Callers must hold bpm.mu.
func (bpm *BufferPoolManager) writeBackLocked(p *pagemanager.Page) {
	writeReq := diskscheduler.NewRequest(p.GetPageID(), true, p.GetData())
	bpm.scheduler.Schedule(writeReq)
	if !<-writeReq.Done {
		bpm.logger.Fatal("changed page has not been written to disk",
			zap.Int64("page_id", int64(p.GetPageID())),
			zap.String("request_id", writeReq.ID))
	}
	p.SetDirty(false)
	if bpm.metrics != nil {
		bpm.metrics.FlushesCounter.Add(context.Background(), 1)
	}
}

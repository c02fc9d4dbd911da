package buffer

import (
	"fmt"
	"sort"
	"sync"

	pagemanager "burrowdb/core/storage_engine/page_manager"
)

// AccessType categorizes the access that caused a page to be touched. The
// replacement policy currently ignores it; it is carried so access patterns
// can be incorporated later without changing call sites.
type AccessType int

const (
	AccessUnknown AccessType = iota
	AccessLookup
	AccessScan
	AccessIndex
)

// lruKNode tracks the access history for one frame: a bounded FIFO of the
// last up to k access timestamps, oldest at the front.
type lruKNode struct {
	frameID     pagemanager.FrameID
	history     []uint64
	isEvictable bool
}

// LRUKReplacer selects eviction victims under the LRU-K policy.
//
// The backward k-distance of a frame is the difference between the current
// timestamp and the timestamp of its kth most recent access. A frame with
// fewer than k recorded accesses has infinite backward k-distance and is
// preferred over any frame with a finite one. Among frames with infinite
// distance the one whose earliest access is oldest wins; among frames with
// finite distance the one with the largest distance wins. Ties break to the
// lowest frame ID.
type LRUKReplacer struct {
	nodeStore        map[pagemanager.FrameID]*lruKNode
	currentTimestamp uint64
	currSize         int
	numFrames        int
	k                int
	mu               sync.Mutex
}

// NewLRUKReplacer creates a replacer that tracks at most numFrames frames
// with history depth k.
func NewLRUKReplacer(numFrames int, k int) *LRUKReplacer {
	if numFrames <= 0 {
		panic(ErrInvalidPoolSize)
	}
	if k < 1 {
		panic(ErrInvalidReplacerK)
	}
	return &LRUKReplacer{
		nodeStore: make(map[pagemanager.FrameID]*lruKNode, numFrames),
		numFrames: numFrames,
		k:         k,
	}
}

// Evict selects the evictable frame with the largest backward k-distance,
// removes it from the replacer, and returns it. The second return value is
// false when no frame is evictable.
func (r *LRUKReplacer) Evict() (pagemanager.FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currSize == 0 {
		return 0, false
	}

	var victim pagemanager.FrameID
	var maxDist uint64
	found := false
	distInf := false

	for _, id := range r.sortedFrameIDs() {
		node := r.nodeStore[id]
		if !node.isEvictable {
			continue
		}
		dist := r.currentTimestamp - node.history[0]
		if len(node.history) < r.k {
			if !distInf || dist > maxDist {
				victim = id
				maxDist = dist
				distInf = true
				found = true
			}
		} else if !distInf && dist > maxDist {
			victim = id
			maxDist = dist
			found = true
		}
	}

	if !found {
		return 0, false
	}

	delete(r.nodeStore, victim)
	r.currSize--
	return victim, true
}

// RecordAccess notes an access to the given frame at the current timestamp.
// A frame seen for the first time starts out evictable with a single history
// entry. Recording a brand-new frame when the replacer is already tracking
// its full capacity is a caller bug and panics.
func (r *LRUKReplacer) RecordAccess(frameID pagemanager.FrameID, accessType AccessType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodeStore[frameID]
	if !ok {
		if len(r.nodeStore) >= r.numFrames {
			panic(fmt.Sprintf("lru-k replacer: frame %d would exceed capacity %d", frameID, r.numFrames))
		}
		node = &lruKNode{
			frameID:     frameID,
			history:     []uint64{r.currentTimestamp},
			isEvictable: true,
		}
		r.nodeStore[frameID] = node
		r.currSize++
	} else {
		node.history = append(node.history, r.currentTimestamp)
		if len(node.history) > r.k {
			node.history = node.history[1:]
		}
	}
	r.currentTimestamp++
}

// SetEvictable toggles whether the frame may be chosen as a victim. The
// replacer's size counts evictable frames only. Unknown frames and no-op
// transitions are ignored.
func (r *LRUKReplacer) SetEvictable(frameID pagemanager.FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodeStore[frameID]
	if !ok {
		return
	}
	if node.isEvictable == evictable {
		return
	}
	node.isEvictable = evictable
	if evictable {
		r.currSize++
	} else {
		r.currSize--
	}
}

// Remove erases a frame's access history. Only evictable frames may be
// removed; removing a pinned frame is silently ignored.
func (r *LRUKReplacer) Remove(frameID pagemanager.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodeStore[frameID]
	if !ok {
		return
	}
	if !node.isEvictable {
		return
	}
	delete(r.nodeStore, frameID)
	r.currSize--
}

// Size returns the number of evictable frames.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}

// sortedFrameIDs returns the tracked frame IDs in ascending order so that
// victim selection is deterministic. Callers must hold r.mu.
func (r *LRUKReplacer) sortedFrameIDs() []pagemanager.FrameID {
	ids := make([]pagemanager.FrameID, 0, len(r.nodeStore))
	for id := range r.nodeStore {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

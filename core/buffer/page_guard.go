package buffer

import (
	pagemanager "burrowdb/core/storage_engine/page_manager"
)

// BasicPageGuard is a scoped handle over a pinned page. Dropping the guard
// unpins the page with the dirty status observed through the guard. A guard
// must be dropped exactly once; Drop on an already-dropped guard is a no-op.
// Guards are moved, never copied: use Move to transfer ownership.
type BasicPageGuard struct {
	bpm     *BufferPoolManager
	page    *pagemanager.Page
	isDirty bool
}

// FetchPageBasic fetches pageID and wraps the pinned frame in a guard.
func (bpm *BufferPoolManager) FetchPageBasic(pageID pagemanager.PageID) (BasicPageGuard, error) {
	p, err := bpm.FetchPage(pageID, AccessUnknown)
	if err != nil {
		return BasicPageGuard{}, err
	}
	return BasicPageGuard{bpm: bpm, page: p}, nil
}

// NewPageGuarded allocates a new page and wraps the pinned frame in a guard.
func (bpm *BufferPoolManager) NewPageGuarded() (BasicPageGuard, pagemanager.PageID, error) {
	p, pageID, err := bpm.NewPage()
	if err != nil {
		return BasicPageGuard{}, pagemanager.InvalidPageID, err
	}
	return BasicPageGuard{bpm: bpm, page: p}, pageID, nil
}

// PageID returns the guarded page's ID, or InvalidPageID after Drop.
func (g *BasicPageGuard) PageID() pagemanager.PageID {
	if g.page == nil {
		return pagemanager.InvalidPageID
	}
	return g.page.GetPageID()
}

// GetData returns the page contents for reading.
func (g *BasicPageGuard) GetData() []byte {
	if g.page == nil {
		return nil
	}
	return g.page.GetData()
}

// GetDataMut returns the page contents for writing and marks the guard
// dirty, so the page is written back before its frame is reused.
func (g *BasicPageGuard) GetDataMut() []byte {
	if g.page == nil {
		return nil
	}
	g.isDirty = true
	return g.page.GetData()
}

// Move transfers ownership of the pinned page to the returned guard and
// invalidates the receiver.
func (g *BasicPageGuard) Move() BasicPageGuard {
	moved := *g
	g.bpm = nil
	g.page = nil
	g.isDirty = false
	return moved
}

// Drop unpins the page with the observed dirty status and invalidates the
// guard.
func (g *BasicPageGuard) Drop() {
	if g.page == nil {
		return
	}
	g.bpm.UnpinPage(g.page.GetPageID(), g.isDirty, AccessUnknown)
	g.bpm = nil
	g.page = nil
	g.isDirty = false
}

// UpgradeRead acquires a shared latch on the page contents and converts this
// guard into a ReadPageGuard. The receiver is invalidated; the pin is
// carried over.
func (g *BasicPageGuard) UpgradeRead() ReadPageGuard {
	g.page.RLatch()
	return ReadPageGuard{guard: g.Move()}
}

// UpgradeWrite acquires an exclusive latch on the page contents and converts
// this guard into a WritePageGuard. The receiver is invalidated; the pin is
// carried over.
func (g *BasicPageGuard) UpgradeWrite() WritePageGuard {
	g.page.WLatch()
	return WritePageGuard{guard: g.Move()}
}

// ReadPageGuard holds a pinned page together with a shared latch on its
// contents for the guard's lifetime.
type ReadPageGuard struct {
	guard BasicPageGuard
}

// FetchPageRead fetches pageID and latches its contents for shared access.
func (bpm *BufferPoolManager) FetchPageRead(pageID pagemanager.PageID) (ReadPageGuard, error) {
	p, err := bpm.FetchPage(pageID, AccessUnknown)
	if err != nil {
		return ReadPageGuard{}, err
	}
	p.RLatch()
	return ReadPageGuard{guard: BasicPageGuard{bpm: bpm, page: p}}, nil
}

// PageID returns the guarded page's ID, or InvalidPageID after Drop.
func (g *ReadPageGuard) PageID() pagemanager.PageID { return g.guard.PageID() }

// GetData returns the page contents for reading.
func (g *ReadPageGuard) GetData() []byte { return g.guard.GetData() }

// Move transfers ownership to the returned guard and invalidates the
// receiver.
func (g *ReadPageGuard) Move() ReadPageGuard {
	return ReadPageGuard{guard: g.guard.Move()}
}

// Drop releases the shared latch and unpins the page.
func (g *ReadPageGuard) Drop() {
	if g.guard.page == nil {
		return
	}
	g.guard.page.RUnlatch()
	g.guard.Drop()
}

// WritePageGuard holds a pinned page together with an exclusive latch on its
// contents for the guard's lifetime. Dropping it marks the page dirty.
type WritePageGuard struct {
	guard BasicPageGuard
}

// FetchPageWrite fetches pageID and latches its contents for exclusive
// access.
func (bpm *BufferPoolManager) FetchPageWrite(pageID pagemanager.PageID) (WritePageGuard, error) {
	p, err := bpm.FetchPage(pageID, AccessUnknown)
	if err != nil {
		return WritePageGuard{}, err
	}
	p.WLatch()
	return WritePageGuard{guard: BasicPageGuard{bpm: bpm, page: p}}, nil
}

// PageID returns the guarded page's ID, or InvalidPageID after Drop.
func (g *WritePageGuard) PageID() pagemanager.PageID { return g.guard.PageID() }

// GetData returns the page contents for reading.
func (g *WritePageGuard) GetData() []byte { return g.guard.GetData() }

// GetDataMut returns the page contents for writing.
func (g *WritePageGuard) GetDataMut() []byte { return g.guard.GetDataMut() }

// Move transfers ownership to the returned guard and invalidates the
// receiver.
func (g *WritePageGuard) Move() WritePageGuard {
	return WritePageGuard{guard: g.guard.Move()}
}

// Drop releases the exclusive latch and unpins the page as dirty.
func (g *WritePageGuard) Drop() {
	if g.guard.page == nil {
		return
	}
	g.guard.isDirty = true
	g.guard.page.WUnlatch()
	g.guard.Drop()
}

package buffer

import (
	"bytes"
	"sync"
	"testing"

	pagemanager "burrowdb/core/storage_engine/page_manager"

	"github.com/stretchr/testify/require"
)

func TestPageGuard_WriteReadRoundTrip(t *testing.T) {
	bpm, dataFile := setupBufferPool(t, 2, 2)

	guard, id, err := bpm.NewPageGuarded()
	require.NoError(t, err)
	require.Equal(t, id, guard.PageID())

	w := guard.UpgradeWrite()
	copy(w.GetDataMut(), "guarded payload")
	w.Drop()

	r, err := bpm.FetchPageRead(id)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(r.GetData(), []byte("guarded payload")))
	r.Drop()

	// The write guard unpinned the page dirty, so a flush persists it.
	bpm.FlushAllPages()
	require.True(t, bytes.HasPrefix(pageBytes(t, dataFile, id), []byte("guarded payload")))
}

func TestPageGuard_DropReleasesPin(t *testing.T) {
	bpm, _ := setupBufferPool(t, 2, 2)

	guard, id, err := bpm.NewPageGuarded()
	require.NoError(t, err)

	require.False(t, bpm.DeletePage(id), "page is pinned while the guard lives")

	guard.Drop()
	require.True(t, bpm.DeletePage(id))
}

func TestPageGuard_DoubleDropIsNoOp(t *testing.T) {
	bpm, _ := setupBufferPool(t, 2, 2)

	guard, id, err := bpm.NewPageGuarded()
	require.NoError(t, err)

	guard.Drop()
	guard.Drop()
	require.Equal(t, pagemanager.InvalidPageID, guard.PageID())
	require.Nil(t, guard.GetData())

	// Exactly one unpin happened: the page is deletable, and a second
	// decrement did not underflow anything.
	require.True(t, bpm.DeletePage(id))
}

func TestPageGuard_MoveTransfersOwnership(t *testing.T) {
	bpm, _ := setupBufferPool(t, 2, 2)

	guard, id, err := bpm.NewPageGuarded()
	require.NoError(t, err)

	moved := guard.Move()
	require.Equal(t, pagemanager.InvalidPageID, guard.PageID())
	require.Equal(t, id, moved.PageID())

	// Dropping the hollowed-out original must not unpin.
	guard.Drop()
	require.False(t, bpm.DeletePage(id))

	moved.Drop()
	require.True(t, bpm.DeletePage(id))
}

// TestPageGuard_ConcurrentReaders verifies that shared latches admit
// concurrent read guards over the same page.
func TestPageGuard_ConcurrentReaders(t *testing.T) {
	bpm, _ := setupBufferPool(t, 2, 2)

	guard, id, err := bpm.NewPageGuarded()
	require.NoError(t, err)
	w := guard.UpgradeWrite()
	copy(w.GetDataMut(), "shared")
	w.Drop()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := bpm.FetchPageRead(id)
			if err != nil {
				t.Errorf("FetchPageRead failed: %v", err)
				return
			}
			if !bytes.HasPrefix(r.GetData(), []byte("shared")) {
				t.Error("unexpected page contents under read guard")
			}
			r.Drop()
		}()
	}
	wg.Wait()
}

func TestPageGuard_ReadGuardBlocksWriter(t *testing.T) {
	bpm, _ := setupBufferPool(t, 2, 2)

	guard, id, err := bpm.NewPageGuarded()
	require.NoError(t, err)
	r := guard.UpgradeRead()

	acquired := make(chan struct{})
	go func() {
		w, err := bpm.FetchPageWrite(id)
		if err != nil {
			t.Errorf("FetchPageWrite failed: %v", err)
			close(acquired)
			return
		}
		close(acquired)
		w.Drop()
	}()

	select {
	case <-acquired:
		t.Fatal("write guard acquired while a read guard held the latch")
	default:
	}

	r.Drop()
	<-acquired
}

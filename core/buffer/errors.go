package buffer

import "errors"

// --- Error Definitions ---

var (
	ErrNoFrameAvailable = errors.New("buffer pool is full and no frames can be evicted")
	ErrInvalidPoolSize  = errors.New("buffer pool size must be positive")
	ErrInvalidReplacerK = errors.New("replacer k must be at least 1")
)

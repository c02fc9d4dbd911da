package diskmanager

import "errors"

// --- Error Definitions ---

var (
	ErrIO             = errors.New("i/o error")
	ErrFileNotOpen    = errors.New("database file is not open")
	ErrInvalidPageID  = errors.New("invalid page id")
	ErrShortRead      = errors.New("short read for page")
	ErrBufferSize     = errors.New("page buffer size does not match disk manager page size")
	ErrDBFileNotFound = errors.New("database file not found")
)

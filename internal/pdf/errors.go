package pdf

import "errors"

var (
	ErrCorrupt        = errors.New("pdf is corrupt or unreadable")
	ErrEncrypted      = errors.New("pdf is encrypted")
	ErrEmptySelection = errors.New("page selection is empty")
	ErrPageOutOfRange = errors.New("page out of range")
	ErrRenderFailed   = errors.New("page render failed")
	ErrClosed         = errors.New("pdf handle closed")
)

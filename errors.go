package sheetqueue

import "errors"

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrDuplicateID     = errors.New("duplicate operation id")
	ErrClientClosed    = errors.New("client is closed")
	ErrAlreadySyncing  = errors.New("operation is already syncing")
	ErrUnknownSheetKey = errors.New("unknown sheet key")
	ErrCorruptState    = errors.New("corrupt persisted queue")
	ErrAppendRejected  = errors.New("append rejected by remote")
	ErrOffline         = errors.New("offline")
)

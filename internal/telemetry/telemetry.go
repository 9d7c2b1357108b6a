// Package telemetry carries structured operation events to a replaceable sink.
package telemetry

import (
	"context"
	"log/slog"
	"time"
)

// Operation names emitted by the drive services and storage providers.
const (
	OpFolderCreate  = "folder.create"
	OpFolderRename  = "folder.rename"
	OpFolderDelete  = "folder.delete"
	OpFolderRestore = "folder.restore"
	OpFolderPurge   = "folder.purge"
	OpFolderShare   = "folder.share"
	OpFolderUnshare = "folder.unshare"

	OpFileUpload   = "file.upload"
	OpFileDownload = "file.download"
	OpFileRename   = "file.rename"
	OpFileDelete   = "file.delete"
	OpFileRestore  = "file.restore"
	OpFilePurge    = "file.purge"
	OpFileShare    = "file.share"
	OpFileUnshare  = "file.unshare"

	OpPublicDownload = "public.download"

	OpStorageUpload   = "storage.upload"
	OpStorageDownload = "storage.download"
	OpStorageDelete   = "storage.delete"
)

// Event is one completed operation.
type Event struct {
	Operation string
	OwnerID   string
	EntityIDs []string
	Provider  string
	Bytes     int64
	Duration  time.Duration
	Err       error
}

// Success reports whether the operation completed without error.
func (e Event) Success() bool {
	return e.Err == nil
}

// Emitter receives events. Implementations must be safe for concurrent use
// and must not block the caller on slow transports.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// Record stamps the duration since start and the outcome, then emits.
func Record(ctx context.Context, emitter Emitter, event Event, start time.Time, err error) {
	event.Duration = time.Since(start)
	event.Err = err
	emitter.Emit(ctx, event)
}

// SlogEmitter writes events as structured log records. A log shipper tailing
// the process output forwards them to aggregation.
type SlogEmitter struct {
	logger *slog.Logger
}

func NewSlogEmitter(logger *slog.Logger) *SlogEmitter {
	return &SlogEmitter{logger: logger.With("component", "telemetry")}
}

func (e *SlogEmitter) Emit(ctx context.Context, event Event) {
	attrs := []slog.Attr{
		slog.String("operation", event.Operation),
		slog.Bool("success", event.Success()),
		slog.Int64("duration_ms", event.Duration.Milliseconds()),
	}
	if event.OwnerID != "" {
		attrs = append(attrs, slog.String("owner_id", event.OwnerID))
	}
	if len(event.EntityIDs) > 0 {
		attrs = append(attrs, slog.Any("entity_ids", event.EntityIDs))
	}
	if event.Provider != "" {
		attrs = append(attrs, slog.String("provider", event.Provider))
	}
	if event.Bytes > 0 {
		attrs = append(attrs, slog.Int64("bytes", event.Bytes))
	}

	level := slog.LevelInfo
	if event.Err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}

	e.logger.LogAttrs(ctx, level, "event", attrs...)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}

package storage

import (
	"context"
	"io"
	"sync"
	"time"

	"cloudvault/internal/telemetry"
)

// instrumented emits a telemetry event for every upload, download and delete.
type instrumented struct {
	Provider
	emitter telemetry.Emitter
}

// Instrument wraps p so its byte operations are reported to emitter.
func Instrument(p Provider, emitter telemetry.Emitter) Provider {
	return &instrumented{Provider: p, emitter: emitter}
}

func (i *instrumented) Upload(ctx context.Context, originalName string, content io.Reader, mimeType, ownerID string) (*UploadResult, error) {
	start := time.Now()
	res, err := i.Provider.Upload(ctx, originalName, content, mimeType, ownerID)

	event := telemetry.Event{Operation: telemetry.OpStorageUpload, OwnerID: ownerID, Provider: string(i.Kind())}
	if res != nil {
		event.EntityIDs = []string{res.Key}
		event.Bytes = res.Size
	}
	telemetry.Record(ctx, i.emitter, event, start, err)
	return res, err
}

// Download reports when the stream is closed, so the event carries the bytes actually read.
func (i *instrumented) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := i.Provider.Download(ctx, key)
	event := telemetry.Event{Operation: telemetry.OpStorageDownload, EntityIDs: []string{key}, Provider: string(i.Kind())}
	if err != nil {
		telemetry.Record(ctx, i.emitter, event, start, err)
		return nil, err
	}
	return &reportingReader{rc: rc, ctx: ctx, emitter: i.emitter, event: event, start: start}, nil
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.Provider.Delete(ctx, key)
	telemetry.Record(ctx, i.emitter, telemetry.Event{
		Operation: telemetry.OpStorageDelete,
		EntityIDs: []string{key},
		Provider:  string(i.Kind()),
	}, start, err)
	return err
}

// Close forwards to the wrapped provider when it holds resources.
func (i *instrumented) Close() error {
	if c, ok := i.Provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type reportingReader struct {
	rc      io.ReadCloser
	ctx     context.Context
	emitter telemetry.Emitter
	event   telemetry.Event
	start   time.Time
	readErr error
	once    sync.Once
}

func (r *reportingReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	r.event.Bytes += int64(n)
	if err != nil && err != io.EOF {
		r.readErr = err
	}
	return n, err
}

func (r *reportingReader) Close() error {
	err := r.rc.Close()
	r.once.Do(func() {
		telemetry.Record(r.ctx, r.emitter, r.event, r.start, r.readErr)
	})
	return err
}

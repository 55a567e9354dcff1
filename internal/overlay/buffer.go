package overlay

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Buffer holds the most recent JPEG frame. Readers wait for a newer frame
// instead of polling the camera.
type Buffer struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	updated chan struct{}
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{updated: make(chan struct{})}
}

// Encode compresses img as JPEG and publishes it.
func (b *Buffer) Encode(img gocv.Mat) error {
	if img.Empty() {
		return fmt.Errorf("empty frame")
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	b.Set(append([]byte(nil), buf.GetBytes()...))
	return nil
}

// Set publishes an already encoded frame.
func (b *Buffer) Set(jpeg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jpeg = jpeg
	b.seq++
	close(b.updated)
	b.updated = make(chan struct{})
}

// Latest returns the newest frame and its sequence number. Sequence 0
// means no frame yet.
func (b *Buffer) Latest() ([]byte, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jpeg, b.seq
}

// Next blocks until a frame newer than after exists or ctx is done.
func (b *Buffer) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		b.mu.Lock()
		if b.seq > after {
			jpeg, seq := b.jpeg, b.seq
			b.mu.Unlock()
			return jpeg, seq, nil
		}
		wait := b.updated
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-wait:
		}
	}
}

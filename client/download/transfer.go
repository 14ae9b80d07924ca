package download

import (
	"io"
	"sync"
	"sync/atomic"
)

// ProgressListener is told about every chunk a transfer moves. total is
// the declared size, -1 when unknown.
type ProgressListener interface {
	OnTransferProgress(chunk, transferred, total int64, name string)
}

// ProgressFunc adapts a function to a [ProgressListener]. Use a pointer
// to it when it must later be removed: listeners are compared by identity.
type ProgressFunc func(chunk, transferred, total int64, name string)

func (f *ProgressFunc) OnTransferProgress(chunk, transferred, total int64, name string) {
	(*f)(chunk, transferred, total, name)
}

// Transfer carries the cancellation flag and listener set of one upload
// or download. Its methods are safe for concurrent use and a nil
// *Transfer is never cancelled and has no listeners.
type Transfer struct {
	cancelled atomic.Bool

	mu        sync.Mutex
	listeners map[ProgressListener]struct{}
}

// NewTransfer returns a Transfer notifying listeners.
func NewTransfer(listeners ...ProgressListener) *Transfer {
	t := &Transfer{listeners: make(map[ProgressListener]struct{})}
	for _, l := range listeners {
		t.listeners[l] = struct{}{}
	}

	return t
}

// Cancel flags the transfer. The copy loop stops before its next write.
// It reports true only for the call that actually cancelled.
func (t *Transfer) Cancel() bool {
	if t == nil {
		return false
	}
	return t.cancelled.CompareAndSwap(false, true)
}

// Cancelled reports whether Cancel has been called.
func (t *Transfer) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}

// AddProgressListener registers l. Adding a listener twice has no effect.
// l must be comparable.
func (t *Transfer) AddProgressListener(l ProgressListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listeners == nil {
		t.listeners = make(map[ProgressListener]struct{})
	}
	t.listeners[l] = struct{}{}
}

// RemoveProgressListener unregisters l.
func (t *Transfer) RemoveProgressListener(l ProgressListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.listeners, l)
}

// notify calls every listener with a snapshot taken under the lock, so
// listeners may add or remove listeners, or cancel, from the callback.
func (t *Transfer) notify(chunk, transferred, total int64, name string) {
	if t == nil {
		return
	}

	t.mu.Lock()
	snapshot := make([]ProgressListener, 0, len(t.listeners))
	for l := range t.listeners {
		snapshot = append(snapshot, l)
	}
	t.mu.Unlock()

	for _, l := range snapshot {
		l.OnTransferProgress(chunk, transferred, total, name)
	}
}

// progressReader meters an outgoing body through a Transfer.
type progressReader struct {
	r           io.ReadCloser
	t           *Transfer
	name        string
	total       int64
	transferred int64
}

// NewProgressReader wraps r so every chunk read is reported to t and a
// cancelled t fails the next read with [ErrCancelled]. A size of zero is
// reported as an unknown total.
func NewProgressReader(r io.ReadCloser, size int64, name string, t *Transfer) io.ReadCloser {
	total := size
	if total == 0 {
		total = -1
	}

	return &progressReader{r: r, t: t, name: name, total: total}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	if pr.t.Cancelled() {
		return 0, ErrCancelled
	}

	if len(p) > ChunkSize {
		p = p[:ChunkSize]
	}

	n, err := pr.r.Read(p)
	if n > 0 {
		pr.transferred += int64(n)
		pr.t.notify(int64(n), pr.transferred, pr.total, pr.name)
	}

	return n, err
}

func (pr *progressReader) Close() error {
	return pr.r.Close()
}

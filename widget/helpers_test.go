package widget

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/daikurogo/ipywidgets/types"
)

// fakeFile is a File whose read can be held back until release is closed.
type fakeFile struct {
	meta    types.FileMetadata
	content []byte
	err     error
	release chan struct{}
	// ignoreCtx keeps a held read blocked even after cancellation
	ignoreCtx bool
	started   chan struct{}
	once    sync.Once
	done    func(name string)
}

func newFakeFile(name string, content []byte) *fakeFile {
	return &fakeFile{
		meta: types.FileMetadata{
			Name:         name,
			Type:         "application/octet-stream",
			Size:         int64(len(content)),
			LastModified: 1700000000000,
		},
		content: content,
		started: make(chan struct{}),
	}
}

func (f *fakeFile) held() *fakeFile {
	f.release = make(chan struct{})
	return f
}

func (f *fakeFile) stubborn() *fakeFile {
	f.release = make(chan struct{})
	f.ignoreCtx = true
	return f
}

func (f *fakeFile) failing(err error) *fakeFile {
	f.err = err
	return f
}

func (f *fakeFile) Metadata() types.FileMetadata {
	return f.meta
}

func (f *fakeFile) Read(ctx context.Context) ([]byte, error) {
	f.once.Do(func() { close(f.started) })
	if f.release != nil && f.ignoreCtx {
		<-f.release
	} else if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.done != nil {
		f.done(f.meta.Name)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}

func bytesOf(n int, b byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

type syncRecorder struct {
	calls  atomic.Int32
	mu     sync.Mutex
	frames [][]byte
}

func (r *syncRecorder) Sync(_ context.Context, frame []byte) error {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	return nil
}

func (r *syncRecorder) last(t *testing.T) types.UploadState {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.frames)
	msg, buffers, err := DecodeFrame(r.frames[len(r.frames)-1])
	require.NoError(t, err)
	st, err := DecodeState(msg, buffers)
	require.NoError(t, err)
	return st
}

func asFiles(files ...*fakeFile) []File {
	out := make([]File, len(files))
	for i, f := range files {
		out[i] = f
	}
	return out
}

package widget

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daikurogo/ipywidgets/types"
)

func waitStarted(t *testing.T, files ...*fakeFile) {
	t.Helper()
	for _, f := range files {
		select {
		case <-f.started:
		case <-time.After(2 * time.Second):
			t.Fatalf("read of %s never started", f.meta.Name)
		}
	}
}

func TestSelectCommitsBatch(t *testing.T) {
	m := NewModel("m1")
	m.Set(types.UploadPatch{Counter: types.Ptr(int64(3))})
	rec := &syncRecorder{}
	m.AddSyncer(rec)
	p := NewPipeline(m)

	a := newFakeFile("A", bytesOf(10, 'a'))
	b := newFakeFile("B", bytesOf(20, 'b'))
	require.NoError(t, p.Select(context.Background(), asFiles(a, b)))

	st := m.State()
	assert.Equal(t, int64(5), st.Counter)
	assert.Equal(t, 2, st.FileCount)
	assert.Equal(t, []types.FileMetadata{a.meta, b.meta}, st.Metadata)
	assert.Equal(t, [][]byte{a.content, b.content}, st.Data)
	assert.Empty(t, st.Error)
	assert.Equal(t, StateIdle, p.State())

	assert.EqualValues(t, 1, rec.calls.Load())
	assert.Equal(t, int64(5), rec.last(t).Counter)
}

func TestCommitIsASingleChangeEvent(t *testing.T) {
	m := NewModel("m1")
	p := NewPipeline(m)
	var events [][]string
	m.On(EventChange, func(ev ChangeEvent) {
		assert.Len(t, ev.State.Metadata, ev.State.FileCount)
		assert.Len(t, ev.State.Data, ev.State.FileCount)
		events = append(events, ev.Keys)
	})

	require.NoError(t, p.Select(context.Background(), asFiles(newFakeFile("A", []byte("x")))))
	require.Len(t, events, 1)
	assert.ElementsMatch(t, []string{types.AttrCounter, types.AttrFileCount, types.AttrMetadata, types.AttrData}, events[0])
}

func TestSelectKeepsSelectionOrder(t *testing.T) {
	m := NewModel("m1")
	p := NewPipeline(m)

	var mu sync.Mutex
	var completed []string
	record := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		completed = append(completed, name)
	}
	files := []*fakeFile{
		newFakeFile("f1", []byte("one")).held(),
		newFakeFile("f2", []byte("two")).held(),
		newFakeFile("f3", []byte("three")).held(),
	}
	for _, f := range files {
		f.done = record
	}

	errCh := make(chan error, 1)
	go func() { errCh <- p.Select(context.Background(), asFiles(files...)) }()
	waitStarted(t, files...)
	assert.Equal(t, StateReading, p.State())

	// finish in reverse order
	for i := len(files) - 1; i >= 0; i-- {
		close(files[i].release)
		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(completed) == len(files)-i
		}, 2*time.Second, 5*time.Millisecond)
	}
	require.NoError(t, <-errCh)

	assert.Equal(t, []string{"f3", "f2", "f1"}, completed)
	st := m.State()
	require.Len(t, st.Metadata, 3)
	for i, f := range files {
		assert.Equal(t, f.meta.Name, st.Metadata[i].Name)
		assert.Equal(t, f.content, st.Data[i])
	}
}

func TestFailedBatchLeavesPreviousBatch(t *testing.T) {
	m := NewModel("m1")
	rec := &syncRecorder{}
	m.AddSyncer(rec)
	p := NewPipeline(m)

	require.NoError(t, p.Select(context.Background(), asFiles(newFakeFile("A", bytesOf(10, 'a')), newFakeFile("B", bytesOf(20, 'b')))))
	m.Set(types.UploadPatch{Counter: types.Ptr(int64(5))})
	before := m.State()

	a := newFakeFile("A", bytesOf(10, 'a'))
	b := newFakeFile("B", nil).failing(errors.New("disk on fire"))
	err := p.Select(context.Background(), asFiles(a, b))

	require.Error(t, err)
	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, 1, readErr.Index)
	assert.Equal(t, "B", readErr.Name)
	assert.ErrorIs(t, err, ErrReadFailed)

	after := m.State()
	assert.Equal(t, before.Counter, after.Counter)
	assert.Equal(t, before.FileCount, after.FileCount)
	assert.Equal(t, before.Metadata, after.Metadata)
	assert.Equal(t, before.Data, after.Data)
	assert.Equal(t, `failed to read "B": read error`, after.Error)
	assert.Equal(t, StateIdle, p.State())
	assert.EqualValues(t, 2, rec.calls.Load())
	assert.Equal(t, after.Error, rec.last(t).Error)
}

func TestFirstFailureDecidesAndCancelsOthers(t *testing.T) {
	m := NewModel("m1")
	p := NewPipeline(m)

	slow := newFakeFile("slow", []byte("s")).held()
	bad := newFakeFile("bad", nil).failing(errors.New("io"))

	err := p.Select(context.Background(), asFiles(slow, bad))
	require.Error(t, err)
	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, "bad", readErr.Name)
	assert.Zero(t, m.State().Counter)
}

func TestFailureDoesNotWaitForStragglers(t *testing.T) {
	m := NewModel("m1")
	rec := &syncRecorder{}
	m.AddSyncer(rec)
	p := NewPipeline(m)

	slow := newFakeFile("slow", []byte("s")).stubborn()
	defer close(slow.release)
	bad := newFakeFile("bad", nil).failing(errors.New("io"))

	errCh := make(chan error, 1)
	go func() { errCh <- p.Select(context.Background(), asFiles(slow, bad)) }()

	select {
	case err := <-errCh:
		var readErr *ReadError
		require.ErrorAs(t, err, &readErr)
		assert.Equal(t, "bad", readErr.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("failure waited for a read that ignores cancellation")
	}
	assert.Equal(t, `failed to read "bad": read error`, m.State().Error)
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, m.State().Error, rec.last(t).Error)
}

func TestSuccessClearsPreviousError(t *testing.T) {
	m := NewModel("m1")
	p := NewPipeline(m)

	require.Error(t, p.Select(context.Background(), asFiles(newFakeFile("x", nil).failing(errors.New("io")))))
	require.NotEmpty(t, m.State().Error)

	require.NoError(t, p.Select(context.Background(), asFiles(newFakeFile("y", []byte("ok")))))
	assert.Empty(t, m.State().Error)
	assert.Equal(t, int64(1), m.State().Counter)
}

func TestAbortedReadIsReported(t *testing.T) {
	m := NewModel("m1")
	p := NewPipeline(m)

	err := p.Select(context.Background(), asFiles(newFakeFile("gone", nil).failing(context.Canceled)))
	assert.ErrorIs(t, err, ErrReadAborted)
	assert.Equal(t, `failed to read "gone": read aborted`, m.State().Error)
}

func TestReselectingSameFileCommitsTwice(t *testing.T) {
	m := NewModel("m1")
	rec := &syncRecorder{}
	m.AddSyncer(rec)
	p := NewPipeline(m)

	for i := 1; i <= 2; i++ {
		require.NoError(t, p.Select(context.Background(), asFiles(newFakeFile("same.txt", []byte("same")))))
		st := m.State()
		assert.Equal(t, 1, st.FileCount)
		assert.Equal(t, int64(i), st.Counter)
	}
	assert.EqualValues(t, 2, rec.calls.Load())
}

func TestEmptySelectionIsNoop(t *testing.T) {
	m := NewModel("m1")
	rec := &syncRecorder{}
	m.AddSyncer(rec)
	fired := 0
	m.On(EventChange, func(ChangeEvent) { fired++ })
	p := NewPipeline(m)

	require.NoError(t, p.Select(context.Background(), nil))
	assert.Zero(t, fired)
	assert.Zero(t, rec.calls.Load())
	assert.Equal(t, StateIdle, p.State())
}

func TestEmptySelectionKeepsBatchInFlight(t *testing.T) {
	m := NewModel("m1")
	p := NewPipeline(m)

	f := newFakeFile("f", []byte("f")).held()
	errCh := make(chan error, 1)
	go func() { errCh <- p.Select(context.Background(), asFiles(f)) }()
	waitStarted(t, f)

	require.NoError(t, p.Select(context.Background(), nil))
	assert.Equal(t, StateReading, p.State())

	close(f.release)
	require.NoError(t, <-errCh)
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, int64(1), m.State().Counter)
}

func TestSupersededSelectionIsDropped(t *testing.T) {
	m := NewModel("m1")
	p := NewPipeline(m)
	committed := 0
	p.OnCommit(func(Batch) { committed++ })

	old := newFakeFile("old", []byte("old")).held()
	errCh := make(chan error, 1)
	go func() { errCh <- p.Select(context.Background(), asFiles(old)) }()
	waitStarted(t, old)

	fresh := newFakeFile("fresh", []byte("fresh"))
	require.NoError(t, p.Select(context.Background(), asFiles(fresh)))

	close(old.release)
	assert.ErrorIs(t, <-errCh, ErrSuperseded)

	st := m.State()
	assert.Equal(t, int64(1), st.Counter)
	assert.Equal(t, "fresh", st.Metadata[0].Name)
	assert.Equal(t, 1, committed)
}

// holdingSyncer blocks its first Sync until release is closed and records the counter of
// every frame it receives.
type holdingSyncer struct {
	entered chan struct{}
	release chan struct{}
	first   atomic.Bool

	mu       sync.Mutex
	counters []int64
}

func newHoldingSyncer() *holdingSyncer {
	return &holdingSyncer{entered: make(chan struct{}), release: make(chan struct{})}
}

func (s *holdingSyncer) Sync(_ context.Context, frame []byte) error {
	if s.first.CompareAndSwap(false, true) {
		close(s.entered)
		<-s.release
	}
	msg, buffers, err := DecodeFrame(frame)
	if err != nil {
		return err
	}
	st, err := DecodeState(msg, buffers)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = append(s.counters, st.Counter)
	return nil
}

func TestCommitsReachObserversInOrder(t *testing.T) {
	m := NewModel("m1")
	obs := newHoldingSyncer()
	m.AddSyncer(obs)
	p := NewPipeline(m)

	errs := make(chan error, 2)
	go func() { errs <- p.Select(context.Background(), asFiles(newFakeFile("a", []byte("a")))) }()
	<-obs.entered

	go func() { errs <- p.Select(context.Background(), asFiles(newFakeFile("b", []byte("b")))) }()
	require.Eventually(t, func() bool { return m.State().Counter == 2 }, 2*time.Second, 5*time.Millisecond)

	close(obs.release)
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []int64{1, 2}, obs.counters)
	assert.Equal(t, m.State().Counter, obs.counters[len(obs.counters)-1])
}

func TestMaxConcurrentReads(t *testing.T) {
	m := NewModel("m1")
	p := NewPipeline(m, WithMaxConcurrentReads(2))

	var inflight, peak atomic.Int32
	files := make([]File, 6)
	for i := range files {
		files[i] = &countingFile{inflight: &inflight, peak: &peak, name: string(rune('a' + i))}
	}
	require.NoError(t, p.Select(context.Background(), files))
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 6, m.State().FileCount)
}

type countingFile struct {
	inflight, peak *atomic.Int32
	name           string
}

func (f *countingFile) Metadata() types.FileMetadata {
	return types.FileMetadata{Name: f.name, Size: 1}
}

func (f *countingFile) Read(context.Context) ([]byte, error) {
	n := f.inflight.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	f.inflight.Add(-1)
	return []byte(f.name), nil
}

func TestClick(t *testing.T) {
	m := NewModel("m1")
	m.Set(types.UploadPatch{Accept: types.Ptr(".txt"), Multiple: types.Ptr(true)})

	var got PickOptions
	file := newFakeFile("picked.txt", []byte("hi"))
	p := NewPipeline(m, WithPicker(PickerFunc(func(_ context.Context, opts PickOptions) ([]File, error) {
		got = opts
		return asFiles(file), nil
	})))

	require.NoError(t, p.Click(context.Background()))
	assert.Equal(t, PickOptions{Accept: ".txt", Multiple: true}, got)
	assert.Equal(t, int64(1), m.State().Counter)
	assert.Len(t, p.Selection(), 1)
}

func TestClickClearsPreviousSelection(t *testing.T) {
	m := NewModel("m1")
	var during []File
	var p *Pipeline
	p = NewPipeline(m, WithPicker(PickerFunc(func(context.Context, PickOptions) ([]File, error) {
		during = p.Selection()
		assert.Equal(t, StatePicking, p.State())
		return nil, nil
	})))

	require.NoError(t, p.Select(context.Background(), asFiles(newFakeFile("a", []byte("a")))))
	require.Len(t, p.Selection(), 1)

	require.NoError(t, p.Click(context.Background()))
	assert.Empty(t, during)
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, int64(1), m.State().Counter)
}

func TestClickDisabledOrWithoutPicker(t *testing.T) {
	m := NewModel("m1")
	assert.ErrorIs(t, NewPipeline(m).Click(context.Background()), ErrNoPicker)

	m.Set(types.UploadPatch{Disabled: types.Ptr(true)})
	called := false
	p := NewPipeline(m, WithPicker(PickerFunc(func(context.Context, PickOptions) ([]File, error) {
		called = true
		return nil, nil
	})))
	assert.ErrorIs(t, p.Click(context.Background()), ErrDisabled)
	assert.False(t, called)
}

func TestClickPickerError(t *testing.T) {
	m := NewModel("m1")
	boom := errors.New("dialog crashed")
	p := NewPipeline(m, WithPicker(PickerFunc(func(context.Context, PickOptions) ([]File, error) {
		return nil, boom
	})))

	assert.ErrorIs(t, p.Click(context.Background()), boom)
	assert.Equal(t, StateIdle, p.State())
	assert.Empty(t, m.State().Error)
}

func TestHooksAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := MustNewMetrics(reg)
	m := NewModel("m1")
	p := NewPipeline(m, WithMetrics(metrics))

	var batches []Batch
	var failures []error
	p.OnCommit(func(b Batch) { batches = append(batches, b) })
	p.OnFailure(func(err error) { failures = append(failures, err) })

	require.NoError(t, p.Select(context.Background(), asFiles(newFakeFile("a", bytesOf(3, 'a')), newFakeFile("b", bytesOf(4, 'b')))))
	require.Error(t, p.Select(context.Background(), asFiles(newFakeFile("c", nil).failing(errors.New("io")))))

	require.Len(t, batches, 1)
	summary := batches[0].Summary()
	assert.Equal(t, 2, summary.FileCount)
	assert.Equal(t, int64(7), summary.TotalSize)
	assert.Equal(t, int64(2), summary.Counter)
	require.Len(t, failures, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.batches.WithLabelValues(outcomeCommitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.batches.WithLabelValues(outcomeFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.files))
	assert.Equal(t, 7.0, testutil.ToFloat64(metrics.bytes))
}

func TestLocalFileAndDirPicker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bee"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("ay"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.png"), []byte("\x89PNG\r\n\x1a\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	picker := DirPicker{Dir: dir}

	files, err := picker.Pick(context.Background(), PickOptions{Accept: ".txt", Multiple: true})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].Metadata().Name)
	assert.Equal(t, "b.txt", files[1].Metadata().Name)
	assert.Equal(t, int64(3), files[1].Metadata().Size)

	files, err = picker.Pick(context.Background(), PickOptions{})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.txt", files[0].Metadata().Name)

	content, err := files[0].Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("ay"), content)

	_, err = DirPicker{Dir: filepath.Join(dir, "missing")}.Pick(context.Background(), PickOptions{})
	assert.Error(t, err)
}

func TestDirPickerThroughClick(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("hello"), 0o644))

	fu, err := NewFileUploadFromConfig("m1", types.AppConfig{PickDir: dir, Description: "Upload", Icon: "upload", Multiple: true})
	require.NoError(t, err)
	defer fu.Close()

	require.NoError(t, fu.Pipeline.Click(context.Background()))
	st := fu.Model.State()
	assert.Equal(t, int64(1), st.Counter)
	assert.Equal(t, "note.txt", st.Metadata[0].Name)
	assert.Equal(t, []byte("hello"), st.Data[0])
	assert.Equal(t, "Upload (1)", fu.View.Rendered().Text)
}

func TestMatchAccept(t *testing.T) {
	cases := []struct {
		accept, name, mime string
		want               bool
	}{
		{"", "x.bin", "", true},
		{".png", "a.PNG", "image/png", true},
		{".png, .jpg", "a.jpg", "", true},
		{".png", "a.txt", "text/plain", false},
		{"image/*", "a", "image/jpeg", true},
		{"image/*", "a", "text/plain", false},
		{"text/plain", "a", "text/plain; charset=utf-8", true},
		{"application/pdf,.txt", "a.txt", "", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MatchAccept(tc.accept, tc.name, tc.mime), "%q %q %q", tc.accept, tc.name, tc.mime)
	}
}

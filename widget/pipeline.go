package widget

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/daikurogo/ipywidgets/tool"
	"github.com/daikurogo/ipywidgets/types"
)

var (
	ErrDisabled   = errors.New("upload control is disabled")
	ErrNoPicker   = errors.New("no file picker configured")
	ErrSuperseded = errors.New("selection superseded by a newer one")
)

type PipelineState int

const (
	StateIdle PipelineState = iota
	StatePicking
	StateReading
	StateCommitting
	StateFailed
)

func (s PipelineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePicking:
		return "picking"
	case StateReading:
		return "reading"
	case StateCommitting:
		return "committing"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("PipelineState(%d)", int(s))
}

// Batch is a committed selection.
type Batch struct {
	ModelID    string
	Generation uint64
	Counter    int64
	Metadata   []types.FileMetadata
	Data       [][]byte
}

func (b Batch) Summary() types.BatchSummary {
	var total int64
	for _, m := range b.Metadata {
		total += m.Size
	}
	return types.BatchSummary{
		ModelID:   b.ModelID,
		Counter:   b.Counter,
		FileCount: len(b.Metadata),
		TotalSize: total,
		Files:     slices.Clone(b.Metadata),
	}
}

type PipelineOption func(*Pipeline)

func WithPicker(picker Picker) PipelineOption {
	return func(p *Pipeline) { p.picker = picker }
}

// WithMaxConcurrentReads bounds the number of files read at once. 0 reads every file at once.
func WithMaxConcurrentReads(n int) PipelineOption {
	return func(p *Pipeline) { p.maxConcurrent = n }
}

func WithMetrics(m *Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline turns selections into commits on a Model.
//
// Every selection takes a new generation. Only the newest generation may commit; a batch that
// finishes after a newer selection started is dropped, whatever its outcome.
type Pipeline struct {
	model         *Model
	picker        Picker
	maxConcurrent int
	metrics       *Metrics

	mu         sync.Mutex
	state      PipelineState
	generation uint64
	selection  []File

	// serializes the generation check with the read-modify-write of counter
	commitMu sync.Mutex

	hookMu    sync.RWMutex
	onCommit  []func(Batch)
	onFailure []func(error)
}

func NewPipeline(model *Model, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{model: model}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Model() *Model {
	return p.model
}

func (p *Pipeline) State() PipelineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Selection returns the files of the latest selection event.
func (p *Pipeline) Selection() []File {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.selection)
}

func (p *Pipeline) OnCommit(fn func(Batch)) {
	p.hookMu.Lock()
	defer p.hookMu.Unlock()
	p.onCommit = append(p.onCommit, fn)
}

func (p *Pipeline) OnFailure(fn func(error)) {
	p.hookMu.Lock()
	defer p.hookMu.Unlock()
	p.onFailure = append(p.onFailure, fn)
}

// Click opens the picker and ingests what it returns.
func (p *Pipeline) Click(ctx context.Context) error {
	st := p.model.State()
	if st.Disabled {
		return ErrDisabled
	}
	if p.picker == nil {
		return ErrNoPicker
	}

	// a stale value would swallow a re-selection of the same files
	p.mu.Lock()
	p.selection = nil
	p.state = StatePicking
	p.mu.Unlock()

	files, err := p.picker.Pick(ctx, PickOptions{Accept: st.Accept, Multiple: st.Multiple})
	if err != nil {
		p.setStateIf(StatePicking, StateIdle)
		return fmt.Errorf("failed to pick files: %w", err)
	}
	return p.Select(ctx, files)
}

// Select handles a confirmed selection. It blocks until the batch is committed or failed.
// An empty selection changes nothing.
func (p *Pipeline) Select(ctx context.Context, files []File) error {
	if len(files) == 0 {
		// a batch already in flight keeps its state
		p.setStateIf(StatePicking, StateIdle)
		tool.DefaultLogger.Debugf("[Pipeline %s] empty selection ignored", p.model.ID())
		return nil
	}

	metas := make([]types.FileMetadata, len(files))
	for i, f := range files {
		metas[i] = f.Metadata()
	}

	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.selection = slices.Clone(files)
	p.state = StateReading
	p.mu.Unlock()

	tool.DefaultLogger.Infof("[Pipeline %s] reading %d files (generation %d)", p.model.ID(), len(files), gen)
	start := time.Now()
	data, err := p.readAll(ctx, files, metas)
	p.metrics.observeRead(time.Since(start))
	if err != nil {
		return p.fail(ctx, gen, err)
	}
	return p.commit(ctx, gen, metas, data)
}

// readAll returns as soon as every file is read or the first read fails. On failure the
// remaining reads are cancelled but not waited for; a reader that ignores ctx cannot hold the
// outcome back.
func (p *Pipeline) readAll(ctx context.Context, files []File, metas []types.FileMetadata) ([][]byte, error) {
	g, gctx := errgroup.WithContext(ctx)
	if p.maxConcurrent > 0 {
		g.SetLimit(p.maxConcurrent)
	}
	data := make([][]byte, len(files))
	failed := make(chan error, 1)
	var once sync.Once
	done := make(chan error, 1)

	go func() {
		for i, f := range files {
			i, f := i, f
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				b, err := f.Read(gctx)
				if err != nil {
					rerr := &ReadError{Index: i, Name: metas[i].Name, Err: classifyReadError(err)}
					once.Do(func() { failed <- rerr })
					return rerr
				}
				data[i] = b
				return nil
			})
		}
		done <- g.Wait()
	}()

	select {
	case err := <-failed:
		return nil, err
	case err := <-done:
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

func (p *Pipeline) isCurrent(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation == gen
}

func (p *Pipeline) setStateIf(from, to PipelineState) {
	p.mu.Lock()
	if p.state == from {
		p.state = to
	}
	p.mu.Unlock()
}

func (p *Pipeline) setStateIfCurrent(gen uint64, s PipelineState) {
	p.mu.Lock()
	if p.generation == gen {
		p.state = s
	}
	p.mu.Unlock()
}

func (p *Pipeline) commit(ctx context.Context, gen uint64, metas []types.FileMetadata, data [][]byte) error {
	p.commitMu.Lock()
	if !p.isCurrent(gen) {
		p.commitMu.Unlock()
		p.metrics.observeBatch(outcomeSuperseded, nil)
		tool.DefaultLogger.Debugf("[Pipeline %s] dropping generation %d", p.model.ID(), gen)
		return ErrSuperseded
	}
	p.setStateIfCurrent(gen, StateCommitting)
	counter := p.model.State().Counter + int64(len(metas))
	p.model.Set(types.UploadPatch{
		Counter:   &counter,
		FileCount: types.Ptr(len(metas)),
		Metadata:  &metas,
		Data:      &data,
		Error:     types.Ptr(""),
	})
	p.commitMu.Unlock()

	_ = p.model.Flush(context.WithoutCancel(ctx))
	p.setStateIfCurrent(gen, StateIdle)

	batch := Batch{ModelID: p.model.ID(), Generation: gen, Counter: counter, Metadata: metas, Data: data}
	p.metrics.observeBatch(outcomeCommitted, metas)
	tool.DefaultLogger.Infof("[Pipeline %s] committed %d files, counter=%d", p.model.ID(), len(metas), counter)

	p.hookMu.RLock()
	hooks := slices.Clone(p.onCommit)
	p.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(batch)
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, gen uint64, cause error) error {
	p.commitMu.Lock()
	if !p.isCurrent(gen) {
		p.commitMu.Unlock()
		p.metrics.observeBatch(outcomeSuperseded, nil)
		tool.DefaultLogger.Debugf("[Pipeline %s] dropping failed generation %d: %v", p.model.ID(), gen, cause)
		return ErrSuperseded
	}
	p.setStateIfCurrent(gen, StateFailed)
	p.model.Set(types.UploadPatch{Error: types.Ptr(cause.Error())})
	p.commitMu.Unlock()

	_ = p.model.Flush(context.WithoutCancel(ctx))
	p.setStateIfCurrent(gen, StateIdle)

	p.metrics.observeBatch(outcomeFailed, nil)
	tool.DefaultLogger.Errorf("[Pipeline %s] error in file upload: %v", p.model.ID(), cause)

	p.hookMu.RLock()
	hooks := slices.Clone(p.onFailure)
	p.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(cause)
	}
	return cause
}

package widget

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/daikurogo/ipywidgets/tool"
	"github.com/daikurogo/ipywidgets/types"
)

// EventChange fires once per Set that changed anything; "change:<attr>" fires per changed attribute.
const EventChange = "change"

var ErrReadOnlyAttribute = errors.New("attribute is read-only for remote observers")

// ChangeEvent is delivered to listeners after a Set. State is the record right after the merge.
type ChangeEvent struct {
	Name  string
	Keys  []string
	State types.UploadState
}

type Listener func(ChangeEvent)

// Syncer pushes an encoded sync frame to a remote observer.
type Syncer interface {
	Sync(ctx context.Context, frame []byte) error
}

type SyncerFunc func(ctx context.Context, frame []byte) error

func (f SyncerFunc) Sync(ctx context.Context, frame []byte) error {
	return f(ctx, frame)
}

type listenerEntry struct {
	id int
	fn Listener
}

// Model is the observable state record of one upload control.
//
// Byte payloads in the record are never modified in place; a commit replaces the slices
// wholesale, so the shallow copies handed out by State and ChangeEvent are safe to read.
type Model struct {
	id string

	mu    sync.RWMutex
	state types.UploadState

	// held from the merge through event delivery so listeners see updates in commit order
	emitMu     sync.Mutex
	listenerMu sync.Mutex
	listeners  map[string][]listenerEntry
	nextID     int

	syncMu  sync.RWMutex
	syncers []Syncer
	// held from the snapshot through the last Sync so frames reach observers in commit order
	flushMu sync.Mutex
}

// DefaultState is the record of a freshly created control.
func DefaultState() types.UploadState {
	return types.UploadState{
		Metadata:    []types.FileMetadata{},
		Data:        [][]byte{},
		Description: "Upload",
		Icon:        "upload",
	}
}

func NewModel(id string) *Model {
	return &Model{
		id:        id,
		state:     DefaultState(),
		listeners: make(map[string][]listenerEntry),
	}
}

func (m *Model) ID() string {
	return m.id
}

// State returns a shallow copy of the record.
func (m *Model) State() types.UploadState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Get returns the value of one attribute.
func (m *Model) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return attrValue(m.state, key)
}

func attrValue(s types.UploadState, key string) (any, bool) {
	switch key {
	case types.AttrCounter:
		return s.Counter, true
	case types.AttrFileCount:
		return s.FileCount, true
	case types.AttrMetadata:
		return s.Metadata, true
	case types.AttrData:
		return s.Data, true
	case types.AttrError:
		return s.Error, true
	case types.AttrAccept:
		return s.Accept, true
	case types.AttrMultiple:
		return s.Multiple, true
	case types.AttrDisabled:
		return s.Disabled, true
	case types.AttrDescription:
		return s.Description, true
	case types.AttrIcon:
		return s.Icon, true
	case types.AttrButtonStyle:
		return s.ButtonStyle, true
	case types.AttrTooltip:
		return s.Tooltip, true
	}
	return nil, false
}

// Set merges every field of p in one step and then notifies listeners of the attributes
// whose value actually changed. It returns the changed attribute names.
// Listeners must not call Set on the same model.
func (m *Model) Set(p types.UploadPatch) []string {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	next := m.state
	mergePatch(&next, p)
	changed := changedKeys(m.state, next, p.Keys())
	m.state = next
	m.mu.Unlock()

	if len(changed) == 0 {
		return nil
	}
	for _, key := range changed {
		m.emit(ChangeEvent{Name: EventChange + ":" + key, Keys: []string{key}, State: next})
	}
	m.emit(ChangeEvent{Name: EventChange, Keys: changed, State: next})
	return changed
}

func mergePatch(s *types.UploadState, p types.UploadPatch) {
	if p.Counter != nil {
		s.Counter = *p.Counter
	}
	if p.FileCount != nil {
		s.FileCount = *p.FileCount
	}
	if p.Metadata != nil {
		s.Metadata = *p.Metadata
	}
	if p.Data != nil {
		s.Data = *p.Data
	}
	if p.Error != nil {
		s.Error = *p.Error
	}
	if p.Accept != nil {
		s.Accept = *p.Accept
	}
	if p.Multiple != nil {
		s.Multiple = *p.Multiple
	}
	if p.Disabled != nil {
		s.Disabled = *p.Disabled
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Icon != nil {
		s.Icon = *p.Icon
	}
	if p.ButtonStyle != nil {
		s.ButtonStyle = *p.ButtonStyle
	}
	if p.Tooltip != nil {
		s.Tooltip = *p.Tooltip
	}
}

func changedKeys(old, next types.UploadState, keys []string) []string {
	var changed []string
	for _, key := range keys {
		var same bool
		switch key {
		case types.AttrMetadata:
			same = slices.Equal(old.Metadata, next.Metadata)
		case types.AttrData:
			same = slices.EqualFunc(old.Data, next.Data, bytes.Equal)
		default:
			a, _ := attrValue(old, key)
			b, _ := attrValue(next, key)
			same = a == b
		}
		if !same {
			changed = append(changed, key)
		}
	}
	return changed
}

// On subscribes fn to an event name ("change" or "change:<attr>") and returns an unsubscribe func.
// Events are delivered synchronously, one Set at a time.
func (m *Model) On(event string, fn Listener) func() {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners[event] = append(m.listeners[event], listenerEntry{id: id, fn: fn})
	return func() {
		m.listenerMu.Lock()
		defer m.listenerMu.Unlock()
		m.listeners[event] = slices.DeleteFunc(m.listeners[event], func(e listenerEntry) bool {
			return e.id == id
		})
	}
}

func (m *Model) emit(ev ChangeEvent) {
	m.listenerMu.Lock()
	entries := slices.Clone(m.listeners[ev.Name])
	m.listenerMu.Unlock()
	for _, e := range entries {
		e.fn(ev)
	}
}

// AddSyncer registers a remote observer sink for Flush.
func (m *Model) AddSyncer(s Syncer) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	m.syncers = append(m.syncers, s)
}

// Frame encodes the current full record as a sync frame.
func (m *Model) Frame() ([]byte, error) {
	msg, buffers, err := EncodeState(m.id, m.State())
	if err != nil {
		return nil, err
	}
	return EncodeFrame(msg, buffers)
}

// Flush pushes the current full record to every syncer. A failing syncer does not stop the
// others; their errors are joined. Concurrent flushes are serialized and each one snapshots the
// record it sends, so the last frame an observer receives is never older than the record.
func (m *Model) Flush(ctx context.Context) error {
	m.flushMu.Lock()
	defer m.flushMu.Unlock()

	frame, err := m.Frame()
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	m.syncMu.RLock()
	syncers := slices.Clone(m.syncers)
	m.syncMu.RUnlock()

	var errs []error
	for _, s := range syncers {
		if err := s.Sync(ctx, frame); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		tool.DefaultLogger.Warnf("[Model %s] flush: %v", m.id, err)
		return err
	}
	tool.DefaultLogger.Debugf("[Model %s] flushed %d bytes to %d observers", m.id, len(frame), len(syncers))
	return nil
}

// PatchFromConfig validates a configuration update and converts it into a patch.
func PatchFromConfig(c types.UploadConfigPatch) (types.UploadPatch, error) {
	p := types.UploadPatch{
		Accept:      c.Accept,
		Multiple:    c.Multiple,
		Disabled:    c.Disabled,
		Description: c.Description,
		Icon:        c.Icon,
		Tooltip:     c.Tooltip,
	}
	if c.ButtonStyle != nil {
		style, err := types.ParseButtonStyle(*c.ButtonStyle)
		if err != nil {
			return types.UploadPatch{}, err
		}
		p.ButtonStyle = &style
	}
	return p, nil
}

// ApplyRemoteUpdate applies a configuration update pushed by a remote observer. Result
// attributes belong to the ingestion pipeline and are refused.
func (m *Model) ApplyRemoteUpdate(msg types.CommMessage, buffers [][]byte) ([]string, error) {
	if msg.ModelID != "" && msg.ModelID != m.id {
		return nil, fmt.Errorf("update for model %q sent to %q", msg.ModelID, m.id)
	}
	if len(buffers) > 0 || len(msg.BufferPaths) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrReadOnlyAttribute, types.AttrData)
	}
	var c types.UploadConfigPatch
	for key, raw := range msg.State {
		switch key {
		case types.AttrCounter, types.AttrFileCount, types.AttrMetadata, types.AttrData, types.AttrError:
			return nil, fmt.Errorf("%w: %s", ErrReadOnlyAttribute, key)
		case types.AttrAccept:
			v, err := asString(key, raw)
			if err != nil {
				return nil, err
			}
			c.Accept = &v
		case types.AttrDescription:
			v, err := asString(key, raw)
			if err != nil {
				return nil, err
			}
			c.Description = &v
		case types.AttrIcon:
			v, err := asString(key, raw)
			if err != nil {
				return nil, err
			}
			c.Icon = &v
		case types.AttrButtonStyle:
			v, err := asString(key, raw)
			if err != nil {
				return nil, err
			}
			c.ButtonStyle = &v
		case types.AttrTooltip:
			v, err := asString(key, raw)
			if err != nil {
				return nil, err
			}
			c.Tooltip = &v
		case types.AttrMultiple:
			v, err := asBool(key, raw)
			if err != nil {
				return nil, err
			}
			c.Multiple = &v
		case types.AttrDisabled:
			v, err := asBool(key, raw)
			if err != nil {
				return nil, err
			}
			c.Disabled = &v
		default:
			return nil, fmt.Errorf("unknown attribute %q", key)
		}
	}
	p, err := PatchFromConfig(c)
	if err != nil {
		return nil, err
	}
	return m.Set(p), nil
}

func asString(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("attribute %q: expected string, got %T", key, v)
	}
	return s, nil
}

func asBool(key string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("attribute %q: expected bool, got %T", key, v)
	}
	return b, nil
}

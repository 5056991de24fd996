package models

import (
	"errors"
	"slices"
	"sync"

	"github.com/daikurogo/ipywidgets/api/commhub"
	"github.com/daikurogo/ipywidgets/tool"
	"github.com/daikurogo/ipywidgets/widget"
)

var ErrControlNotFound = errors.New("control not found")

// Control is a registered upload control together with its observer hub.
type Control struct {
	*widget.FileUpload
	Hub *commhub.Hub
}

var (
	controlsMu       sync.RWMutex
	controls         = map[string]*Control{}
	defaultControlID string

	registerHooksMu sync.RWMutex
	registerHooks   []func(*Control)
)

// OnRegister runs fn for every control registered afterwards (syncers, notify hooks).
func OnRegister(fn func(*Control)) {
	registerHooksMu.Lock()
	defer registerHooksMu.Unlock()
	registerHooks = append(registerHooks, fn)
}

// RegisterControl attaches an observer hub and batch history to fu and makes it reachable by id.
// The first registered control becomes the default one.
func RegisterControl(fu *widget.FileUpload) *Control {
	ctl := &Control{FileUpload: fu, Hub: commhub.New()}
	fu.Model.AddSyncer(ctl.Hub)
	fu.Pipeline.OnCommit(func(b widget.Batch) {
		RecordBatch(b.Summary())
	})

	registerHooksMu.RLock()
	hooks := slices.Clone(registerHooks)
	registerHooksMu.RUnlock()
	for _, fn := range hooks {
		fn(ctl)
	}

	controlsMu.Lock()
	id := fu.Model.ID()
	if old, ok := controls[id]; ok {
		old.Close()
	}
	controls[id] = ctl
	if defaultControlID == "" {
		defaultControlID = id
	}
	controlsMu.Unlock()

	tool.DefaultLogger.Infof("[Controls] registered %s", id)
	return ctl
}

func GetControl(id string) (*Control, error) {
	controlsMu.RLock()
	defer controlsMu.RUnlock()
	ctl, ok := controls[id]
	if !ok {
		return nil, ErrControlNotFound
	}
	return ctl, nil
}

func DefaultControlID() string {
	controlsMu.RLock()
	defer controlsMu.RUnlock()
	return defaultControlID
}

// ListControlIDs returns the registered ids in sorted order.
func ListControlIDs() []string {
	controlsMu.RLock()
	ids := make([]string, 0, len(controls))
	for id := range controls {
		ids = append(ids, id)
	}
	controlsMu.RUnlock()
	slices.Sort(ids)
	return ids
}

// RemoveControl detaches and forgets a control.
func RemoveControl(id string) {
	controlsMu.Lock()
	defer controlsMu.Unlock()
	if ctl, ok := controls[id]; ok {
		ctl.Close()
		delete(controls, id)
	}
	if defaultControlID == id {
		defaultControlID = ""
	}
}

// ResetControls forgets every control and register hook.
func ResetControls() {
	controlsMu.Lock()
	for _, ctl := range controls {
		ctl.Close()
	}
	controls = map[string]*Control{}
	defaultControlID = ""
	controlsMu.Unlock()

	registerHooksMu.Lock()
	registerHooks = nil
	registerHooksMu.Unlock()
}

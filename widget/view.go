package widget

import (
	"fmt"
	"slices"
	"sync"

	"github.com/daikurogo/ipywidgets/types"
)

var baseClasses = []string{"jupyter-widgets", "widget-upload", "jupyter-button"}

// ButtonStyleClass returns the CSS class of a style, or "" for the unstyled button.
func ButtonStyleClass(style types.ButtonStyle) string {
	switch style {
	case types.ButtonStylePrimary:
		return "mod-primary"
	case types.ButtonStyleSuccess:
		return "mod-success"
	case types.ButtonStyleInfo:
		return "mod-info"
	case types.ButtonStyleWarning:
		return "mod-warning"
	case types.ButtonStyleDanger:
		return "mod-danger"
	}
	return ""
}

var styleClasses = []string{"mod-primary", "mod-success", "mod-info", "mod-warning", "mod-danger"}

// ApplyButtonStyle removes the class of old and every other style class, then adds the class
// of next. The input slice is not modified.
func ApplyButtonStyle(classes []string, old, next types.ButtonStyle) []string {
	oldClass := ButtonStyleClass(old)
	out := slices.DeleteFunc(slices.Clone(classes), func(c string) bool {
		return c == oldClass || slices.Contains(styleClasses, c)
	})
	if c := ButtonStyleClass(next); c != "" {
		out = append(out, c)
	}
	return out
}

// Rendered is what the button currently shows.
type Rendered struct {
	Classes     []string `json:"classes"`
	Disabled    bool     `json:"disabled"`
	Title       string   `json:"title"`
	Text        string   `json:"text"`
	IconClasses []string `json:"iconClasses,omitempty"`
	Accept      string   `json:"accept"`
	Multiple    bool     `json:"multiple"`
}

// View mirrors a Model into a Rendered button and keeps it current.
type View struct {
	model *Model

	mu       sync.RWMutex
	rendered Rendered
	style    types.ButtonStyle
	renders  int

	unsubscribe []func()
}

var renderTriggers = []string{
	types.AttrDisabled,
	types.AttrDescription,
	types.AttrIcon,
	types.AttrFileCount,
	types.AttrAccept,
	types.AttrMultiple,
	types.AttrTooltip,
}

func NewView(model *Model) *View {
	v := &View{model: model}
	st := model.State()
	v.rendered.Classes = slices.Clone(baseClasses)
	v.setStyle(st.ButtonStyle)
	v.update(st)

	for _, attr := range renderTriggers {
		v.unsubscribe = append(v.unsubscribe, model.On(EventChange+":"+attr, func(ev ChangeEvent) {
			v.update(ev.State)
		}))
	}
	v.unsubscribe = append(v.unsubscribe, model.On(EventChange+":"+types.AttrButtonStyle, func(ev ChangeEvent) {
		v.setStyle(ev.State.ButtonStyle)
	}))
	return v
}

// Close stops following the model.
func (v *View) Close() {
	for _, fn := range v.unsubscribe {
		fn()
	}
	v.unsubscribe = nil
}

func (v *View) setStyle(style types.ButtonStyle) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rendered.Classes = ApplyButtonStyle(v.rendered.Classes, v.style, style)
	v.style = style
}

func (v *View) update(st types.UploadState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders++
	v.rendered.Disabled = st.Disabled
	v.rendered.Title = st.Tooltip
	v.rendered.Text = fmt.Sprintf("%s (%d)", st.Description, st.FileCount)
	v.rendered.IconClasses = nil
	if st.Icon != "" {
		v.rendered.IconClasses = []string{"fa", "fa-" + st.Icon}
		if st.Description == "" {
			v.rendered.IconClasses = append(v.rendered.IconClasses, "center")
		}
	}
	v.rendered.Accept = st.Accept
	v.rendered.Multiple = st.Multiple
}

// Rendered returns a copy of the current rendering.
func (v *View) Rendered() Rendered {
	v.mu.RLock()
	defer v.mu.RUnlock()
	r := v.rendered
	r.Classes = slices.Clone(r.Classes)
	r.IconClasses = slices.Clone(r.IconClasses)
	return r
}

// Renders counts text/icon/disabled updates since creation.
func (v *View) Renders() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.renders
}

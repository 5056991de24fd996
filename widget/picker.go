package widget

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/daikurogo/ipywidgets/tool"
)

// PickOptions mirrors the attributes of the hidden file input.
type PickOptions struct {
	Accept   string
	Multiple bool
}

// Picker is the file-selection surface opened by a click. An empty result means the
// user confirmed without choosing anything.
type Picker interface {
	Pick(ctx context.Context, opts PickOptions) ([]File, error)
}

type PickerFunc func(ctx context.Context, opts PickOptions) ([]File, error)

func (f PickerFunc) Pick(ctx context.Context, opts PickOptions) ([]File, error) {
	return f(ctx, opts)
}

// DirPicker selects the regular files of an inbox directory, sorted by name.
type DirPicker struct {
	Dir string
}

func (p DirPicker) Pick(ctx context.Context, opts PickOptions) ([]File, error) {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", p.Dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var files []File
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		f, err := OpenLocalFile(filepath.Join(p.Dir, entry.Name()))
		if err != nil {
			tool.DefaultLogger.Warnf("[DirPicker] skipping %s: %v", entry.Name(), err)
			continue
		}
		meta := f.Metadata()
		if !MatchAccept(opts.Accept, meta.Name, meta.Type) {
			continue
		}
		files = append(files, f)
		if !opts.Multiple {
			break
		}
	}
	return files, nil
}

package widget

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/daikurogo/ipywidgets/types"
)

var ErrMalformedFrame = errors.New("malformed sync frame")

// commJSON keeps numbers as json.Number so int64 attributes survive a decode/encode cycle.
var commJSON = sonic.Config{UseNumber: true}.Froze()

// EncodeState splits the record into its JSON attributes and the ordered byte buffers of
// `_data`. The `_data` entries are replaced by nulls and located through buffer paths.
func EncodeState(modelID string, s types.UploadState) (types.CommMessage, [][]byte, error) {
	metadata := s.Metadata
	if metadata == nil {
		metadata = []types.FileMetadata{}
	}

	placeholders := make([]any, len(s.Data))
	paths := make([][]any, len(s.Data))
	buffers := make([][]byte, len(s.Data))
	for i, b := range s.Data {
		paths[i] = []any{types.AttrData, i}
		buffers[i] = b
	}

	state := map[string]any{
		types.AttrCounter:     s.Counter,
		types.AttrFileCount:   s.FileCount,
		types.AttrMetadata:    metadata,
		types.AttrData:        placeholders,
		types.AttrError:       s.Error,
		types.AttrAccept:      s.Accept,
		types.AttrMultiple:    s.Multiple,
		types.AttrDisabled:    s.Disabled,
		types.AttrDescription: s.Description,
		types.AttrIcon:        s.Icon,
		types.AttrButtonStyle: string(s.ButtonStyle),
		types.AttrTooltip:     s.Tooltip,
	}

	return types.CommMessage{
		Method:      types.CommMethodUpdate,
		ModelID:     modelID,
		State:       state,
		BufferPaths: paths,
	}, buffers, nil
}

// DecodeState is the inverse of EncodeState.
func DecodeState(msg types.CommMessage, buffers [][]byte) (types.UploadState, error) {
	raw, err := commJSON.Marshal(msg.State)
	if err != nil {
		return types.UploadState{}, fmt.Errorf("failed to marshal state: %w", err)
	}
	var s types.UploadState
	if err := commJSON.Unmarshal(raw, &s); err != nil {
		return types.UploadState{}, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if s.Metadata == nil {
		s.Metadata = []types.FileMetadata{}
	}

	slots := 0
	if list, ok := msg.State[types.AttrData].([]any); ok {
		slots = len(list)
	}
	if len(msg.BufferPaths) != len(buffers) {
		return types.UploadState{}, fmt.Errorf("%w: %d buffer paths for %d buffers", ErrMalformedFrame, len(msg.BufferPaths), len(buffers))
	}
	s.Data = make([][]byte, slots)
	for i, path := range msg.BufferPaths {
		idx, err := dataIndex(path)
		if err != nil {
			return types.UploadState{}, err
		}
		if idx >= slots {
			return types.UploadState{}, fmt.Errorf("%w: buffer index %d out of range (%d slots)", ErrMalformedFrame, idx, slots)
		}
		s.Data[idx] = buffers[i]
	}
	return s, nil
}

func dataIndex(path []any) (int, error) {
	if len(path) != 2 || path[0] != types.AttrData {
		return 0, fmt.Errorf("%w: unsupported buffer path %v", ErrMalformedFrame, path)
	}
	var idx int
	switch v := path[1].(type) {
	case int:
		idx = v
	case int64:
		idx = int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: non-integer buffer index %v", ErrMalformedFrame, v)
		}
		idx = int(n)
	case float64:
		idx = int(v)
		if float64(idx) != v {
			return 0, fmt.Errorf("%w: non-integer buffer index %v", ErrMalformedFrame, v)
		}
	default:
		return 0, fmt.Errorf("%w: buffer index of type %T", ErrMalformedFrame, v)
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: negative buffer index %d", ErrMalformedFrame, idx)
	}
	return idx, nil
}

// EncodeFrame lays out the message and its buffers the way the Jupyter websocket binary
// protocol does: a big-endian uint32 part count, one uint32 start offset per part, the JSON
// message, then every buffer in order.
func EncodeFrame(msg types.CommMessage, buffers [][]byte) ([]byte, error) {
	payload, err := commJSON.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comm message: %w", err)
	}
	parts := make([][]byte, 0, len(buffers)+1)
	parts = append(parts, payload)
	parts = append(parts, buffers...)

	n := len(parts)
	headerLen := 4 * (n + 1)
	total := headerLen
	for _, p := range parts {
		total += len(p)
	}

	frame := make([]byte, headerLen, total)
	binary.BigEndian.PutUint32(frame[0:4], uint32(n))
	offset := headerLen
	for i, p := range parts {
		binary.BigEndian.PutUint32(frame[4*(i+1):], uint32(offset))
		offset += len(p)
	}
	for _, p := range parts {
		frame = append(frame, p...)
	}
	return frame, nil
}

// DecodeFrame splits a frame produced by EncodeFrame. Returned buffers alias frame.
func DecodeFrame(frame []byte) (types.CommMessage, [][]byte, error) {
	var msg types.CommMessage
	if len(frame) < 4 {
		return msg, nil, fmt.Errorf("%w: %d bytes", ErrMalformedFrame, len(frame))
	}
	n := int(binary.BigEndian.Uint32(frame[0:4]))
	if n < 1 || len(frame) < 4*(n+1) {
		return msg, nil, fmt.Errorf("%w: %d parts in %d bytes", ErrMalformedFrame, n, len(frame))
	}
	offsets := make([]int, n+1)
	for i := 0; i < n; i++ {
		offsets[i] = int(binary.BigEndian.Uint32(frame[4*(i+1):]))
	}
	offsets[n] = len(frame)
	for i := 0; i < n; i++ {
		if offsets[i] < 4*(n+1) || offsets[i] > offsets[i+1] {
			return msg, nil, fmt.Errorf("%w: bad offset for part %d", ErrMalformedFrame, i)
		}
	}

	if err := commJSON.Unmarshal(frame[offsets[0]:offsets[1]], &msg); err != nil {
		return msg, nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	buffers := make([][]byte, 0, n-1)
	for i := 1; i < n; i++ {
		buffers = append(buffers, frame[offsets[i]:offsets[i+1]])
	}
	return msg, buffers, nil
}

package types

// CommMessage is the JSON part of a sync frame. Byte payloads travel as separate
// buffers; BufferPaths locates each buffer inside State.
type CommMessage struct {
	Method      string         `json:"method"`
	ModelID     string         `json:"model_id,omitempty"`
	State       map[string]any `json:"state"`
	BufferPaths [][]any        `json:"buffer_paths"`
}

const CommMethodUpdate = "update"

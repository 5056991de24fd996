package notify

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/bytedance/sonic"

	"github.com/daikurogo/ipywidgets/tool"
	"github.com/daikurogo/ipywidgets/types"
)

// NotifyWriteChunkSize is the chunk size when writing payload to Unix socket (avoid large single write).
const NotifyWriteChunkSize = 32 * 1024 // 32KB

// MaxNotifyFiles is the maximum number of files to include in notify payload (truncate if exceeded)
const MaxNotifyFiles = 20

var (
	// DefaultUnixSocketPath is the default Unix socket path for IPC
	DefaultUnixSocketPath = "/tmp/ipywidgets-upload-notify.sock"
	// UnixSocketTimeout is the timeout for Unix socket operations
	UnixSocketTimeout = 3 * time.Second
	UseNotify         = true
)

// SetUseNotify sets whether to use notify
func SetUseNotify(use bool) {
	UseNotify = use
}

// SendNotification sends notification via Unix Domain Socket: a little-endian uint32 length
// followed by the JSON payload. The listener may answer with a JSON object carrying "error".
func SendNotification(notification *types.Notification, socketPath string) error {
	if !UseNotify {
		return nil
	}
	if socketPath == "" {
		socketPath = DefaultUnixSocketPath
	}

	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		return fmt.Errorf("unix socket not found: %s", socketPath)
	}

	payload := []byte("{}")
	if notification != nil {
		var err error
		payload, err = sonic.Marshal(notification)
		if err != nil {
			return fmt.Errorf("failed to serialize notification data: %w", err)
		}
	}
	if len(payload) > NotifyWriteChunkSize {
		return fmt.Errorf("notification payload too large: %d bytes (max %d)", len(payload), NotifyWriteChunkSize)
	}

	conn, err := net.DialTimeout("unix", socketPath, UnixSocketTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to Unix socket %s: %w", socketPath, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close Unix socket connection: %v", err)
		}
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(UnixSocketTimeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set write deadline: %v", err)
	}

	lengthBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lengthBuf, uint32(len(payload)))
	if _, err := conn.Write(lengthBuf); err != nil {
		return fmt.Errorf("failed to write length to Unix socket: %w", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload to Unix socket: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(UnixSocketTimeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set read deadline: %v", err)
	}
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read response from Unix socket: %w", err)
	}
	if n > 0 {
		var response map[string]any
		if err := sonic.Unmarshal(buf[:n], &response); err != nil {
			tool.DefaultLogger.Debugf("Unix socket response (raw): %s", string(buf[:n]))
		} else if errMsg, ok := response["error"].(string); ok && errMsg != "" {
			return fmt.Errorf("server returned error: %s", errMsg)
		}
	}

	if notification != nil {
		tool.DefaultLogger.Infof("[UnixSocket] Notification sent: %s - %s", notification.Type, notification.Title)
	}
	return nil
}

// BatchCommittedNotification describes a committed batch; the file list is truncated to MaxNotifyFiles.
func BatchCommittedNotification(summary types.BatchSummary) *types.Notification {
	files := summary.Files
	if len(files) > MaxNotifyFiles {
		files = files[:MaxNotifyFiles]
	}
	return &types.Notification{
		Type:    types.NotifyTypeUploadCommitted,
		Title:   "Upload Completed",
		Message: fmt.Sprintf("%d files (%d bytes) received by %s", summary.FileCount, summary.TotalSize, summary.ModelID),
		Data: map[string]any{
			"modelId":    summary.ModelID,
			"counter":    summary.Counter,
			"totalFiles": summary.FileCount,
			"totalSize":  summary.TotalSize,
			"files":      files,
		},
	}
}

// BatchFailedNotification describes a failed batch.
func BatchFailedNotification(modelID string, cause error) *types.Notification {
	return &types.Notification{
		Type:    types.NotifyTypeUploadFailed,
		Title:   "Upload Failed",
		Message: cause.Error(),
		Data: map[string]any{
			"modelId": modelID,
		},
	}
}

// SendBatchCommitted sends an upload_committed notification.
func SendBatchCommitted(socketPath string, summary types.BatchSummary) error {
	return SendNotification(BatchCommittedNotification(summary), socketPath)
}

// SendBatchFailed sends an upload_failed notification.
func SendBatchFailed(socketPath, modelID string, cause error) error {
	return SendNotification(BatchFailedNotification(modelID, cause), socketPath)
}

package transfer

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/daikurogo/ipywidgets/tool"
)

// FrameContentType is the media type of a binary sync frame.
const FrameContentType = "application/octet-stream"

// HTTPSyncer pushes sync frames to a remote observer endpoint.
type HTTPSyncer struct {
	URL    string
	Client *http.Client
}

func NewHTTPSyncer(url string) *HTTPSyncer {
	return &HTTPSyncer{URL: url, Client: tool.GetHttpClient()}
}

// Sync sends one frame. It is safe for concurrent use.
func (s *HTTPSyncer) Sync(ctx context.Context, frame []byte) error {
	if s.URL == "" {
		return fmt.Errorf("invalid parameters: remote sync URL must not be empty")
	}
	if frame == nil {
		return fmt.Errorf("invalid parameters: frame must not be nil")
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("sync cancelled: %w", ctx.Err())
	default:
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(frame))
	if err != nil {
		return fmt.Errorf("failed to create sync request: %v", err)
	}
	req.Header.Set("Content-Type", FrameContentType)

	resp, err := s.client().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("sync cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to send sync request: %v", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("remote rejected malformed frame")
	case http.StatusForbidden:
		return fmt.Errorf("remote refused sync from this address")
	case http.StatusConflict:
		return fmt.Errorf("remote model id mismatch")
	case http.StatusInternalServerError:
		return fmt.Errorf("unknown remote error")
	default:
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return fmt.Errorf("sync request failed: %s", resp.Status)
		}
	}

	tool.DefaultLogger.Debugf("[Sync] frame of %d bytes sent to %s", len(frame), s.URL)
	return nil
}

// CheckRemote issues a HEAD request so that a misconfigured endpoint is reported at startup.
func (s *HTTPSyncer) CheckRemote(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %v", err)
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return fmt.Errorf("remote %s unreachable: %v", s.URL, err)
	}
	if err := resp.Body.Close(); err != nil {
		tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("remote %s unhealthy: %s", s.URL, resp.Status)
	}
	return nil
}

func (s *HTTPSyncer) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return tool.GetHttpClient()
}

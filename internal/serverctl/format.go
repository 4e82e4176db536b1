package serverctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"fmtd/internal/history"
)

// Backend status tags reported by the formatting server.
const (
	StatusFormatted       = "Formatted"
	StatusIgnored         = "Ignored"
	StatusFailed          = "Failed"
	StatusUnsupportedFile = "UnsupportedFile"
)

// BackendError reports a failure surfaced by the formatting server.
type BackendError struct {
	HTTPStatus int
	Status     string
	Message    string
}

func (e *BackendError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "formatting failed without a reason"
	}
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("formatting server returned %d: %s", e.HTTPStatus, msg)
	}
	if e.Status != "" && e.Status != StatusFormatted {
		return fmt.Sprintf("formatting failed (%s): %s", e.Status, msg)
	}
	return msg
}

type formatRequest struct {
	FileName     string `json:"fileName"`
	FileContents string `json:"fileContents"`
}

type formatResponse struct {
	FormattedFile *string `json:"formattedFile"`
	ErrorMessage  string  `json:"errorMessage"`
	Status        string  `json:"status"`
}

// Format ensures a server is available, proxies the contents to it, refreshes
// the descriptor's last-access time, and returns the formatted text.
//
// The file name is a hint for the backend's file-type detection; nothing is
// ever written to that path.
func (c *Controller) Format(ctx context.Context, fileName, contents string) (string, error) {
	started := time.Now()

	desc, err := c.Ensure(ctx)
	if err != nil {
		return "", err
	}

	if !filepath.IsAbs(fileName) {
		if abs, absErr := filepath.Abs(fileName); absErr == nil {
			fileName = abs
		}
	}

	payload, err := json.Marshal(formatRequest{FileName: fileName, FileContents: contents})
	if err != nil {
		return "", fmt.Errorf("encode format request: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d/format", desc.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build format request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("format request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		backendErr := &BackendError{HTTPStatus: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		c.record(ctx, desc.InstanceID, fileName, "", started, backendErr.Message)
		return "", backendErr
	}

	var result formatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode format response: %w", err)
	}

	// The only place lastAccess advances: actual use, not mere ensure.
	desc.Touch()
	if err := c.store.Save(desc); err != nil {
		c.logger.Warn("failed to refresh server descriptor", "error", err)
	}

	if result.FormattedFile == nil {
		backendErr := &BackendError{Status: result.Status, Message: result.ErrorMessage}
		c.record(ctx, desc.InstanceID, fileName, result.Status, started, backendErr.Message)
		return "", backendErr
	}

	c.record(ctx, desc.InstanceID, fileName, result.Status, started, "")
	return *result.FormattedFile, nil
}

func (c *Controller) record(ctx context.Context, instanceID, fileName, status string, started time.Time, errMsg string) {
	if c.history == nil || !c.cfg.History.Enabled {
		return
	}
	if status == "" {
		status = StatusFailed
	}
	rec := history.Record{
		InstanceID:   instanceID,
		FileName:     fileName,
		Status:       status,
		Duration:     time.Since(started),
		ErrorMessage: errMsg,
	}
	if err := c.history.Record(ctx, rec); err != nil {
		c.logger.Debug("failed to record invocation history", "error", err)
	}
}

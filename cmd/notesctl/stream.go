package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/JaimeStill/delivery-notes/internal/jobs"
	"github.com/JaimeStill/delivery-notes/pkg/handlers"
)

const maxEventSize = 1 << 20

// submitBatch posts files to the batch endpoint and returns the open event
// stream. Non-2xx responses are decoded into their error detail.
func submitBatch(ctx context.Context, client *http.Client, baseURL string, paths []string) (*http.Response, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		part, err := mw.CreateFormFile(jobs.UploadField, filepath.Base(path))
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(baseURL, "/") + "/api/documents/batch-process"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var e handlers.ErrorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxEventSize)).Decode(&e); err != nil || e.Detail == "" {
			return nil, fmt.Errorf("batch rejected: %s", resp.Status)
		}
		return nil, fmt.Errorf("batch rejected: %s: %s", resp.Status, e.Detail)
	}
	return resp, nil
}

// readEvents parses a text/event-stream body line by line and calls fn for
// every data line. Other SSE fields and blank separators are ignored.
func readEvents(r io.Reader, fn func(jobs.Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}

		var ev jobs.Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return fmt.Errorf("malformed event %q: %w", data, err)
		}
		fn(ev)
	}
	return scanner.Err()
}

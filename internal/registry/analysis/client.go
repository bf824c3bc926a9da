// Package analysis calls the optional document-analysis endpoint after a
// certification. The call is best-effort by contract: callers invoke it from
// a detached goroutine and only log failures.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"quorum/internal/registry/models"
	id "quorum/pkg/domain"
)

type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient builds a client for the analysis endpoint. An empty endpoint
// yields a nil client, which wiring treats as "analysis disabled".
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		return nil
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type analyzeRequest struct {
	LedgerID string `json:"ledger_id"`
	Bucket   string `json:"storage_bucket"`
	Path     string `json:"storage_path"`
	FileHash string `json:"file_hash"`
}

// Analyze posts the certified pointer to the analysis endpoint.
func (c *Client) Analyze(ctx context.Context, ledgerID id.LedgerID, ptr models.StoragePointer, fileHash string) error {
	payload, err := json.Marshal(analyzeRequest{
		LedgerID: ledgerID.String(),
		Bucket:   ptr.Bucket,
		Path:     ptr.Path,
		FileHash: fileHash,
	})
	if err != nil {
		return fmt.Errorf("marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call analysis endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("analysis endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// Package ringwatch coordinates the shared fraud ring analysis
// snapshot: fetching it from the ring detection service, caching it
// with a TTL and retrying export lock conflicts.
package ringwatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SoganiJ/insurax/internal/domain"
)

var (
	// ErrLockContention means the ring service is holding a graph
	// export lock and the detection call can be retried.
	ErrLockContention = errors.New("ring service export lock held")

	// ErrSnapshotUnavailable means no snapshot could be obtained and
	// evaluation should proceed without network evidence.
	ErrSnapshotUnavailable = errors.New("network snapshot unavailable")
)

// The ring service reports lock conflicts as a 500 with this phrase in
// the error body. The client maps it to ErrLockContention so callers
// never match on strings.
const lockContentionMarker = "existing exports of data"

// DetectRequest is the full-dataset payload posted to the detection
// endpoint.
type DetectRequest struct {
	Users    []*domain.User   `json:"users"`
	Policies []*domain.Policy `json:"policies"`
	Claims   []*domain.Claim  `json:"claims"`
}

type detectResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Results struct {
		SuspiciousNetworks []domain.SuspiciousNetwork  `json:"suspiciousNetworks"`
		FraudIndicators    domain.FraudIndicators      `json:"fraudIndicators"`
		RiskScores         map[string]domain.RiskEntry `json:"riskScores"`
	} `json:"results"`
}

// Detector runs one fraud ring detection pass.
type Detector interface {
	Detect(ctx context.Context, req *DetectRequest) (*domain.NetworkAnalysisSnapshot, error)
}

// Client calls the fraud ring detection HTTP service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a ring service client. The timeout bounds the
// whole detection call including body transfer.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Detect posts the dataset and decodes the resulting snapshot.
func (c *Client) Detect(ctx context.Context, req *DetectRequest) (*domain.NetworkAnalysisSnapshot, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode detect request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/fraud-rings/detect", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build detect request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("detect call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read detect response: %w", err)
	}

	var decoded detectResponse
	if err := json.Unmarshal(raw, &decoded); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("failed to decode detect response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if strings.Contains(strings.ToLower(msg), lockContentionMarker) {
			return nil, fmt.Errorf("detect returned %d: %s: %w", resp.StatusCode, msg, ErrLockContention)
		}
		return nil, fmt.Errorf("detect returned %d: %s", resp.StatusCode, msg)
	}

	return &domain.NetworkAnalysisSnapshot{
		SuspiciousNetworks: decoded.Results.SuspiciousNetworks,
		FraudIndicators:    decoded.Results.FraudIndicators,
		RiskScores:         decoded.Results.RiskScores,
		FetchedAt:          time.Now().UTC(),
		Source:             c.baseURL,
	}, nil
}

// Package vision calls the document OCR and image analysis services.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SoganiJ/insurax/internal/domain"
)

// Client calls the OCR and CNN analysis endpoints.
type Client struct {
	ocrURL string
	cnnURL string
	http   *http.Client
}

// NewClient creates a vision client. The two URLs may point at the
// same service.
func NewClient(ocrURL, cnnURL string, timeout time.Duration) *Client {
	return &Client{
		ocrURL: strings.TrimRight(ocrURL, "/"),
		cnnURL: strings.TrimRight(cnnURL, "/"),
		http:   &http.Client{Timeout: timeout},
	}
}

type analyzeDocumentResponse struct {
	Success  bool                      `json:"success"`
	Error    string                    `json:"error,omitempty"`
	Analyses []domain.DocumentAnalysis `json:"analyses"`
}

type analyzeImageResponse struct {
	Success  bool                   `json:"success"`
	Error    string                 `json:"error,omitempty"`
	Analyses []domain.ImageAnalysis `json:"analyses"`
}

// AnalyzeDocuments runs OCR over the referenced documents.
func (c *Client) AnalyzeDocuments(ctx context.Context, claimID string, documentRefs []string) ([]domain.DocumentAnalysis, error) {
	var decoded analyzeDocumentResponse
	if err := c.post(ctx, c.ocrURL+"/api/ocr/analyze", claimID, documentRefs, &decoded); err != nil {
		return nil, err
	}
	if !decoded.Success {
		return nil, fmt.Errorf("ocr analysis failed: %s", decoded.Error)
	}
	return decoded.Analyses, nil
}

// AnalyzeImages runs the scene model over the referenced images.
func (c *Client) AnalyzeImages(ctx context.Context, claimID string, imageRefs []string) ([]domain.ImageAnalysis, error) {
	var decoded analyzeImageResponse
	if err := c.post(ctx, c.cnnURL+"/api/cnn/analyze", claimID, imageRefs, &decoded); err != nil {
		return nil, err
	}
	if !decoded.Success {
		return nil, fmt.Errorf("image analysis failed: %s", decoded.Error)
	}
	return decoded.Analyses, nil
}

func (c *Client) post(ctx context.Context, url, claimID string, refs []string, out any) error {
	body, err := json.Marshal(map[string]any{
		"claimId": claimID,
		"refs":    refs,
	})
	if err != nil {
		return fmt.Errorf("failed to encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("analyze call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("analyze returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode analyze response: %w", err)
	}
	return nil
}

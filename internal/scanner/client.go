package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RishiKendai/aegis-console/internal/models"
	"github.com/rs/zerolog/log"
)

// Client talks to the external plagiarism-scanning service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a scanning service client. Timeout is owned by the
// transport; zero disables it.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Scan asks the service to run a pairwise similarity scan for the class and
// returns the result collection in arrival order.
func (c *Client) Scan(ctx context.Context, classID, token string) ([]models.PlagiarismResult, error) {
	endpoint := fmt.Sprintf("%s/api/v1/classes/%s/plagiarism/check", c.baseURL, url.PathEscape(classID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, &ScanTransportError{Op: "build request", Err: err}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	log.Trace().Str("classId", classID).Str("url", endpoint).Msg("Sending scan request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ScanTransportError{Op: "execute request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ScanTransportError{Op: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ScanRequestError{
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(body),
		}
	}

	results, err := decodeResults(body)
	if err != nil {
		return nil, &ScanTransportError{Op: "decode response", Err: err}
	}

	return results, nil
}

// decodeResults accepts either a bare list or an object with a results field.
func decodeResults(body []byte) ([]models.PlagiarismResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []models.PlagiarismResult{}, nil
	}

	var results []models.PlagiarismResult
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result list: %w", err)
		}
	} else {
		var scanResp models.ScanResponse
		if err := json.Unmarshal(trimmed, &scanResp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scan response: %w", err)
		}
		results = scanResp.Results
	}

	if results == nil {
		results = []models.PlagiarismResult{}
	}
	return results, nil
}

func errorDetail(body []byte) string {
	var errResp models.ScanErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}

	switch {
	case errResp.Detail != "":
		return errResp.Detail
	case errResp.Message != "":
		return errResp.Message
	default:
		return errResp.Error
	}
}

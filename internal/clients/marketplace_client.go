package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// MarketplaceClient handles communication with the marketplace service,
// which owns listings and bookings. The dashboard only needs counts and
// the current month's completed revenue from it.
type MarketplaceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMarketplaceClient creates a new marketplace service client
func NewMarketplaceClient(baseURL string) *MarketplaceClient {
	return &MarketplaceClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WorkspaceUsage holds listing/booking figures for one workspace
type WorkspaceUsage struct {
	ListingCount int64   `json:"listing_count"`
	BookingCount int64   `json:"booking_count"`
	// MonthlyRevenue sums the current month's completed bookings
	MonthlyRevenue float64 `json:"monthly_revenue"`
}

// getWorkspaceUsageResponse represents the marketplace service envelope
type getWorkspaceUsageResponse struct {
	Success bool            `json:"success"`
	Data    *WorkspaceUsage `json:"data,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GetWorkspaceUsage returns listing/booking counts and monthly completed
// revenue for a workspace
func (c *MarketplaceClient) GetWorkspaceUsage(ctx context.Context, workspaceID uuid.UUID) (*WorkspaceUsage, error) {
	url := fmt.Sprintf("%s/api/v1/internal/workspaces/%s/usage", c.baseURL, workspaceID.String())
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Workspace-ID", workspaceID.String())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil // No usage recorded yet - not an error
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var response getWorkspaceUsageResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if response.Error != nil {
			return nil, fmt.Errorf("marketplace service error: %s - %s", response.Error.Code, response.Error.Message)
		}
		return nil, fmt.Errorf("marketplace service returned status %d: %s", resp.StatusCode, string(body))
	}

	if response.Data == nil {
		return &WorkspaceUsage{}, nil
	}

	return response.Data, nil
}

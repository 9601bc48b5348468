package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dalia-manager/internal/models"
)

// DocumentGenerator renders the printable PDFs handed to resellers
type DocumentGenerator interface {
	// GenerateReceipt renders the settlement receipt and returns its URL
	GenerateReceipt(ctx context.Context, settlement *models.Settlement, items []models.SettlementItem) (string, error)
	// GenerateSupplySheet renders the packing list of a freshly supplied suitcase
	GenerateSupplySheet(ctx context.Context, suitcase *models.Suitcase, items []models.GroupedItem) (string, error)
}

// HTTPDocumentGenerator calls the document rendering service over HTTP
type HTTPDocumentGenerator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDocumentGenerator creates a document generator backed by the
// rendering service at baseURL
func NewHTTPDocumentGenerator(baseURL string, timeout time.Duration) *HTTPDocumentGenerator {
	return &HTTPDocumentGenerator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type documentResponse struct {
	URL string `json:"url"`
}

func (g *HTTPDocumentGenerator) render(ctx context.Context, path string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("document service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("document service returned status %d", resp.StatusCode)
	}

	var out documentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode document response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("document service returned empty url")
	}
	return out.URL, nil
}

// GenerateReceipt renders the settlement receipt PDF
func (g *HTTPDocumentGenerator) GenerateReceipt(ctx context.Context, settlement *models.Settlement, items []models.SettlementItem) (string, error) {
	payload := map[string]interface{}{
		"settlement": settlement,
		"items":      items,
	}
	return g.render(ctx, "/receipts", payload)
}

// GenerateSupplySheet renders the packing list PDF for a suitcase
func (g *HTTPDocumentGenerator) GenerateSupplySheet(ctx context.Context, suitcase *models.Suitcase, items []models.GroupedItem) (string, error) {
	payload := map[string]interface{}{
		"suitcase": suitcase,
		"items":    items,
	}
	return g.render(ctx, "/supply-sheets", payload)
}

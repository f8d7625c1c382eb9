package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"geofence-tracker/internal/features/geofence/ports"
)

// BookingCheckoutClient calls the booking service's checkout endpoint.
type BookingCheckoutClient struct {
	baseURL string
	client  *http.Client
}

// NewBookingCheckoutClient creates a client for the booking service at baseURL.
func NewBookingCheckoutClient(baseURL string, client *http.Client) *BookingCheckoutClient {
	return &BookingCheckoutClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// TriggerCheckout posts the request to /bookings/{id}/checkout. Any 2xx answer
// counts as accepted; 409 means the booking was already checked out and is
// treated as success too.
func (b *BookingCheckoutClient) TriggerCheckout(ctx context.Context, req ports.CheckoutRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bookings/%s/checkout", b.baseURL, url.PathEscape(req.BookingID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("checkout request for booking %s failed: %w", req.BookingID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("booking service rejected checkout of %s: status %d: %s", req.BookingID, resp.StatusCode, strings.TrimSpace(string(msg)))
}

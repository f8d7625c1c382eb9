package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"geofence-tracker/internal/core/httpclient"
	"geofence-tracker/internal/features/geofence/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingCheckoutClient_TriggerCheckout(t *testing.T) {
	var got ports.CheckoutRequest
	var path string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	client := NewBookingCheckoutClient(ts.URL+"/", httpclient.NewClient(time.Second))
	err := client.TriggerCheckout(context.Background(), ports.CheckoutRequest{
		BookingID: "b 1",
		SessionID: "s1",
		Reason:    "auto_checkout",
		ExitCount: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, "/bookings/b 1/checkout", path)
	assert.Equal(t, "auto_checkout", got.Reason)
	assert.Equal(t, 2, got.ExitCount)
}

func TestBookingCheckoutClient_StatusHandling(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"OK", http.StatusOK, false},
		{"AlreadyCheckedOut", http.StatusConflict, false},
		{"NotFound", http.StatusNotFound, true},
		{"ServerError", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("booking says no"))
			}))
			defer ts.Close()

			err := NewBookingCheckoutClient(ts.URL, httpclient.NewClient(time.Second)).
				TriggerCheckout(context.Background(), ports.CheckoutRequest{BookingID: "b1"})
			if tt.wantErr {
				assert.ErrorContains(t, err, "booking says no")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingCheckoutClient_Unreachable(t *testing.T) {
	client := NewBookingCheckoutClient("http://127.0.0.1:1", httpclient.NewClient(time.Second))
	err := client.TriggerCheckout(context.Background(), ports.CheckoutRequest{BookingID: "b1"})
	assert.ErrorContains(t, err, "checkout request for booking b1 failed")
}

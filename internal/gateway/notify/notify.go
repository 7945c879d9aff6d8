package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
)

// Broadcast is the payload pushed to a candidate courier during a broadcast
// cycle.
type Broadcast struct {
	BroadcastID     string        `json:"broadcast_id"`
	OrderID         string        `json:"order_id"`
	Priority        bool          `json:"priority"`
	Bonus           float64       `json:"bonus"`
	Attempt         int           `json:"attempt"`
	Urgent          bool          `json:"urgent"`
	WaitingTime     time.Duration `json:"waiting_time"`
	OrderValue      float64       `json:"order_value"`
	StoreLocation   *domain.Point `json:"store_location,omitempty"`
	DeliveryAddress string        `json:"delivery_address"`
	DistanceMeters  float64       `json:"distance_meters"`
}

// HTTPGateway pushes dispatch events to the notification service over HTTP.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a notification gateway. Returns nil when no base
// URL is configured, matching the optional-dependency convention used for
// the Kafka consumer.
func NewHTTPGateway(baseURL string, client *http.Client) *HTTPGateway {
	if strings.TrimSpace(baseURL) == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPGateway{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Broadcast notifies a courier that an order is available.
func (g *HTTPGateway) Broadcast(ctx context.Context, courierID string, b Broadcast) error {
	return g.post(ctx, "/v1/couriers/"+courierID+"/order-available", b)
}

// NotifyClaimed tells every losing courier that the order is taken.
func (g *HTTPGateway) NotifyClaimed(ctx context.Context, courierIDs []string, orderID string) error {
	if len(courierIDs) == 0 {
		return nil
	}
	return g.post(ctx, "/v1/couriers/order-taken", map[string]any{
		"order_id":    orderID,
		"courier_ids": courierIDs,
	})
}

// NotifyFailed tells the customer their order could not be delivered.
func (g *HTTPGateway) NotifyFailed(ctx context.Context, customerID, orderID, reason string) error {
	return g.post(ctx, "/v1/customers/"+customerID+"/delivery-failed", map[string]any{
		"order_id":        orderID,
		"reason":          reason,
		"refund_eligible": true,
	})
}

// NotifyAdmins raises an operational event to administrators.
func (g *HTTPGateway) NotifyAdmins(ctx context.Context, event string, payload any) error {
	return g.post(ctx, "/v1/admins/events", map[string]any{
		"event":   event,
		"payload": payload,
	})
}

func (g *HTTPGateway) post(ctx context.Context, path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("notify gateway: marshal %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("notify gateway: request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify gateway: POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Path: path}
	}
	return nil
}

// StatusError is a non-2xx gateway response.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("notify gateway: POST %s: status %d", e.Path, e.Code)
}

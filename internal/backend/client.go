package backend

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

	"github.com/charmbracelet/log"
)

// Client talks to the assistant backend over its REST contract. Every
// call is a single attempt: failures are returned to the caller, which
// decides whether the cached state moves at all.
type Client struct {
	baseURL string
	http    *http.Client
	log     *log.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logger,
	}
}

func (c *Client) CreateUser(ctx context.Context, req UserCreateRequest) (*UserProfileResponse, error) {
	var resp UserProfileResponse
	if err := c.do(ctx, http.MethodPost, "/users", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RegisterDevice(ctx context.Context, req DeviceRegistrationRequest) error {
	return c.do(ctx, http.MethodPost, "/devices/register", nil, req, nil)
}

func (c *Client) DeviceProfile(ctx context.Context, deviceID string) (*DeviceProfile, error) {
	var resp DeviceProfile
	if err := c.do(ctx, http.MethodGet, "/devices/"+deviceID, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateDeviceProfile(ctx context.Context, deviceID string, req UpdateDeviceProfileRequest) error {
	return c.do(ctx, http.MethodPut, "/devices/"+deviceID, nil, req, nil)
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Reminders(ctx context.Context, deviceID string) ([]ReminderResponse, error) {
	query := url.Values{"device_id": {deviceID}}

	var resp []ReminderResponse
	if err := c.do(ctx, http.MethodGet, "/reminders", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) CreateReminder(ctx context.Context, req CreateReminderRequest) (*ReminderResponse, error) {
	var resp ReminderResponse
	if err := c.do(ctx, http.MethodPost, "/reminders", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateReminder(ctx context.Context, id string, req UpdateReminderRequest) (*ReminderResponse, error) {
	var resp ReminderResponse
	if err := c.do(ctx, http.MethodPatch, "/reminders/"+id, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteReminder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/reminders/"+id, nil, nil, nil)
}

func (c *Client) TriggerEmergency(ctx context.Context, req TriggerEmergencyRequest) error {
	return c.do(ctx, http.MethodPost, "/trigger-emergency", nil, req, nil)
}

func (c *Client) EmergencyStatus(ctx context.Context, deviceID string) (*EmergencyStatusResponse, error) {
	var resp EmergencyStatusResponse
	if err := c.do(ctx, http.MethodGet, "/emergency-status/"+deviceID, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend returned %d for %s %s: %s",
			resp.StatusCode, method, path, strings.TrimSpace(string(detail)))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response for %s %s: %w", method, path, err)
	}
	return nil
}

// Package chatapi is the HTTP client for the backend chat/listing service.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/internal/infrastructure/telemetry"
	"marketchat/pkg/errors"
	"marketchat/pkg/logger"
)

// DefaultTimeout is the deadline applied to every outbound call.
const DefaultTimeout = 15 * time.Second

const maxErrorBody = 512

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

var _ repository.ChatBackend = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   c.timeout,
		}
	}
	return c
}

func (c *Client) LookupRoom(ctx context.Context, roomID string, userID entity.Identity) (*entity.RoomLookup, error) {
	path := "/chat/rooms/" + url.PathEscape(roomID) + "?userId=" + url.QueryEscape(userID.String())
	var room entity.RoomLookup
	if err := c.do(ctx, "lookup_room", http.MethodGet, path, nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) CreateOrGetRoom(ctx context.Context, req entity.CreateRoomRequest) (*entity.RoomLookup, error) {
	var room entity.RoomLookup
	if err := c.do(ctx, "create_room", http.MethodPost, "/chat/rooms", req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) GetListing(ctx context.Context, listingID int64) (*entity.RawListing, error) {
	var listing entity.RawListing
	if err := c.do(ctx, "get_listing", http.MethodGet, "/items/"+strconv.FormatInt(listingID, 10), nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

func (c *Client) UpdateListingStatus(ctx context.Context, listingID int64, req entity.StatusUpdateRequest) (*entity.StatusUpdateResponse, error) {
	var resp entity.StatusUpdateResponse
	path := "/items/" + strconv.FormatInt(listingID, 10) + "/status"
	if err := c.do(ctx, "update_status", http.MethodPut, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) (err error) {
	start := time.Now()
	defer func() { telemetry.ObserveBackendRequest(op, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, merr := json.Marshal(body)
		if merr != nil {
			return errors.NetworkOrServer("Failed to encode request", 0, merr)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.NetworkOrServer("Failed to build request", 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debug("backend %s %s", method, path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NetworkOrServer(fmt.Sprintf("%s %s failed", method, path), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.NetworkOrServer(
			fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode),
			resp.StatusCode,
			fmt.Errorf("%s", strings.TrimSpace(string(snippet))),
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NetworkOrServer("Failed to decode response", resp.StatusCode, err)
	}
	return nil
}

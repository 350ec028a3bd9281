package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	bk "github.com/hanksha/garage-booking-backend/booking"
	"github.com/patrickmn/go-cache"
)

var ErrRequestFailed = errors.New("remote request failed")

const bookingsCacheKey = "bookings"

// Client talks to the spreadsheet-backed booking endpoint. Every call carries
// the shared token both as a query parameter and, for POSTs, in the body.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
	cache    *cache.Cache

	// generation increases on every fetch and mutation; a fetch whose
	// generation is no longer current when its response arrives is stale.
	generation atomic.Uint64
}

type createRequest struct {
	Token  string `json:"token"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Title  string `json:"title"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
	Notes  string `json:"notes"`
	Status string `json:"status"`
}

type deleteRequest struct {
	Token  string `json:"token"`
	Action string `json:"action"`
	ID     string `json:"id"`
}

// NewClient uses httpClient when given. No timeout is imposed beyond the
// caller's context.
func NewClient(endpoint, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		endpoint: endpoint,
		token:    token,
		client:   httpClient,
		cache:    cache.New(30*time.Second, 5*time.Minute),
	}
}

// Fetch returns every booking row known to the backend. It returns
// booking.ErrStaleResponse when a newer fetch or a mutation was issued while
// this one was in flight.
func (c *Client) Fetch(ctx context.Context) ([]bk.Record, error) {
	cachedRecords, found := c.cache.Get(bookingsCacheKey)

	if found {
		return cachedRecords.([]bk.Record), nil
	}

	generation := c.generation.Add(1)

	fetchURL, err := c.getURL()

	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, http.NoBody)

	if err != nil {
		return nil, fmt.Errorf("failed create new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	status, bodyBytes, err := c.do(req)

	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status '%v' and body:\n%v", ErrRequestFailed, status, string(bodyBytes))
	}

	var rows []json.RawMessage
	err = json.Unmarshal(bodyBytes, &rows)

	if err != nil {
		return nil, fmt.Errorf("failed reading body: %w", err)
	}

	records := make([]bk.Record, 0, len(rows))

	// rows whose fields have the wrong JSON type are dropped, not fatal
	for _, row := range rows {
		var record bk.Record

		if err := json.Unmarshal(row, &record); err != nil {
			continue
		}

		records = append(records, record)
	}

	if c.generation.Load() != generation {
		return nil, bk.ErrStaleResponse
	}

	c.cache.Set(bookingsCacheKey, records, cache.DefaultExpiration)

	return records, nil
}

// Create submits a booking request and returns it with the server id.
// A 409 response is reported as booking.ErrSlotConflict.
func (c *Client) Create(ctx context.Context, booking bk.Booking) (bk.Booking, error) {
	c.invalidate()

	body := createRequest{
		Token:  c.token,
		Start:  booking.Start.UTC().Format(time.RFC3339Nano),
		End:    booking.End.UTC().Format(time.RFC3339Nano),
		Title:  booking.Title,
		Name:   booking.Contact.Name,
		Phone:  booking.Contact.Phone,
		Email:  booking.Contact.Email,
		Notes:  booking.Contact.Notes,
		Status: string(bk.StatusRequested),
	}

	status, bodyBytes, err := c.post(ctx, body)

	if err != nil {
		return bk.Booking{}, err
	}

	if status == http.StatusConflict {
		return bk.Booking{}, bk.ErrSlotConflict
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return bk.Booking{}, fmt.Errorf("%w: status '%v' and body:\n%v", ErrRequestFailed, status, string(bodyBytes))
	}

	var created bk.Record
	err = json.Unmarshal(bodyBytes, &created)

	if err != nil {
		return bk.Booking{}, fmt.Errorf("failed reading body: %w", err)
	}

	if len(created.ID) == 0 {
		return bk.Booking{}, fmt.Errorf("%w: response has no booking id", ErrRequestFailed)
	}

	booking.ID = created.ID
	booking.Status = bk.StatusRequested

	return booking, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	c.invalidate()

	status, bodyBytes, err := c.post(ctx, deleteRequest{Token: c.token, Action: "delete", ID: id})

	if err != nil {
		return err
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status '%v' and body:\n%v", ErrRequestFailed, status, string(bodyBytes))
	}

	return nil
}

func (c *Client) invalidate() {
	c.generation.Add(1)
	c.cache.Delete(bookingsCacheKey)
}

func (c *Client) post(ctx context.Context, payload any) (int, []byte, error) {
	postURL, err := c.getURL()

	if err != nil {
		return 0, nil, err
	}

	body, err := json.Marshal(payload)

	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, bytes.NewReader(body))

	if err != nil {
		return 0, nil, fmt.Errorf("failed create new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	res, err := c.client.Do(req)

	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}

	defer res.Body.Close()

	bodyBytes, err := io.ReadAll(res.Body)

	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("request returned status %d; failed reading body: %w", res.StatusCode, err)
	}

	return res.StatusCode, bodyBytes, nil
}

func (c *Client) getURL() (string, error) {
	endpointURL, err := url.Parse(c.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to create URL: %w", err)
	}

	q := endpointURL.Query()
	q.Set("token", c.token)
	endpointURL.RawQuery = q.Encode()

	return endpointURL.String(), nil
}

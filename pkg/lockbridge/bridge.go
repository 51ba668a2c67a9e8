package lockbridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
)

// Client talks to the vendor lock bridge over HTTP. Every command runs
// under a bounded timeout; a lock actuation is never retried here, the
// operator decides whether to reattempt.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{},
	}
}

func (c *Client) Lock(ctx context.Context, deviceID int64) error {
	return c.command(ctx, deviceID, "lock")
}

func (c *Client) Unlock(ctx context.Context, deviceID int64) error {
	return c.command(ctx, deviceID, "unlock")
}

func (c *Client) Sync(ctx context.Context, deviceID int64) error {
	return c.command(ctx, deviceID, "sync")
}

func (c *Client) command(ctx context.Context, deviceID int64, action string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/devices/%d/%s", c.baseURL, deviceID, action)

	params := url.Values{}
	params.Add("device_id", strconv.FormatInt(deviceID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = params.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return entity.ErrDeviceTimeout
		}
		return fmt.Errorf("%w: %v", entity.ErrDeviceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: bridge returned %s", entity.ErrDeviceUnreachable, resp.Status)
	}

	return nil
}

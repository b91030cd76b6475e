package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultWebhookTimeout bounds each webhook POST.
const DefaultWebhookTimeout = 10 * time.Second

func newWebhookClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "classifyprobe")
}

// postJSON sends body to url and accepts any of the ok statuses.
func postJSON(ctx context.Context, client *resty.Client, service, url string, body any, ok ...int) error {
	resp, err := client.R().
		SetContext(ctx).
		SetBody(body).
		Post(url)
	if err != nil {
		return fmt.Errorf("failed to send %s notification: %w", service, err)
	}
	for _, code := range ok {
		if resp.StatusCode() == code {
			return nil
		}
	}
	return fmt.Errorf("%s webhook returned status %d: %s", service, resp.StatusCode(), resp.String())
}

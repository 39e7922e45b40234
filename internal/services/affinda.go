package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	affindaPollInterval = 2 * time.Second
	affindaMaxPolls     = 15
)

// affindaExtractor sends the document to the Affinda parsing API and reads
// back its raw text.
type affindaExtractor struct {
	client       *resty.Client
	baseURL      string
	pollInterval time.Duration
}

func affindaBaseURL(region string) string {
	if region == "" {
		region = "api"
	}
	return fmt.Sprintf("https://%s.affinda.com/v3", region)
}

func newAffindaExtractor(baseURL, apiKey string) *affindaExtractor {
	client := resty.New().
		SetAuthToken(apiKey).
		SetTimeout(90 * time.Second)

	return &affindaExtractor{client: client, baseURL: baseURL, pollInterval: affindaPollInterval}
}

func (a *affindaExtractor) Name() string { return "affinda" }

func (a *affindaExtractor) ExtractPages(ctx context.Context, data []byte) ([]string, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("wait", "true").
		SetFileReader("file", "resume", bytes.NewReader(data)).
		Post(a.baseURL + "/documents")
	if err != nil {
		return nil, fmt.Errorf("affinda upload failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("affinda upload failed with status %d", resp.StatusCode())
	}

	body := resp.String()
	identifier := gjson.Get(body, "meta.identifier").String()
	if identifier == "" {
		identifier = gjson.Get(body, "identifier").String()
	}

	for poll := 0; !affindaReady(body); poll++ {
		if identifier == "" {
			return nil, fmt.Errorf("affinda response has no document identifier")
		}
		if poll >= affindaMaxPolls {
			return nil, fmt.Errorf("affinda document %s not ready after %d polls", identifier, poll)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.pollInterval):
		}

		log.Printf("⏳ Waiting for affinda document %s\n", identifier)
		status, err := a.client.R().SetContext(ctx).Get(a.baseURL + "/documents/" + identifier)
		if err != nil {
			return nil, fmt.Errorf("affinda status check failed: %w", err)
		}
		if status.IsError() {
			return nil, fmt.Errorf("affinda status check failed with status %d", status.StatusCode())
		}
		body = status.String()
	}

	if gjson.Get(body, "meta.failed").Bool() {
		return nil, fmt.Errorf("affinda could not parse document %s: %s",
			identifier, gjson.Get(body, "meta.errorDetail").String())
	}

	text := gjson.Get(body, "data.rawText").String()
	return []string{text}, nil
}

func affindaReady(body string) bool {
	ready := gjson.Get(body, "meta.ready")
	if !ready.Exists() {
		return gjson.Get(body, "data.rawText").Exists()
	}
	return ready.Bool()
}

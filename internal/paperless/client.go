package paperless

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"stmtproc/internal/config"
)

const (
	userAgent = "stmtproc/1.0.0"

	// Paperless serves 25 documents per page by default.
	pageSize = 25

	maxRetries = 3
)

// Document is one statement document as returned by the repository.
// Correspondent is normalized to a string: the API may return a name, a
// numeric ID, an object, or null, and the parser registry accepts names and
// IDs as equivalent aliases.
type Document struct {
	ID            int
	Correspondent string
	Content       string
	CreatedDate   string
}

// Client talks to a Paperless-ngx document repository using token
// authentication. Transient failures (network errors, 5xx responses) are
// retried with exponential backoff; 4xx responses fail immediately.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cfg     config.PaperlessConfig
	log     zerolog.Logger
	sleep   func(time.Duration)
}

func NewClient(baseURL, apiKey string, cfg config.PaperlessConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		cfg:     cfg,
		log:     log.With().Str("component", "paperless").Logger(),
		sleep:   time.Sleep,
	}
}

// correspondentField absorbs the API's four shapes for the correspondent
// value: string, numeric ID, object with a name, or null.
type correspondentField string

func (c *correspondentField) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*c = ""
	case string:
		*c = correspondentField(val)
	case float64:
		*c = correspondentField(strconv.Itoa(int(val)))
	case map[string]interface{}:
		if name, ok := val["name"].(string); ok {
			*c = correspondentField(name)
		} else {
			*c = ""
		}
	default:
		*c = ""
	}
	return nil
}

type documentPayload struct {
	ID            int                `json:"id"`
	Correspondent correspondentField `json:"correspondent"`
	Content       string             `json:"content"`
	Created       string             `json:"created"`
	Tags          []int              `json:"tags"`
}

type listResponse struct {
	Next    *string           `json:"next"`
	Results []documentPayload `json:"results"`
}

// ListDocuments fetches every account-tagged document created within the
// inclusive date range, following pagination transparently. Unless
// includeProcessed is set, documents already carrying the processed tag are
// excluded server-side.
func (c *Client) ListDocuments(ctx context.Context, dateFrom, dateTo string, includeProcessed bool) ([]Document, error) {
	base := fmt.Sprintf("%s/api/documents/?tags__id__all=%d&created__date__gte=%s&created__date__lte=%s&ordering=created",
		c.baseURL, c.cfg.AccountsTagID, dateFrom, dateTo)
	if !includeProcessed {
		base += fmt.Sprintf("&tags__id__none=%d", c.cfg.ProcessedTagID)
	}

	var docs []Document
	for page := 1; ; page++ {
		c.log.Debug().Int("page", page).Msg("fetching document page")

		body, err := c.doWithRetry(ctx, http.MethodGet, fmt.Sprintf("%s&page=%d", base, page), nil)
		if err != nil {
			return nil, fmt.Errorf("listing documents (page %d): %w", page, err)
		}

		var parsed listResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("decoding document list (page %d): %w", page, err)
		}

		for _, d := range parsed.Results {
			if d.ID == 0 {
				c.log.Warn().Msg("skipping document without id")
				continue
			}
			docs = append(docs, Document{
				ID:            d.ID,
				Correspondent: string(d.Correspondent),
				Content:       d.Content,
				CreatedDate:   d.Created,
			})
		}

		if parsed.Next == nil || len(parsed.Results) < pageSize {
			break
		}
	}

	c.log.Info().Int("documents", len(docs)).Msg("fetched matching documents")
	return docs, nil
}

// DownloadOriginal fetches the original file (the scanned PDF) for a
// document.
func (c *Client) DownloadOriginal(ctx context.Context, documentID int) ([]byte, error) {
	url := fmt.Sprintf("%s/api/documents/%d/download/", c.baseURL, documentID)
	body, err := c.doWithRetry(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("downloading document %d: %w", documentID, err)
	}
	c.log.Debug().Int("document_id", documentID).Int("bytes", len(body)).Msg("downloaded original pdf")
	return body, nil
}

// MarkProcessed adds the processed tag to a document, preserving its other
// tags. Re-marking an already tagged document is a no-op.
func (c *Client) MarkProcessed(ctx context.Context, documentID int) error {
	url := fmt.Sprintf("%s/api/documents/%d/", c.baseURL, documentID)

	body, err := c.doWithRetry(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("fetching document %d for tagging: %w", documentID, err)
	}
	var doc documentPayload
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decoding document %d: %w", documentID, err)
	}

	for _, tag := range doc.Tags {
		if tag == c.cfg.ProcessedTagID {
			c.log.Debug().Int("document_id", documentID).Msg("document already marked processed")
			return nil
		}
	}

	payload, err := json.Marshal(map[string][]int{
		"tags": append(doc.Tags, c.cfg.ProcessedTagID),
	})
	if err != nil {
		return fmt.Errorf("building tag update for document %d: %w", documentID, err)
	}
	if _, err := c.doWithRetry(ctx, http.MethodPatch, url, payload); err != nil {
		return fmt.Errorf("tagging document %d: %w", documentID, err)
	}

	c.log.Info().Int("document_id", documentID).Msg("marked document processed")
	return nil
}

// doWithRetry issues the request up to 1+maxRetries times with 1s/2s/4s
// backoff. Client errors (4xx) are never retried: repeating a bad request
// cannot fix it.
func (c *Client) doWithRetry(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<(attempt-1)) * time.Second
			c.log.Warn().
				Err(lastErr).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("request failed, retrying")
			c.sleep(delay)
		}

		respBody, status, err := c.do(ctx, method, url, body)
		if err != nil {
			lastErr = err
			continue
		}
		if status >= 200 && status < 300 {
			return respBody, nil
		}
		lastErr = fmt.Errorf("HTTP %d from %s %s", status, method, url)
		if status >= 400 && status < 500 {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("retries exhausted: %w", lastErr)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return respBody, resp.StatusCode, nil
}

// Package plantnet identifies plants from photos with Pl@ntNet and asks an
// advisor for care tips about the best match.
package plantnet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the identification endpoint for all floras.
const DefaultBaseURL = "https://my-api.plantnet.org/v2/identify/all"

const (
	notConfigured = "Photo diagnosis is not configured right now."
	maxPhotoBytes = 10 << 20
)

// Advisor produces care advice for an identified plant.
type Advisor interface {
	Ask(ctx context.Context, region, question string) string
}

// Client is a Pl@ntNet identification client.
type Client struct {
	apiKey  string
	baseURL string
	advisor Advisor
	client  *http.Client
	log     *zap.Logger
}

// New creates a client. advisor may be nil; an empty apiKey answers with a
// "not configured" text.
func New(apiKey string, advisor Advisor, log *zap.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		advisor: advisor,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// WithBaseURL points the client at another endpoint.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

type identifyResponse struct {
	Results []struct {
		Score   float64 `json:"score"`
		Species struct {
			ScientificName string `json:"scientificNameWithoutAuthor"`
			Family         struct {
				ScientificName string `json:"scientificNameWithoutAuthor"`
			} `json:"family"`
			CommonNames []string `json:"commonNames"`
		} `json:"species"`
	} `json:"results"`
}

// Diagnose downloads the photo, identifies the plant and appends advice.
func (c *Client) Diagnose(ctx context.Context, photoURL, region string) string {
	if c.apiKey == "" {
		return notConfigured
	}
	photo, err := c.download(ctx, photoURL)
	if err != nil {
		c.log.Warn("photo download failed", zap.Error(err))
		return "Analysis error: " + err.Error()
	}
	res, err := c.identify(ctx, photo)
	if err != nil {
		c.log.Warn("plantnet request failed", zap.Error(err))
		return "Pl@ntNet error: " + err.Error()
	}
	if len(res.Results) == 0 {
		return "The plant was not recognised."
	}

	best := res.Results[0]
	name := orDash(best.Species.ScientificName)
	family := orDash(best.Species.Family.ScientificName)
	common := best.Species.CommonNames
	if len(common) > 3 {
		common = common[:3]
	}
	score := best.Score * 100

	desc := fmt.Sprintf("Photo analysis:\n%s\nFamily: %s\nCommon names: %s\nConfidence: %.1f%%",
		name, family, orDash(strings.Join(common, ", ")), score)
	if c.advisor == nil {
		return desc
	}
	prompt := fmt.Sprintf("Plant: %s (%s). Probability %.0f%%. Possible diseases and pests? Give 2-3 care tips for the region %s.",
		name, family, score, region)
	return desc + "\n\n" + c.advisor.Ask(ctx, region, prompt)
}

func (c *Client) download(ctx context.Context, photoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download photo: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
}

func (c *Client) identify(ctx context.Context, photo []byte) (*identifyResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("images", "photo.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	if _, err := part.Write(photo); err != nil {
		return nil, fmt.Errorf("write form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	q := url.Values{}
	q.Set("api-key", c.apiKey)
	q.Set("lang", "ru")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"?"+q.Encode(), &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Pl@ntNet answers 404 when nothing matched.
		return &identifyResponse{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	var out identifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/upstarthq/idealab-backend/internal/config"
)

// ErrMissingAPIKey indicates the generator cannot run because no Gemini API
// key is configured. This is a configuration error, not a runtime one.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not configured")

// prompt is the fixed analyst instruction. It enumerates the exact report
// schema; the model is asked for JSON-constrained output so the response body
// is a single JSON object matching IdeaReport.
const prompt = `You are an expert startup analyst. Your task is to generate a novel startup idea based on current, real-world trends. You must provide the output in a structured JSON format.

The JSON object must have the following keys: "idea", "analysis", "trends", "goToMarket", "idea_attributes", "idea_health_metrics", and "value_ladder".

1. "idea": an object with "idea_title" (a catchy name for the startup), "problem" (a concise description of a real problem people are facing), "solution" (a clear, innovative solution to that problem), and "market" (the target audience or market).

2. "analysis": an object with "problem", "opportunity", "targetAudience", "competitors", "revenuePotential", "risks", and "whyNow". Provide a detailed breakdown for each field.

3. "trends": an object with "googleTrends" (an array of 3 objects, each with "name" and "interest", a score from 0-100) and "redditMentions" (an array of 2 objects, each with "name" and "mentions", an estimated number of recent mentions).

4. "goToMarket": an object with "landingPageCopy" (an object with "headline", "subheadline", and "cta"), "brandNameSuggestions" (an array of 3 creative brand names), and "adCreativeIdeas" (an array of 2 distinct ad ideas).

5. "idea_attributes": an object with "timing", "advantage", and "quality". For each key, provide a short, catchy phrase (e.g. "Perfect Timing", "Unfair Advantage", "10x Better Solution").

6. "idea_health_metrics": an object with "opportunity", "feasibility", "marketSize", and "whyNow". For each key, provide a numerical score from 0 to 100.

7. "value_ladder": an array of 3 objects, each representing a product tier with "name", "description", and "price". Example tiers: "Freebie", "Core Offer", "Premium Subscription".

Generate a high-quality, plausible, and interesting startup concept. Ensure the final output is a single, valid JSON object. The user will now ask for an idea.`

// Client calls the Gemini generateContent endpoint with a fixed prompt and
// parses the JSON-constrained response into an IdeaReport. It is safe for
// concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// NewClient builds a Client from configuration. It fails fast when the API
// key is absent so the misconfiguration surfaces at startup, not on the
// first cache miss.
func NewClient(cfg config.GeminiConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Wire types for the generateContent request/response. Only the fields this
// client touches are declared.

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"response_mime_type"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate requests one new idea report. It returns both the parsed report
// and the model's raw report JSON so callers can persist the payload
// verbatim.
//
// Error cases: transport failures and non-2xx responses are wrapped with the
// upstream status and body text; empty candidates, malformed JSON, and
// schema-incomplete reports are surfaced as parse/validation errors.
func (c *Client) Generate(ctx context.Context) (*IdeaReport, []byte, error) {
	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: prompt},
				{Text: "Generate a new startup idea."},
			},
		}},
		GenerationConfig: generationConfig{ResponseMIMEType: "application/json"},
	})
	if err != nil {
		return nil, nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("gemini api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var completion generateResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, nil, fmt.Errorf("gemini response decode: %w", err)
	}
	if len(completion.Candidates) == 0 || len(completion.Candidates[0].Content.Parts) == 0 {
		return nil, nil, errors.New("gemini response contained no candidates")
	}

	raw := []byte(completion.Candidates[0].Content.Parts[0].Text)
	report, err := ParseReport(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("gemini report parse: %w", err)
	}
	return report, raw, nil
}

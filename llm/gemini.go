package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const embeddingAPI = "https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent"

// Embedding task types understood by the Gemini embedding API
const (
	TaskTypeQuery    = "RETRIEVAL_QUERY"
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
)

var ErrEmptyCompletion = errors.New("model returned empty content")

// Config holds Gemini client configuration
type Config struct {
	APIKey          string
	GenerationModel string
	EmbeddingModel  string
	EmbeddingDims   int
}

// Client wraps the Gemini SDK for text generation plus the raw embedding
// endpoint, which the SDK does not expose with output-dimensionality control.
type Client struct {
	genai      *genai.Client
	httpClient *http.Client
	cfg        Config
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key not set")
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = "gemini-2.0-flash"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "gemini-embedding-001"
	}
	if cfg.EmbeddingDims == 0 {
		cfg.EmbeddingDims = 768
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{
		genai:      client,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		cfg:        cfg,
	}, nil
}

// Close releases the underlying SDK client
func (c *Client) Close() error {
	return c.genai.Close()
}

// Generate runs one free-form completion with a system instruction.
// Single attempt; callers decide whether a failure is recoverable.
func (c *Client) Generate(ctx context.Context, system, user string, temperature float32) (string, error) {
	model := c.genai.GenerativeModel(c.cfg.GenerationModel)
	model.SetTemperature(temperature)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// GenerateJSON runs one completion constrained to the given response schema
// and unmarshals the result into out. Any transport, shape, or parse failure
// is returned as-is; callers apply their own fallback policy.
func (c *Client) GenerateJSON(ctx context.Context, system, user string, schema *genai.Schema, out interface{}) error {
	model := c.genai.GenerativeModel(c.cfg.GenerationModel)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return fmt.Errorf("generate structured content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return ErrEmptyCompletion
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("failed to decode structured output: %w", err)
	}
	return nil
}

// responseText concatenates all text parts of the first-choice candidates
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var buf bytes.Buffer
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				buf.WriteString(string(text))
			}
		}
	}
	return buf.String()
}

type embeddingRequest struct {
	Model                string       `json:"model"`
	Content              contentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

type contentInput struct {
	Parts []partInput `json:"parts"`
}

type partInput struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// EmbedQuery embeds free text for retrieval queries
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return c.embed(ctx, text, TaskTypeQuery)
}

// EmbedDocument embeds corpus text for ingestion
func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float64, error) {
	return c.embed(ctx, text, TaskTypeDocument)
}

func (c *Client) embed(ctx context.Context, text, taskType string) ([]float64, error) {
	reqBody := embeddingRequest{
		Model: "models/" + c.cfg.EmbeddingModel,
		Content: contentInput{
			Parts: []partInput{{Text: text}},
		},
		TaskType:             taskType,
		OutputDimensionality: c.cfg.EmbeddingDims,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf(embeddingAPI, c.cfg.EmbeddingModel)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding API error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	embedding := apiResp.Embedding.Values
	if len(embedding) == 0 {
		return nil, errors.New("embedding API returned no values")
	}

	// Normalize so cosine distance in pgvector stays well behaved
	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range embedding {
			embedding[i] /= norm
		}
	}

	return embedding, nil
}

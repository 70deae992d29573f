package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	defaultRegion = "europe-west1"
	defaultModel  = "gemini-2.5-flash"
)

const scanPrompt = `Read the letter grid in this photo of a Boggle board.

Answer with JSON in exactly this shape:
{"rows": ["abcd", "efgh", "ijkl", "mnop"]}

Rules:
- One string per row of dice, top to bottom, letters left to right.
- Exactly one lowercase letter per die. Write the "Qu" die as "q".
- Every row has the same number of letters.
- Answer ONLY with the JSON, no comments and no markdown.`

// BoardScanner turns a photo of a board into a Board.
type BoardScanner interface {
	ScanBoard(ctx context.Context, imageData []byte, mimeType string) (*Board, error)
}

// GeminiClient wraps the Google GenAI client for VertexAI.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a client using Application Default Credentials.
// Set GOOGLE_APPLICATION_CREDENTIALS to the service account key file path.
func NewGeminiClient(ctx context.Context, projectID, region, model string) (*GeminiClient, error) {
	if region == "" {
		region = defaultRegion
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: model,
	}, nil
}

// ScanBoard sends an image to Gemini and returns the board it reads.
func (g *GeminiClient) ScanBoard(ctx context.Context, imageData []byte, mimeType string) (*Board, error) {
	ctx, span := tracer.Start(ctx, "boggle.ScanBoard")
	defer span.End()

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: scanPrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: imageData}},
			},
		}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.1)),
			TopP:             genai.Ptr(float32(1)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	return parseScan(resp.Text())
}

// parseScan decodes the model answer into a board.
func parseScan(text string) (*Board, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty gemini response")
	}

	var scan struct {
		Rows []string `json:"rows"`
	}
	if err := json.Unmarshal([]byte(text), &scan); err != nil {
		return nil, fmt.Errorf("parse board JSON: %w\nraw response: %s", err, text)
	}

	rows := make([]string, len(scan.Rows))
	for i, row := range scan.Rows {
		rows[i] = strings.ToLower(strings.Join(strings.Fields(row), ""))
	}
	b, err := NewBoard(rows)
	if err != nil {
		return nil, fmt.Errorf("scanned board: %w", err)
	}
	return b, nil
}

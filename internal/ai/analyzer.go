// Package ai scores interview transcripts using AWS Bedrock (Claude).
// All candidate data stays within AWS - no external API calls.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// AnalysisRequest carries the transcript and hiring context for scoring.
type AnalysisRequest struct {
	Transcript     string
	CandidateName  string
	JobTitle       string
	JobDescription string
}

// AnalysisResult is the structured output persisted on the interview.
type AnalysisResult struct {
	Summary          string             `json:"summary"`
	Sentiment        string             `json:"sentiment"`
	CompetencyScores map[string]float64 `json:"competency_scores"`
}

// Analyzer scores a transcript. The pipeline depends on this interface so
// tests can stub the model call.
type Analyzer interface {
	AnalyzeTranscript(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)
}

// BedrockAnalyzer implements Analyzer against the Bedrock runtime.
type BedrockAnalyzer struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockAnalyzer creates a Bedrock-backed analyzer. Defaults to
// Claude 3 Sonnet if no model is specified.
func NewBedrockAnalyzer(ctx context.Context, region, modelID string) (*BedrockAnalyzer, error) {
	if region == "" {
		region = "us-east-1"
	}
	if modelID == "" {
		modelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &BedrockAnalyzer{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
	}, nil
}

type bedrockMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

const analysisSystemPrompt = `You are an interview analyst for a recruiting platform. ` +
	`Given an interview transcript, respond with a JSON object containing: ` +
	`"summary" (3-5 sentence assessment), "sentiment" (one of: positive, neutral, negative), ` +
	`and "competency_scores" (object mapping competency names to scores from 0 to 10). ` +
	`Respond with JSON only, no prose.`

// AnalyzeTranscript runs the scoring prompt and parses the structured result.
func (a *BedrockAnalyzer) AnalyzeTranscript(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return nil, fmt.Errorf("transcript is empty")
	}

	body, err := json.Marshal(bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        1024,
		System:           analysisSystemPrompt,
		Temperature:      0.2,
		Messages: []bedrockMessage{{
			Role:    "user",
			Content: []contentBlock{{Type: "text", Text: BuildAnalysisPrompt(req)}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal bedrock request: %w", err)
	}

	out, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(a.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke model: %w", err)
	}

	var resp bedrockResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("parse bedrock response: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("empty model response")
	}

	return ParseAnalysis(resp.Content[0].Text)
}

// BuildAnalysisPrompt assembles the user message for the scoring call.
func BuildAnalysisPrompt(req AnalysisRequest) string {
	var b strings.Builder
	if req.CandidateName != "" {
		fmt.Fprintf(&b, "Candidate: %s\n", req.CandidateName)
	}
	if req.JobTitle != "" {
		fmt.Fprintf(&b, "Role: %s\n", req.JobTitle)
	}
	if req.JobDescription != "" {
		fmt.Fprintf(&b, "Role description: %s\n", req.JobDescription)
	}
	fmt.Fprintf(&b, "\nTranscript:\n%s", req.Transcript)
	return b.String()
}

// ParseAnalysis extracts the JSON result from model output, tolerating
// surrounding prose or markdown fences.
func ParseAnalysis(text string) (*AnalysisResult, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(text[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("parse analysis JSON: %w", err)
	}
	if result.Summary == "" {
		return nil, fmt.Errorf("analysis missing summary")
	}
	return &result, nil
}

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "placement",
		Subsystem: "ai",
		Name:      "draft_duration_seconds",
		Help:      "Duration of review draft requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "placement",
		Subsystem: "ai",
		Name:      "draft_failures_total",
		Help:      "Number of review draft failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI assistant.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIAssistant implements Assistant against the OpenAI chat completion API.
type OpenAIAssistant struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIAssistant builds a new assistant using the provided configuration.
func NewOpenAIAssistant(cfg OpenAIConfig) (*OpenAIAssistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	tracer := otel.Tracer("github.com/hangil-edu/placement-engine/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIAssistant{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Draft sends the review request to OpenAI and parses the response.
func (a *OpenAIAssistant) Draft(parent context.Context, input ReviewInput) (ReviewDraft, error) {
	ctx, span := a.tracer.Start(parent, "openai.draft", trace.WithAttributes(
		attribute.String("model", a.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: assistantSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildReviewPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := a.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	aiDuration.WithLabelValues(a.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		aiFailures.WithLabelValues(a.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ReviewDraft{}, fmt.Errorf("openai draft: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(a.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ReviewDraft{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	draft, err := parseDraftResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(a.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ReviewDraft{}, err
	}

	draft.Model = a.cfg.Model
	return draft, nil
}

func assistantSystemPrompt() string {
	return "You are assisting a teacher who reviews placement test answers. Respond with a JSON object containing a single feedb" +
		"ack string summarising the strengths and gaps of the student's answer relative to the expected one. Do not assign a ve" +
		"rdict or a score; the teacher decides those."
}

func buildReviewPrompt(input ReviewInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Question ")
	builder.WriteString(fmt.Sprintf("%d (%s)\n", input.QuestionNumber, input.QuestionType))
	if input.AnswerKey != "" {
		builder.WriteString("\n## Expected\n")
		builder.WriteString(input.AnswerKey)
	}
	if input.RawValue != "" {
		builder.WriteString("\n\n## Student Answer\n")
		builder.WriteString(input.RawValue)
	}
	for i, value := range input.PartValues {
		builder.WriteString(fmt.Sprintf("\n\n## Student Answer Part %d\n", i+1))
		builder.WriteString(value)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseDraftResponse(content string) (ReviewDraft, error) {
	type payload struct {
		Feedback string `json:"feedback"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return ReviewDraft{}, fmt.Errorf("parse draft json: %w", err)
	}

	if strings.TrimSpace(data.Feedback) == "" {
		return ReviewDraft{}, fmt.Errorf("draft feedback is empty")
	}

	return ReviewDraft{Feedback: data.Feedback}, nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// GeminiPolicy delegates the negotiation verdict to a Gemini model. The
// model only advises: every decision is validated and clamped back into
// [minFare, maxFare], and any model failure falls through to the
// deterministic fallback policy, so the termination and bounds guarantees
// of NegotiationPolicy hold regardless of what the model returns.
type GeminiPolicy struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	fallback NegotiationPolicy
	log      *logrus.Logger
}

func NewGeminiPolicy(ctx context.Context, apiKey string, fallback NegotiationPolicy, log *logrus.Logger) (*GeminiPolicy, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-2.0-flash")
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)

	return &GeminiPolicy{
		client:   client,
		model:    model,
		fallback: fallback,
		log:      log,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiPolicy) Close() {
	p.client.Close()
}

type geminiVerdict struct {
	Decision string  `json:"decision"`
	Amount   float64 `json:"amount"`
	Reason   string  `json:"reason"`
}

func (p *GeminiPolicy) Decide(ctx context.Context, referenceFare, proposedFare, minFare, maxFare float64) NegotiationOutcome {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(`Role: You are the fare arbiter for a ride-hailing platform.
A passenger proposed a fare for a ride. Decide the outcome.

Facts:
- Quoted reference fare: %.2f
- Passenger's proposed fare: %.2f
- Lowest acceptable fare: %.2f
- Highest counter allowed: %.2f

Rules:
- If the proposal is at or above the lowest acceptable fare, ACCEPT.
- If it is slightly below, COUNTER with an amount between the lowest
  acceptable fare and the highest counter allowed.
- If it is far too low, REJECT with a short reason.

Output JSON schema:
{"decision": "ACCEPT" | "COUNTER" | "REJECT", "amount": number, "reason": "string"}
`, referenceFare, proposedFare, minFare, maxFare)

	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		p.log.WithError(err).Warn("gemini arbiter unavailable, using fallback policy")
		return p.fallback.Decide(ctx, referenceFare, proposedFare, minFare, maxFare)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		p.log.Warn("gemini arbiter returned no candidates, using fallback policy")
		return p.fallback.Decide(ctx, referenceFare, proposedFare, minFare, maxFare)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}

	var v geminiVerdict
	if err := json.Unmarshal([]byte(cleanJSONString(text.String())), &v); err != nil {
		p.log.WithError(err).Warn("gemini arbiter returned malformed verdict, using fallback policy")
		return p.fallback.Decide(ctx, referenceFare, proposedFare, minFare, maxFare)
	}

	switch strings.ToUpper(v.Decision) {
	case "ACCEPT":
		return NegotiationOutcome{Decision: DecisionAccept}
	case "COUNTER":
		amount := v.Amount
		if amount < minFare {
			amount = minFare
		}
		if amount > maxFare {
			amount = maxFare
		}
		return NegotiationOutcome{Decision: DecisionCounter, Amount: NormalizeFare(amount)}
	case "REJECT":
		reason := v.Reason
		if reason == "" {
			reason = "offer too low"
		}
		return NegotiationOutcome{Decision: DecisionReject, Reason: reason}
	default:
		p.log.WithField("decision", v.Decision).Warn("gemini arbiter returned unknown decision, using fallback policy")
		return p.fallback.Decide(ctx, referenceFare, proposedFare, minFare, maxFare)
	}
}

// cleanJSONString strips markdown code fences if the model wrapped its
// JSON in them.
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}

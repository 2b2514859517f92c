package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"cramingo-backend/internal/quiz"
)

// AnswerService is the Gemini-backed collaborator behind the quiz engine:
// semantic answer checking and multiple-choice distractor generation. Both
// callers treat errors from here as a signal to fall back to deterministic
// behavior, so this service never needs to be reliable — only honest about
// failure.
type AnswerService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

func NewAnswerService(apiKey string, concurrentReqs int) (*AnswerService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.2)
	model.SetTopP(0.95)

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &AnswerService{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

func (s *AnswerService) Close() {
	s.client.Close()
}

func (s *AnswerService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(15 * time.Second):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *AnswerService) releaseRate() {
	s.rateChan <- struct{}{}
}

// Check judges a free-text answer semantically. Implements quiz.AnswerChecker.
func (s *AnswerService) Check(ctx context.Context, userAnswer, correctAnswer string) (quiz.CheckResult, error) {
	if err := s.acquireRate(ctx); err != nil {
		return quiz.CheckResult{}, err
	}
	defer s.releaseRate()

	prompt := fmt.Sprintf(`You are grading a flashcard answer. Compare the student's answer to the correct answer and judge whether they mean the same thing, ignoring case, phrasing, and minor spelling mistakes.

Return ONLY a valid JSON object:
{"is_correct": true|false, "is_close": true|false, "feedback": "one short sentence explaining the judgment"}

is_close should be true when the answer is wrong but nearly right (e.g. a near-miss term or a partial answer).

Correct answer: %s
Student answer: %s`, correctAnswer, userAnswer)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return quiz.CheckResult{}, fmt.Errorf("Gemini API error: %w", err)
	}

	raw := stripFences(extractText(resp))

	var result quiz.CheckResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return quiz.CheckResult{}, fmt.Errorf("unparseable checker response: %w", err)
	}
	return result, nil
}

// Distractors generates plausible wrong options. Implements
// quiz.DistractorSource.
func (s *AnswerService) Distractors(ctx context.Context, question, correctAnswer string, n int) ([]string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	prompt := fmt.Sprintf(`Generate %d plausible but incorrect multiple-choice options for this flashcard. They must be clearly wrong to someone who knows the material, similar in length and register to the correct answer, and must not duplicate it.

Return ONLY a valid JSON array of %d strings.

Question: %s
Correct answer: %s`, n, n, question, correctAnswer)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	raw := stripFences(extractText(resp))

	var distractors []string
	if err := json.Unmarshal([]byte(raw), &distractors); err != nil {
		return nil, fmt.Errorf("unparseable distractor response: %w", err)
	}

	out := make([]string, 0, n)
	for _, d := range distractors {
		d = strings.TrimSpace(d)
		if d == "" || strings.EqualFold(d, correctAnswer) {
			continue
		}
		out = append(out, d)
		if len(out) == n {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable distractors returned")
	}
	return out, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func stripFences(s string) string {
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/amaumene/cinesift/pkg/completion"
	"github.com/amaumene/cinesift/pkg/discovery"
	"github.com/amaumene/cinesift/pkg/errors"
	"github.com/amaumene/cinesift/pkg/models"
	log "github.com/sirupsen/logrus"
)

const (
	insightService      = "insight"
	maxRecommendations  = 5
	maxChatHistoryTurns = 20
)

var jsonArray = regexp.MustCompile(`\[[\s\S]*\]`)

// InsightService asks the completion model about a single title
type InsightService struct {
	completion completion.Client
	resolver   *discovery.Resolver
}

// NewInsightService creates the service. resolver may be nil, in which case
// recommendations are returned as titles only.
func NewInsightService(client completion.Client, resolver *discovery.Resolver) *InsightService {
	return &InsightService{
		completion: client,
		resolver:   resolver,
	}
}

// Recommendations are titles suggested by the model and, when resolved, the
// matching media items in suggestion order.
type Recommendations struct {
	Titles []string           `json:"titles"`
	Items  []models.MediaItem `json:"items,omitempty"`
}

func (s *InsightService) complete(ctx context.Context, op, prompt string) (string, error) {
	text, err := s.completion.Complete(ctx, prompt)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"op":       op,
			"provider": s.completion.Provider(),
		}).Error("Completion request failed")
		return "", errors.NewServiceError(insightService, op, err)
	}
	return strings.TrimSpace(text), nil
}

func requireTitle(op, title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.NewServiceError(insightService, op, fmt.Errorf("title is empty: %w", errors.ErrInvalidInput))
	}
	return nil
}

// Summarize writes a short spoiler-free summary
func (s *InsightService) Summarize(ctx context.Context, title, overview string) (string, error) {
	if err := requireTitle("Summarize", title); err != nil {
		return "", err
	}
	prompt := fmt.Sprintf("Provide a concise and engaging summary of %q in 2-3 sentences. Here's the overview: %s. "+
		"Focus on the main plot points and what makes it interesting, without spoilers.", title, overview)
	return s.complete(ctx, "Summarize", prompt)
}

// AnalyzeThemes discusses the central themes of a title
func (s *InsightService) AnalyzeThemes(ctx context.Context, title, overview string) (string, error) {
	if err := requireTitle("AnalyzeThemes", title); err != nil {
		return "", err
	}
	prompt := fmt.Sprintf("Analyze the main themes and deeper meanings in %q. Overview: %s. "+
		"Provide a thoughtful analysis in 3-4 sentences covering the central themes, symbolism, or social commentary.", title, overview)
	return s.complete(ctx, "AnalyzeThemes", prompt)
}

// Recommend suggests five titles similar to title. With resolve set the
// suggestions are also looked up and reconciled like a description search.
func (s *InsightService) Recommend(ctx context.Context, title string, genres []string, preferences string, resolve bool) (*Recommendations, error) {
	if err := requireTitle("Recommend", title); err != nil {
		return nil, err
	}

	var prefs string
	if p := strings.TrimSpace(preferences); p != "" {
		prefs = " User preferences: " + p + "."
	}
	prompt := fmt.Sprintf("Based on %q which is in the genres: %s.%s Suggest %d similar titles that the user might enjoy. "+
		"Provide only the titles, one per line, without numbering or additional text.",
		title, strings.Join(genres, ", "), prefs, maxRecommendations)

	text, err := s.complete(ctx, "Recommend", prompt)
	if err != nil {
		return nil, err
	}

	recs := &Recommendations{Titles: discovery.SplitTitles(text, maxRecommendations)}
	if resolve && s.resolver != nil {
		recs.Items = discovery.Reconcile(s.resolver.ResolveCandidates(ctx, recs.Titles))
	}
	return recs, nil
}

// Quiz generates multiple-choice trivia. A reply without a parsable JSON
// array yields no questions rather than an error.
func (s *InsightService) Quiz(ctx context.Context, title, overview string) ([]models.QuizQuestion, error) {
	if err := requireTitle("Quiz", title); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf("Create 3 multiple-choice trivia questions about %q. Overview: %s. "+
		"Format each question as JSON with: question, options (array of 4), and correctAnswer (index 0-3). "+
		"Return as a JSON array.", title, overview)

	text, err := s.complete(ctx, "Quiz", prompt)
	if err != nil {
		return nil, err
	}
	return parseQuiz(text), nil
}

func parseQuiz(text string) []models.QuizQuestion {
	questions := []models.QuizQuestion{}

	match := jsonArray.FindString(text)
	if match == "" {
		log.Warn("Quiz reply contains no JSON array")
		return questions
	}

	var parsed []models.QuizQuestion
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		log.WithError(err).Warn("Failed to parse quiz JSON")
		return questions
	}
	for _, q := range parsed {
		if q.Valid() {
			questions = append(questions, q)
		}
	}
	return questions
}

// Chat answers a question about a title. The client is stateless, so the
// earlier turns are written into the prompt.
func (s *InsightService) Chat(ctx context.Context, title, overview, question string, history []models.ChatMessage) (string, error) {
	if err := requireTitle("Chat", title); err != nil {
		return "", err
	}
	if strings.TrimSpace(question) == "" {
		return "", errors.NewServiceError(insightService, "Chat", fmt.Errorf("question is empty: %w", errors.ErrInvalidInput))
	}
	return s.complete(ctx, "Chat", BuildChatPrompt(title, overview, question, history))
}

// BuildChatPrompt folds the conversation so far into one prompt, keeping the
// most recent turns.
func BuildChatPrompt(title, overview, question string, history []models.ChatMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a knowledgeable movie expert assistant. You're discussing %q. Here's the overview: %s.\n\n", title, overview)

	if len(history) > maxChatHistoryTurns {
		history = history[len(history)-maxChatHistoryTurns:]
	}
	if len(history) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User question: %s\n\nProvide a helpful, informative response. Keep it concise (2-4 sentences) and accurate.", question)
	return b.String()
}

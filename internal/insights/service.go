package insights

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dvloznov/budget-insights/internal/budget"
	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/logger"
	"github.com/google/uuid"
)

// Service runs the AI-backed flows over a Generator.
type Service struct {
	gen     Generator
	archive ReplyArchive
	model   string
	now     func() time.Time
}

// NewService creates a Service. archive may be nil.
func NewService(gen Generator, archive ReplyArchive, model string) *Service {
	if model == "" {
		model = DefaultModelName
	}
	return &Service{gen: gen, archive: archive, model: model, now: time.Now}
}

// WeeklyInsight is the result of the weekly summary flow.
type WeeklyInsight struct {
	Summary          string
	TotalSpent       float64
	TransactionCount int
	TopCategories    []domain.Category
	Fallback         bool
}

// NotificationBody returns the summary cut to NotificationSummaryLength runes,
// with "..." appended only when something was cut.
func (w WeeklyInsight) NotificationBody() string {
	return Truncate(w.Summary, NotificationSummaryLength)
}

// Truncate cuts s to limit runes and appends "..." when it was longer.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

// SpendingAnalysis is the descriptive analysis of recent spending.
type SpendingAnalysis struct {
	Analysis       string   `json:"analysis"`
	TopCategories  []string `json:"topCategories"`
	Concerns       []string `json:"concerns"`
	Recommendation string   `json:"recommendation"`
	Fallback       bool     `json:"fallback"`
}

// BudgetRecommendation is a model-suggested set of category limits.
type BudgetRecommendation struct {
	Categories map[domain.Category]float64 `json:"categories"`
	Reasoning  string                      `json:"reasoning"`
	Generated  bool                        `json:"generated"`
}

// OverspendAlert is one category flagged by the model.
type OverspendAlert struct {
	Category   string  `json:"category"`
	Spent      float64 `json:"spent"`
	Budget     float64 `json:"budget"`
	Percentage float64 `json:"percentage"`
	Severity   string  `json:"severity"`
	Message    string  `json:"message"`
}

// OverspendReport is the model's view of budget pressure this month.
type OverspendReport struct {
	Alerts        []OverspendAlert `json:"alerts"`
	OverallStatus string           `json:"overallStatus"`
	Fallback      bool             `json:"fallback"`
}

// Adjustment is a suggested change to one category limit.
type Adjustment struct {
	OldAmount float64 `json:"oldAmount"`
	NewAmount float64 `json:"newAmount"`
	Reason    string  `json:"reason"`
}

// BudgetAdjustments is the model's response to a life change.
type BudgetAdjustments struct {
	Adjustments map[string]Adjustment `json:"adjustments"`
	Summary     string                `json:"summary"`
}

// generate calls the model and archives the exchange. Archive failures are
// logged and never fail the flow.
func (s *Service) generate(ctx context.Context, flow, userID, prompt string) (string, error) {
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	if s.archive != nil {
		rec := ReplyRecord{
			ID:        uuid.New().String(),
			Flow:      flow,
			UserID:    userID,
			Model:     s.model,
			Prompt:    prompt,
			Reply:     text,
			Parsed:    ParseReply(text).Parsed(),
			CreatedAt: s.now(),
		}
		if err := s.archive.ArchiveReply(ctx, rec); err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Str("flow", flow).Str("user_id", userID).Msg("Failed to archive model reply")
		}
	}

	return text, nil
}

func userIDOf(p *domain.UserProfile) string {
	if p == nil {
		return ""
	}
	return p.ID
}

// WeeklyInsight asks for a short free-text summary of the week. It never
// fails: a generation error or blank reply yields the fixed fallback insight.
func (s *Service) WeeklyInsight(ctx context.Context, txs []domain.Transaction, profile *domain.UserProfile) WeeklyInsight {
	log := logger.FromContext(ctx)
	sum := Summarize(txs)

	text, err := s.generate(ctx, FlowWeekly, userIDOf(profile), buildWeeklyPrompt(sum, profile))
	if err != nil || strings.TrimSpace(text) == "" {
		log.Warn().Err(err).Str("user_id", userIDOf(profile)).Msg("Weekly insight generation failed, using fallback")
		return WeeklyInsight{
			Summary:       FallbackWeeklySummary,
			TopCategories: []domain.Category{},
			Fallback:      true,
		}
	}

	return WeeklyInsight{
		Summary:          text,
		TotalSpent:       sum.TotalSpent,
		TransactionCount: sum.TransactionCount,
		TopCategories:    sum.TopCategories,
	}
}

// AnalyzeSpending asks for a structured analysis of recent spending. An
// unparseable reply degrades to the raw text with empty lists.
func (s *Service) AnalyzeSpending(ctx context.Context, txs []domain.Transaction, profile *domain.UserProfile) (*SpendingAnalysis, error) {
	sum := Summarize(txs)

	text, err := s.generate(ctx, FlowAnalysis, userIDOf(profile), buildAnalysisPrompt(sum, profile))
	if err != nil {
		return nil, fmt.Errorf("AnalyzeSpending: generate: %w", err)
	}

	var out SpendingAnalysis
	if err := ParseReply(text).Decode(&out); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("flow", FlowAnalysis).Msg("Falling back to raw analysis text")
		return &SpendingAnalysis{
			Analysis:       text,
			TopCategories:  []string{},
			Concerns:       []string{},
			Recommendation: FallbackRecommendation,
			Fallback:       true,
		}, nil
	}
	if out.TopCategories == nil {
		out.TopCategories = []string{}
	}
	if out.Concerns == nil {
		out.Concerns = []string{}
	}

	return &out, nil
}

// RecommendBudget asks for category limits based on income and recent
// spending. With no recent spending it returns the default allocation
// without calling the model. An unparseable reply is a GenerationParseError.
func (s *Service) RecommendBudget(ctx context.Context, txs []domain.Transaction, profile *domain.UserProfile, current *domain.Budget) (*BudgetRecommendation, error) {
	if incomeOf(profile) <= 0 {
		return nil, fmt.Errorf("RecommendBudget: %w", ErrIncomeNotSet)
	}

	if len(txs) == 0 {
		return &BudgetRecommendation{
			Categories: budget.DefaultAllocation(profile.MonthlyIncome),
			Reasoning:  "Default 50/30/20 allocation based on your monthly income.",
		}, nil
	}

	sum := Summarize(txs)
	text, err := s.generate(ctx, FlowRecommendations, userIDOf(profile), buildRecommendationPrompt(sum, profile, current))
	if err != nil {
		return nil, fmt.Errorf("RecommendBudget: generate: %w", err)
	}

	var out BudgetRecommendation
	if err := ParseReply(text).Decode(&out); err != nil {
		return nil, &GenerationParseError{
			Flow:    FlowRecommendations,
			Message: "Failed to parse budget recommendations",
			Raw:     text,
			Err:     err,
		}
	}
	out.Generated = true

	return &out, nil
}

// DetectOverspending asks the model to flag categories under pressure.
// txs should already be scoped to the current month. An unparseable reply
// degrades to an empty, on-track report.
func (s *Service) DetectOverspending(ctx context.Context, txs []domain.Transaction, b *domain.Budget, profile *domain.UserProfile) (*OverspendReport, error) {
	spending := budget.AggregateAll(txs)

	text, err := s.generate(ctx, FlowOverspending, userIDOf(profile), buildOverspendingPrompt(spending, b, profile))
	if err != nil {
		return nil, fmt.Errorf("DetectOverspending: generate: %w", err)
	}

	var out OverspendReport
	if err := ParseReply(text).Decode(&out); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("flow", FlowOverspending).Msg("Falling back to on-track report")
		return &OverspendReport{Alerts: []OverspendAlert{}, OverallStatus: OverallStatusOnTrack, Fallback: true}, nil
	}
	if out.Alerts == nil {
		out.Alerts = []OverspendAlert{}
	}
	if out.OverallStatus == "" {
		out.OverallStatus = OverallStatusOnTrack
	}

	return &out, nil
}

// MonthlySummary returns a free-text summary of the month. Errors propagate.
func (s *Service) MonthlySummary(ctx context.Context, txs []domain.Transaction, b *domain.Budget, profile *domain.UserProfile) (string, error) {
	sum := Summarize(txs)

	text, err := s.generate(ctx, FlowMonthlySummary, userIDOf(profile), buildMonthlySummaryPrompt(sum, b, profile))
	if err != nil {
		return "", fmt.Errorf("MonthlySummary: generate: %w", err)
	}

	return text, nil
}

// SuggestAdjustments asks how the budget should change after a life event.
// An unparseable reply is a GenerationParseError.
func (s *Service) SuggestAdjustments(ctx context.Context, lifeChange string, b *domain.Budget, profile *domain.UserProfile) (*BudgetAdjustments, error) {
	if strings.TrimSpace(lifeChange) == "" {
		return nil, fmt.Errorf("SuggestAdjustments: life change description is required")
	}

	text, err := s.generate(ctx, FlowAdjustments, userIDOf(profile), buildAdjustmentsPrompt(lifeChange, b, profile))
	if err != nil {
		return nil, fmt.Errorf("SuggestAdjustments: generate: %w", err)
	}

	var out BudgetAdjustments
	if err := ParseReply(text).Decode(&out); err != nil {
		return nil, &GenerationParseError{
			Flow:    FlowAdjustments,
			Message: "Failed to parse budget adjustments",
			Raw:     text,
			Err:     err,
		}
	}
	if out.Adjustments == nil {
		out.Adjustments = map[string]Adjustment{}
	}

	return &out, nil
}

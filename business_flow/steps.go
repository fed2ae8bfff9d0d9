package businessflow

import (
	"github.com/ymgch/mitsumori/app/services"
	"github.com/ymgch/mitsumori/models"
	"github.com/ymgch/mitsumori/pricing"
)

// Flow identifiers and the exact chat messages that start each flow.
const (
	FlowQuote   = "quote"
	FlowPattern = "pattern"

	TriggerQuote   = "カンタン見積り"
	TriggerPattern = "パターン見積り"
)

// PromptEnv carries the deployment-specific values prompt builders
// need.
type PromptEnv struct {
	ImageBaseURL string
}

// StepDefinition is one question of a quote flow. Choices receives the
// answers collected so far because some enumerations depend on an
// earlier answer. Derive, when set, stores extra fields implied by the
// accepted answer.
type StepDefinition struct {
	Field   string
	Choices func(answers map[string]string) []string
	Prompt  func(env PromptEnv, answers map[string]string) services.Message
	Derive  func(session *models.QuoteSession, answer string)
}

// FlowDefinition is an ordered list of steps plus the trigger message
// that starts them. Finalize fills the fields a flow implies instead of
// asking.
type FlowDefinition struct {
	ID       string
	Trigger  string
	Steps    []StepDefinition
	Finalize func(session *models.QuoteSession)
}

func static(choices []string) func(map[string]string) []string {
	return func(map[string]string) []string { return choices }
}

var (
	usageDateChoices = []string{"14日目以降", "14日目以内"}
	userTypeChoices  = []string{"学生", "一般"}
	budgetChoices    = []string{"〜50,000円", "50,001〜100,000円", "100,001円〜", "未定"}

	patternLetters = []string{"A", "B", "C", "D", "E", "F"}
	patternChoices = []string{"パターンA", "パターンB", "パターンC", "パターンD", "パターンE", "パターンF"}
)

func deriveDiscount(session *models.QuoteSession, answer string) {
	tier := models.DiscountStandard
	if answer == "14日目以降" {
		tier = models.DiscountEarly
	}
	session.SetAnswer(models.FieldDiscountType, tier)
}

// Steps shared by both flows.
var (
	usageDateStep = StepDefinition{
		Field:   models.FieldUsageDate,
		Choices: static(usageDateChoices),
		Prompt: func(PromptEnv, map[string]string) services.Message {
			return services.UsageDatePrompt(usageDateChoices)
		},
		Derive: deriveDiscount,
	}

	itemStep = StepDefinition{
		Field:   models.FieldItem,
		Choices: static(models.ProductNames()),
		Prompt: func(env PromptEnv, _ map[string]string) services.Message {
			return services.ItemCarousel(env.ImageBaseURL)
		},
	}

	quantityStep = StepDefinition{
		Field:   models.FieldQuantity,
		Choices: static(pricing.QuantityChoices),
		Prompt: func(PromptEnv, map[string]string) services.Message {
			return services.QuantityPrompt(pricing.QuantityChoices)
		},
	}
)

// quoteFlow collects every pricing input one question at a time.
var quoteFlow = &FlowDefinition{
	ID:      FlowQuote,
	Trigger: TriggerQuote,
	Steps: []StepDefinition{
		usageDateStep,
		{
			Field:   models.FieldBudget,
			Choices: static(budgetChoices),
			Prompt: func(PromptEnv, map[string]string) services.Message {
				return services.BudgetPrompt(budgetChoices)
			},
		},
		itemStep,
		quantityStep,
		{
			Field:   models.FieldPrintPosition,
			Choices: static(pricing.PositionChoices),
			Prompt: func(PromptEnv, map[string]string) services.Message {
				return services.PositionPrompt(pricing.PositionChoices)
			},
		},
		{
			Field: models.FieldColorCount,
			Choices: func(answers map[string]string) []string {
				return pricing.ColorChoicesFor(answers[models.FieldPrintPosition])
			},
			Prompt: func(_ PromptEnv, answers map[string]string) services.Message {
				return services.ColorCountPrompt(pricing.ColorChoicesFor(answers[models.FieldPrintPosition]))
			},
		},
		{
			Field:   models.FieldBackName,
			Choices: static(pricing.BackNameChoices),
			Prompt: func(PromptEnv, map[string]string) services.Message {
				return services.BackNamePrompt(pricing.BackNameChoices)
			},
		},
	},
}

// patternFlow prices a fixed one-color design. Position, color count
// and back name are implied, not asked.
var patternFlow = &FlowDefinition{
	ID:      FlowPattern,
	Trigger: TriggerPattern,
	Steps: []StepDefinition{
		{
			Field:   models.FieldUserType,
			Choices: static(userTypeChoices),
			Prompt: func(PromptEnv, map[string]string) services.Message {
				return services.UserTypePrompt(userTypeChoices)
			},
		},
		usageDateStep,
		itemStep,
		{
			Field:   models.FieldPattern,
			Choices: static(patternChoices),
			Prompt: func(env PromptEnv, answers map[string]string) services.Message {
				slug := models.ProductImageSlug(answers[models.FieldItem])
				return services.PatternCarousel(env.ImageBaseURL, slug, patternLetters)
			},
		},
		quantityStep,
	},
	Finalize: func(session *models.QuoteSession) {
		session.SetAnswer(models.FieldPrintPosition, "前のみ")
		session.SetAnswer(models.FieldColorCount, "前 or 背中 1色")
		session.SetAnswer(models.FieldBackName, "")
	},
}

var flows = []*FlowDefinition{quoteFlow, patternFlow}

// FlowByID resolves a stored session's flow definition.
func FlowByID(id string) (*FlowDefinition, bool) {
	for _, f := range flows {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// FlowByTrigger matches a chat message against the flow triggers.
func FlowByTrigger(message string) (*FlowDefinition, bool) {
	for _, f := range flows {
		if f.Trigger == message {
			return f, true
		}
	}
	return nil, false
}

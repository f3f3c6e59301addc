package questions

import (
	"math/rand"
	"strings"
	"time"

	"mockinterview-backend/internal/model"
)

// MaxQuestions caps every generated set, whatever count the caller asks for.
const MaxQuestions = 7

const (
	advancedLead = "Provide an in-depth explanation of"
	beginnerLead = "Briefly explain"
)

// builtinBaseline is served when the configured bank cannot be used at all.
var builtinBaseline = []Entry{
	{Text: "Tell me about yourself and your professional background.", Type: model.QuestionGeneral},
	{Text: "Describe a time when you had to work under a tight deadline. How did you handle it?", Type: model.QuestionBehavioral},
	{Text: "What are your greatest strengths and weaknesses?", Type: model.QuestionGeneral},
}

type GeneratedQuestion struct {
	Text string             `json:"question_text"`
	Type model.QuestionType `json:"question_type"`
}

type Generator struct {
	bank *Bank
}

func NewGenerator(bank *Bank) *Generator {
	return &Generator{bank: bank}
}

// Generate returns between 1 and min(count, MaxQuestions) questions for the role.
// A nil rnd uses a time-seeded source. Generate never fails: any fault in the
// catalog falls back to the baseline set.
func (g *Generator) Generate(jobRole, industry string, difficulty model.Difficulty, count int, rnd *rand.Rand) (out []GeneratedQuestion) {
	limit := capCount(count)
	defer func() {
		if r := recover(); r != nil || len(out) == 0 {
			out = g.Baseline(count)
		}
	}()

	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	candidates := g.Candidates(jobRole, difficulty)
	rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// Candidates is the merged base and role-specific set after difficulty
// adjustment, before shuffling and truncation.
func (g *Generator) Candidates(jobRole string, difficulty model.Difficulty) []GeneratedQuestion {
	base := g.baseEntries()
	role := g.bank.Roles[jobRole]

	merged := make([]GeneratedQuestion, 0, len(base)+len(role))
	for _, e := range base {
		merged = append(merged, adjust(GeneratedQuestion{Text: e.Text, Type: e.Type}, difficulty))
	}
	for _, e := range role {
		merged = append(merged, adjust(GeneratedQuestion{Text: e.Text, Type: e.Type}, difficulty))
	}
	return merged
}

// Baseline is the deterministic role-agnostic set, unshuffled and capped.
func (g *Generator) Baseline(count int) []GeneratedQuestion {
	entries := builtinBaseline
	if g != nil && g.bank != nil && len(g.bank.Base) > 0 {
		entries = g.bank.Base
	}
	limit := capCount(count)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]GeneratedQuestion, len(entries))
	for i, e := range entries {
		out[i] = GeneratedQuestion{Text: e.Text, Type: e.Type}
	}
	return out
}

func (g *Generator) baseEntries() []Entry {
	if len(g.bank.Base) == 0 {
		return builtinBaseline
	}
	return g.bank.Base
}

func capCount(count int) int {
	if count < 1 || count > MaxQuestions {
		return MaxQuestions
	}
	return count
}

// adjust rewrites the lead verb of technical questions for the difficulty.
func adjust(q GeneratedQuestion, difficulty model.Difficulty) GeneratedQuestion {
	if q.Type != model.QuestionTechnical {
		return q
	}
	switch difficulty {
	case model.DifficultyAdvanced:
		if rest, ok := cutLeadingWord(q.Text, "explain", "describe"); ok {
			q.Text = advancedLead + " " + rest
		} else if rest, ok := cutLeadingWord(q.Text, "how"); ok {
			q.Text = advancedLead + " how " + rest
		}
	case model.DifficultyBeginner:
		if rest, ok := cutLeadingWord(q.Text, "explain", "describe"); ok {
			q.Text = beginnerLead + " " + rest
		}
	}
	return q
}

// cutLeadingWord strips the first word of text when it matches one of words,
// ignoring case, and returns the remainder.
func cutLeadingWord(text string, words ...string) (string, bool) {
	first, rest, found := strings.Cut(strings.TrimSpace(text), " ")
	if !found {
		return "", false
	}
	for _, w := range words {
		if strings.EqualFold(first, w) {
			return rest, true
		}
	}
	return "", false
}

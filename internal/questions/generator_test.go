package questions

import (
	"math/rand"
	"strings"
	"testing"

	"mockinterview-backend/internal/model"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	bank, err := DefaultBank()
	if err != nil {
		t.Fatalf("DefaultBank: %v", err)
	}
	return NewGenerator(bank)
}

func countTechnical(qs []GeneratedQuestion) int {
	n := 0
	for _, q := range qs {
		if q.Type == model.QuestionTechnical {
			n++
		}
	}
	return n
}

func TestGenerateBounds(t *testing.T) {
	g := newTestGenerator(t)
	roles := append(g.bank.RoleNames(), "Astronaut", "")
	difficulties := []model.Difficulty{"", model.DifficultyBeginner, model.DifficultyIntermediate, model.DifficultyAdvanced}

	for _, role := range roles {
		for _, d := range difficulties {
			for _, count := range []int{0, 1, 3, 7, 10} {
				qs := g.Generate(role, "Finance", d, count, rand.New(rand.NewSource(42)))
				if len(qs) < 1 || len(qs) > MaxQuestions {
					t.Fatalf("%s/%s/%d: got %d questions", role, d, count, len(qs))
				}
				if count >= 1 && len(qs) > count {
					t.Fatalf("%s/%s/%d: got %d questions, more than requested", role, d, count, len(qs))
				}
				for _, q := range qs {
					if strings.TrimSpace(q.Text) == "" {
						t.Fatalf("%s/%s/%d: empty question text", role, d, count)
					}
				}
			}
		}
	}
}

func TestGenerateCapsAtSeven(t *testing.T) {
	g := newTestGenerator(t)
	qs := g.Generate("Software Engineer", "", "", 20, rand.New(rand.NewSource(1)))
	if len(qs) != MaxQuestions {
		t.Errorf("expected %d questions, got %d", MaxQuestions, len(qs))
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	g := newTestGenerator(t)
	a := g.Generate("Data Scientist", "", model.DifficultyIntermediate, 7, rand.New(rand.NewSource(7)))
	b := g.Generate("Data Scientist", "", model.DifficultyIntermediate, 7, rand.New(rand.NewSource(7)))
	if len(a) != len(b) {
		t.Fatalf("length mismatch %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("position %d differs: %q vs %q", i, a[i].Text, b[i].Text)
		}
	}
}

func TestAdvancedKeepsTechnicalCount(t *testing.T) {
	g := newTestGenerator(t)
	for _, role := range g.bank.RoleNames() {
		plain := g.Candidates(role, "")
		advanced := g.Candidates(role, model.DifficultyAdvanced)
		if countTechnical(advanced) < countTechnical(plain) {
			t.Errorf("%s: advanced has %d technical questions, base has %d", role, countTechnical(advanced), countTechnical(plain))
		}
	}
}

func TestAdvancedSoftwareEngineerScenario(t *testing.T) {
	g := newTestGenerator(t)
	qs := g.Generate("Software Engineer", "", model.DifficultyAdvanced, 10, rand.New(rand.NewSource(3)))
	if len(qs) > MaxQuestions {
		t.Fatalf("expected at most %d questions, got %d", MaxQuestions, len(qs))
	}
	for _, q := range g.Candidates("Software Engineer", model.DifficultyAdvanced) {
		if q.Type != model.QuestionTechnical {
			continue
		}
		if !strings.HasPrefix(q.Text, "Provide an in-depth explanation of") {
			t.Errorf("technical question not rewritten: %q", q.Text)
		}
	}
}

func TestAdjust(t *testing.T) {
	cases := []struct {
		name       string
		text       string
		qType      model.QuestionType
		difficulty model.Difficulty
		want       string
	}{
		{"advanced explain", "Explain the difference between a process and a thread.", model.QuestionTechnical, model.DifficultyAdvanced,
			"Provide an in-depth explanation of the difference between a process and a thread."},
		{"advanced describe", "Describe how you would debug a leak.", model.QuestionTechnical, model.DifficultyAdvanced,
			"Provide an in-depth explanation of how you would debug a leak."},
		{"advanced how", "How would you design a cache?", model.QuestionTechnical, model.DifficultyAdvanced,
			"Provide an in-depth explanation of how would you design a cache?"},
		{"beginner explain", "Explain what an index is.", model.QuestionTechnical, model.DifficultyBeginner,
			"Briefly explain what an index is."},
		{"beginner describe", "Describe your testing approach.", model.QuestionTechnical, model.DifficultyBeginner,
			"Briefly explain your testing approach."},
		{"beginner how untouched", "How would you design a cache?", model.QuestionTechnical, model.DifficultyBeginner,
			"How would you design a cache?"},
		{"intermediate untouched", "Explain what an index is.", model.QuestionTechnical, model.DifficultyIntermediate,
			"Explain what an index is."},
		{"behavioral untouched", "Describe a conflict.", model.QuestionBehavioral, model.DifficultyAdvanced,
			"Describe a conflict."},
		{"word prefix only", "Explainable models matter?", model.QuestionTechnical, model.DifficultyAdvanced,
			"Explainable models matter?"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := adjust(GeneratedQuestion{Text: tc.text, Type: tc.qType}, tc.difficulty)
			if got.Text != tc.want {
				t.Errorf("got %q, want %q", got.Text, tc.want)
			}
		})
	}
}

func TestUnknownRoleUsesBaseOnly(t *testing.T) {
	g := newTestGenerator(t)
	got := g.Candidates("Astronaut", "")
	if len(got) != len(g.bank.Base) {
		t.Errorf("expected %d base questions, got %d", len(g.bank.Base), len(got))
	}
}

func TestGenerateFallsBackToBaseline(t *testing.T) {
	g := NewGenerator(nil)
	qs := g.Generate("Software Engineer", "", model.DifficultyAdvanced, 5, rand.New(rand.NewSource(1)))
	if len(qs) != len(builtinBaseline) {
		t.Fatalf("expected builtin baseline of %d, got %d", len(builtinBaseline), len(qs))
	}
	for i, q := range qs {
		if q.Text != builtinBaseline[i].Text {
			t.Errorf("position %d: %q", i, q.Text)
		}
	}
}

func TestParseBankValidation(t *testing.T) {
	cases := map[string]string{
		"no base":      "roles: {}\n",
		"empty text":   "base:\n  - text: ''\n    type: general\n",
		"unknown type": "base:\n  - text: hi\n    type: trivia\n",
		"bad yaml":     "base: [",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseBank([]byte(data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

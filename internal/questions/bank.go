package questions

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"mockinterview-backend/internal/model"
)

//go:embed bank.yaml
var defaultBankYAML []byte

// Entry is one catalog question.
type Entry struct {
	Text string             `yaml:"text"`
	Type model.QuestionType `yaml:"type"`
}

// Bank is the static question catalog: role-agnostic questions plus
// role-specific sets keyed by exact job role.
type Bank struct {
	Base  []Entry            `yaml:"base"`
	Roles map[string][]Entry `yaml:"roles"`
}

// DefaultBank parses the catalog compiled into the binary.
func DefaultBank() (*Bank, error) {
	return ParseBank(defaultBankYAML)
}

// LoadBank reads a catalog from disk.
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank %s: %w", path, err)
	}
	return ParseBank(data)
}

func ParseBank(data []byte) (*Bank, error) {
	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if err := bank.validate(); err != nil {
		return nil, err
	}
	return &bank, nil
}

func (b *Bank) validate() error {
	if len(b.Base) == 0 {
		return fmt.Errorf("question bank has no base questions")
	}
	check := func(where string, entries []Entry) error {
		for i, e := range entries {
			if e.Text == "" {
				return fmt.Errorf("%s question %d has empty text", where, i+1)
			}
			switch e.Type {
			case model.QuestionBehavioral, model.QuestionTechnical, model.QuestionSituational, model.QuestionGeneral:
			default:
				return fmt.Errorf("%s question %d has unknown type %q", where, i+1, e.Type)
			}
		}
		return nil
	}
	if err := check("base", b.Base); err != nil {
		return err
	}
	for role, entries := range b.Roles {
		if err := check(role, entries); err != nil {
			return err
		}
	}
	return nil
}

// RoleNames lists the job roles that have a role-specific set.
func (b *Bank) RoleNames() []string {
	names := make([]string, 0, len(b.Roles))
	for role := range b.Roles {
		names = append(names, role)
	}
	sort.Strings(names)
	return names
}

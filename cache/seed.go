package cache

import (
	_ "embed"
	"fmt"

	"github.com/SaiNageswarS/vidya-core/locale"
	"gopkg.in/yaml.v3"
)

//go:embed demo_answers.yaml
var demoAnswersYAML []byte

type demoPair struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// SeedDemo loads the embedded demo answers into the demo tier. The entries
// are English-keyed and live for the process lifetime.
func (s *Store) SeedDemo() (int, error) {
	var pairs []demoPair
	if err := yaml.Unmarshal(demoAnswersYAML, &pairs); err != nil {
		return 0, fmt.Errorf("parse demo answers: %w", err)
	}

	for _, p := range pairs {
		if p.Question == "" || p.Answer == "" {
			return 0, fmt.Errorf("demo answer entry missing question or answer")
		}
		s.Put(TierDemo, AnswerKey(p.Question, locale.English), []byte(p.Answer), 0)
	}
	return len(pairs), nil
}

package rss

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Rules drive per-item classification. Deployments can override the keyword
// set with a YAML file; the built-in defaults cover the common cases.
type Rules struct {
	GameUpdateKeywords []string `yaml:"game_update_keywords" json:"game_update_keywords"`
}

func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultRules(), err
	}

	var rules Rules
	if err := yaml.Unmarshal(content, &rules); err != nil {
		return Rules{}, err
	}

	if len(rules.GameUpdateKeywords) == 0 {
		return Rules{}, errors.New("no classification keywords configured")
	}

	return rules, nil
}

func DefaultRules() Rules {
	return Rules{
		GameUpdateKeywords: []string{"patch", "update", "hotfix", "version"},
	}
}

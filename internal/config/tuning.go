package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/retrieval"
)

// Tuning is the optional YAML file behind RETRIEVAL_CONFIG_PATH.
type Tuning struct {
	Retrieval        retrieval.Config  `yaml:"retrieval"`
	GreetingMessages map[string]string `yaml:"greeting_messages"`
	FallbackMessages map[string]string `yaml:"fallback_messages"`
	SystemPrompt     string            `yaml:"system_prompt"`
}

// LoadTuning merges the file at path over retrieval.DefaultConfig. Keys absent
// from the file keep their defaults; an empty path returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	tuning := Tuning{Retrieval: retrieval.DefaultConfig()}
	path = strings.TrimSpace(path)
	if path == "" {
		return tuning, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	return tuning, nil
}

// RetrievalConfig applies env overrides on top of the tuning file.
func (c Config) RetrievalConfig(tuning Tuning) retrieval.Config {
	out := tuning.Retrieval
	if c.SimilarityThreshold >= 0 && c.SimilarityThreshold < 1 {
		out.SimilarityThreshold = c.SimilarityThreshold
	}
	return out
}

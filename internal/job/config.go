package job

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is a job submission: everything the evaluation engine needs
// to run one evaluation. Stored verbatim under configs/<id>.json.
type Config struct {
	Name     string       `json:"name" yaml:"name"`
	Prompts  []Prompt     `json:"prompts" yaml:"prompts"`
	Models   []ModelSpec  `json:"models" yaml:"models"`
	Metrics  []MetricSpec `json:"metrics" yaml:"metrics"`
	Settings RunSettings  `json:"settings" yaml:"settings"`
}

// LoadConfig reads a submission config from a YAML or JSON file,
// chosen by extension, applies defaults and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading submission %s: %w", path, err)
	}
	var cfg Config
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing submission %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid submission %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyDefaults fills unset execution settings.
func (c *Config) ApplyDefaults() {
	if c.Settings.ParallelRequests == 0 {
		c.Settings.ParallelRequests = 5
	}
	if c.Settings.TimeoutSeconds == 0 {
		c.Settings.TimeoutSeconds = 30
	}
	if c.Settings.RetryAttempts == 0 {
		c.Settings.RetryAttempts = 3
	}
}

// Validate rejects submissions the engine could not run. All failures
// wrap ErrValidation.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: job name cannot be empty", ErrValidation)
	}
	if len(c.Prompts) == 0 {
		return fmt.Errorf("%w: at least one prompt must be specified", ErrValidation)
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("%w: at least one model must be specified", ErrValidation)
	}
	if len(c.Metrics) == 0 {
		return fmt.Errorf("%w: at least one metric must be specified", ErrValidation)
	}
	for i, p := range c.Prompts {
		if p.ID == "" {
			return fmt.Errorf("%w: prompt %d has no id", ErrValidation, i)
		}
		if p.Text == "" {
			return fmt.Errorf("%w: prompt %q has empty text", ErrValidation, p.ID)
		}
	}
	for i, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("%w: model %d has no id", ErrValidation, i)
		}
		if m.Provider == "" {
			return fmt.Errorf("%w: model %q has empty provider", ErrValidation, m.ID)
		}
		if m.ModelName == "" {
			return fmt.Errorf("%w: model %q has empty model_name", ErrValidation, m.ID)
		}
	}
	for i, m := range c.Metrics {
		if m.Name == "" {
			return fmt.Errorf("%w: metric %d has no name", ErrValidation, i)
		}
	}
	return nil
}

// SampleConfig returns a small two-prompt, two-model submission
// suitable for smoke-testing a deployment.
func SampleConfig() *Config {
	temp := 0.7
	maxTokens := 1024
	cfg := &Config{
		Name: "Sample Evaluation Job",
		Prompts: []Prompt{
			{
				ID:             "sample_prompt_1",
				Text:           "Explain the concept of machine learning in simple terms.",
				ExpectedOutput: "Machine learning is a type of artificial intelligence that enables computers to learn from data.",
				Category:       "explanation",
			},
			{
				ID:       "sample_prompt_2",
				Text:     "Write a short story about a robot learning to paint.",
				Category: "creative_writing",
			},
		},
		Models: []ModelSpec{
			{
				ID:        "groq-llama",
				Provider:  "groq",
				ModelName: "llama-3.1-70b-versatile",
				Parameters: ModelParameters{
					Temperature: &temp,
					MaxTokens:   &maxTokens,
				},
			},
			{
				ID:        "together-mixtral",
				Provider:  "together",
				ModelName: "mixtral-8x7b-instruct",
				Parameters: ModelParameters{
					Temperature: &temp,
					MaxTokens:   &maxTokens,
				},
			},
		},
		Metrics: []MetricSpec{
			{Name: "exact_match", Type: "exact_match", Weight: 1.0},
			{Name: "latency", Type: "latency", Weight: 0.5},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Voice carries the fixed synthesizer parameters used for every utterance.
type Voice struct {
	Locale string  `yaml:"locale"`
	Rate   float64 `yaml:"rate"`
	Pitch  float64 `yaml:"pitch"`
	Volume float64 `yaml:"volume"`
}

// Profile describes the assistant persona: the greeting that seeds every new
// conversation, the example prompts offered before the first user message,
// and the speech voice parameters.
type Profile struct {
	Name     string   `yaml:"name"`
	Greeting string   `yaml:"greeting"`
	Examples []string `yaml:"examples"`
	Voice    Voice    `yaml:"voice"`
}

// DefaultProfile is used when no profile file is configured.
func DefaultProfile() *Profile {
	return &Profile{
		Name:     "Guidelines Assistant",
		Greeting: "Hello! I can help answer questions about clinical guidelines and treatment protocols. What would you like to know?",
		Examples: []string{
			"What are the first-line treatment recommendations?",
			"How should treatment be monitored?",
			"What are the prevention guidelines?",
		},
		Voice: Voice{
			Locale: "en-US",
			Rate:   1.0,
			Pitch:  1.0,
			Volume: 1.0,
		},
	}
}

// LoadProfile reads a YAML profile from path, filling omitted fields from the
// defaults. An empty path returns the defaults unchanged.
func LoadProfile(path string) (*Profile, error) {
	profile := DefaultProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var loaded Profile
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}

	if loaded.Name != "" {
		profile.Name = loaded.Name
	}
	if loaded.Greeting != "" {
		profile.Greeting = loaded.Greeting
	}
	if len(loaded.Examples) > 0 {
		profile.Examples = loaded.Examples
	}
	if loaded.Voice.Locale != "" {
		profile.Voice.Locale = loaded.Voice.Locale
	}
	if loaded.Voice.Rate > 0 {
		profile.Voice.Rate = loaded.Voice.Rate
	}
	if loaded.Voice.Pitch > 0 {
		profile.Voice.Pitch = loaded.Voice.Pitch
	}
	if loaded.Voice.Volume > 0 {
		profile.Voice.Volume = loaded.Voice.Volume
	}

	return profile, nil
}

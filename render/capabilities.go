package render

import (
	_ "embed"
	"fmt"
	"sync"

	yaml "gopkg.in/yaml.v2"
)

//go:embed targets.yaml
var targetsYAML []byte

// Capability declares what one target platform can express and how its
// identifiers are fitted. Loaded once from the embedded table and read-only
// afterwards; per-render mutable state never lives here.
type Capability struct {
	MaxTermName        int            `yaml:"max_term_name"`
	AllowAbbreviations bool           `yaml:"allow_abbreviations"`
	AddressFamilies    []string       `yaml:"address_families"`
	SupportedKeywords  []string       `yaml:"supported_keywords"`
	Abbreviations      []Abbreviation `yaml:"abbreviations"`

	keywords map[string]bool
}

// Keywords returns the supported-keyword set for membership tests.
func (c *Capability) Keywords() map[string]bool {
	return c.keywords
}

// SupportsFamily reports whether the target accepts the filter address
// family ("inet", "inet6", "bridge", "mixed").
func (c *Capability) SupportsFamily(family string) bool {
	for _, f := range c.AddressFamilies {
		if f == family {
			return true
		}
	}
	return false
}

// FitName applies the target's length limit and abbreviation table to an
// identifier.
func (c *Capability) FitName(name string) (string, error) {
	return FitIdentifier(name, c.MaxTermName, c.AllowAbbreviations, c.Abbreviations)
}

type capabilityFile struct {
	Targets map[string]*Capability `yaml:"targets"`
}

var (
	capOnce sync.Once
	capErr  error
	caps    map[string]*Capability
)

func loadCapabilities() {
	var file capabilityFile
	if err := yaml.Unmarshal(targetsYAML, &file); err != nil {
		capErr = fmt.Errorf("parse embedded target capabilities: %w", err)
		return
	}
	for _, c := range file.Targets {
		c.keywords = make(map[string]bool, len(c.SupportedKeywords))
		for _, k := range c.SupportedKeywords {
			c.keywords[k] = true
		}
	}
	caps = file.Targets
}

// TargetCapability returns the capability record for a platform.
func TargetCapability(platform string) (*Capability, error) {
	capOnce.Do(loadCapabilities)
	if capErr != nil {
		return nil, capErr
	}
	c, ok := caps[platform]
	if !ok {
		return nil, fmt.Errorf("no capability data for platform %q", platform)
	}
	return c, nil
}

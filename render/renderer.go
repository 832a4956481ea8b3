// Package render defines the contract every backend renderer implements and
// the validation helpers they share: duplicate-name detection, expiration
// policy, supported-keyword checking, identifier fitting, and the per-target
// capability tables that parameterize them.
package render

import (
	"time"

	"grimm.is/aclforge/internal/clock"
	"grimm.is/aclforge/internal/logging"
	"grimm.is/aclforge/internal/metrics"
	"grimm.is/aclforge/policy"
)

// Renderer is the two-phase contract every backend implements. Translate
// consumes the policy IR into a renderer-private model and may be called at
// most once per instance; Render is a pure function of that model, callable
// any number of times with byte-identical results. Renderer instances are
// never shared: rendering one policy for several platforms concurrently
// takes one instance per platform.
type Renderer interface {
	Translate(pol *policy.Policy, opts Options) error
	Render() (string, error)
}

// DefaultExpiryWarn is how far ahead of expiration a term starts producing
// informational notices.
const DefaultExpiryWarn = 14 * 24 * time.Hour

// Options carries the cross-cutting knobs for one Translate call.
type Options struct {
	// ExpiryWarn is the warning window ahead of term expiration.
	// Zero means DefaultExpiryWarn.
	ExpiryWarn time.Duration

	// Clock supplies "today" for expiration checks. Nil means wall clock.
	Clock clock.Clock

	// Logger receives skip warnings and expiration notices. Nil means the
	// package default logger.
	Logger *logging.Logger

	// Metrics receives translation counters. Nil means a no-op recorder.
	Metrics *metrics.Recorder
}

// Normalize fills unset options with their defaults.
func (o Options) Normalize() Options {
	if o.ExpiryWarn == 0 {
		o.ExpiryWarn = DefaultExpiryWarn
	}
	if o.Clock == nil {
		o.Clock = &clock.RealClock{}
	}
	if o.Logger == nil {
		o.Logger = logging.Default()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.Nop()
	}
	return o
}

// Phase tracks the Created -> Translated -> Rendered lifecycle shared by all
// renderers. Concrete renderers embed it and call the guards at the top of
// their Translate and Render methods.
type Phase struct {
	translated bool
}

// BeginTranslate marks the renderer translated, failing if Translate already
// ran on this instance.
func (p *Phase) BeginTranslate() error {
	if p.translated {
		return &StructuralError{Detail: "Translate called twice on one renderer instance"}
	}
	p.translated = true
	return nil
}

// RequireTranslated guards Render against running before Translate.
func (p *Phase) RequireTranslated() error {
	if !p.translated {
		return &StructuralError{Detail: "Render called before Translate"}
	}
	return nil
}

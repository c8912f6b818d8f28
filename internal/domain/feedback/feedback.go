// Package feedback turns raw scorer results into bilingual, deviation
// referencing feedback messages.
//
// Composition is a pure function of the ValidationResult and the target
// language. Every feedback key must exist in English and in each
// supported target language; a missing entry is a configuration error
// raised at construction time, never a runtime fallback.
package feedback

import (
	"fmt"

	"github.com/sahajlabs/mudra/internal/domain/model"
)

// Catalog keys. Each must be present for every supported language.
const (
	keyPositive           = "positive"
	keyCorrective         = "corrective"
	keyInstructionAdjust  = "instruction_adjust"
	keyInstructionGeneric = "instruction_generic"
)

// baseLanguage is always required and serves as the parallel text for
// non-English targets.
const baseLanguage = "en"

// Default composer configuration constants.
const (
	defaultSignificanceThreshold = 0.12
	defaultSecondaryLanguage     = "hi"
)

var catalogKeys = []string{keyPositive, keyCorrective, keyInstructionAdjust, keyInstructionGeneric}

// defaultCatalog carries the built-in English and Hindi entries.
func defaultCatalog() map[string]map[string]string {
	return map[string]map[string]string{
		"en": {
			keyPositive:           "Well done, that sign looks right.",
			keyCorrective:         "Not quite yet. Adjust your hand and try again.",
			keyInstructionAdjust:  "Adjust landmark %d: it is off by %.2f. Bring it closer to the reference pose.",
			keyInstructionGeneric: "Try again and compare your hand with the reference video.",
		},
		"hi": {
			keyPositive:           "बहुत बढ़िया, यह संकेत सही लग रहा है।",
			keyCorrective:         "अभी पूरा सही नहीं है। अपना हाथ ठीक करें और फिर से कोशिश करें।",
			keyInstructionAdjust:  "लैंडमार्क %d को ठीक करें: यह %.2f से हटा हुआ है। इसे संदर्भ मुद्रा के पास लाएँ।",
			keyInstructionGeneric: "फिर से कोशिश करें और संदर्भ वीडियो से अपने हाथ की तुलना करें।",
		},
	}
}

// Option applies a configuration option to the Composer.
type Option func(*Composer)

// WithSignificanceThreshold sets the minimum deviation magnitude that
// contributes a corrective instruction.
func WithSignificanceThreshold(t float64) Option {
	return func(c *Composer) {
		if t > 0 {
			c.threshold = t
		}
	}
}

// WithCatalogEntries merges language entries into the catalog, adding
// languages or overriding built-in texts.
func WithCatalogEntries(entries map[string]map[string]string) Option {
	return func(c *Composer) {
		for lang, keys := range entries {
			if c.catalog[lang] == nil {
				c.catalog[lang] = make(map[string]string, len(keys))
			}
			for k, v := range keys {
				c.catalog[lang][k] = v
			}
		}
	}
}

// WithSecondaryLanguage sets the parallel language used when the target
// language is English itself.
func WithSecondaryLanguage(lang string) Option {
	return func(c *Composer) {
		if lang != "" {
			c.secondary = lang
		}
	}
}

// Composer derives FeedbackMessages from ValidationResults.
type Composer struct {
	catalog   map[string]map[string]string
	threshold float64
	secondary string
}

// NewComposer builds a composer and validates the catalog: every key must
// exist for English and for each configured language.
func NewComposer(opts ...Option) (*Composer, error) {
	c := &Composer{
		catalog:   defaultCatalog(),
		threshold: defaultSignificanceThreshold,
		secondary: defaultSecondaryLanguage,
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, ok := c.catalog[baseLanguage]; !ok {
		return nil, fmt.Errorf("%w: missing base language %q", ErrCatalogIncomplete, baseLanguage)
	}
	for lang, keys := range c.catalog {
		for _, k := range catalogKeys {
			if _, ok := keys[k]; !ok {
				return nil, fmt.Errorf("%w: language %q missing key %q", ErrCatalogIncomplete, lang, k)
			}
		}
	}
	if _, ok := c.catalog[c.secondary]; !ok {
		return nil, fmt.Errorf("%w: secondary language %q not in catalog", ErrCatalogIncomplete, c.secondary)
	}
	return c, nil
}

// Supports reports whether a language can be composed for.
func (c *Composer) Supports(language string) bool {
	_, ok := c.catalog[language]
	return ok
}

// SignificanceThreshold returns the minimum instruction-worthy magnitude.
func (c *Composer) SignificanceThreshold() float64 {
	return c.threshold
}

// Compose derives the feedback message for a result in the target
// language. The parallel text is English, or the secondary language when
// the target is English itself.
func (c *Composer) Compose(result model.ValidationResult, language string) (model.FeedbackMessage, error) {
	texts, ok := c.catalog[language]
	if !ok {
		return model.FeedbackMessage{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	altLang := baseLanguage
	if language == baseLanguage {
		altLang = c.secondary
	}
	alt := c.catalog[altLang]

	if result.Correct {
		return model.FeedbackMessage{
			Kind:    model.FeedbackPositive,
			Text:    texts[keyPositive],
			TextAlt: alt[keyPositive],
		}, nil
	}

	var instructions []string
	for _, d := range result.Deviations {
		if d.Magnitude >= c.threshold {
			instructions = append(instructions, fmt.Sprintf(texts[keyInstructionAdjust], d.LandmarkIndex, d.Magnitude))
		}
	}
	if len(instructions) == 0 {
		// The non-empty-instructions invariant must hold even when no
		// deviation clears the threshold.
		instructions = append(instructions, texts[keyInstructionGeneric])
	}

	return model.FeedbackMessage{
		Kind:         model.FeedbackCorrective,
		Text:         texts[keyCorrective],
		TextAlt:      alt[keyCorrective],
		Instructions: instructions,
	}, nil
}

package runtime

import (
	"log/slog"
	"regexp"

	"github.com/aretw0/arbor/pkg/domain"
)

// DefaultRequiredMessage is reported for empty required fields.
const DefaultRequiredMessage = "This field is required"

// DefaultPatternMessage is reported when a value does not match the field pattern
// and the field has no errorMessage of its own.
const DefaultPatternMessage = "Invalid format"

// Validator is an externally supplied check run after the built-in rules.
// It receives the value bag and the visible input nodes and returns field errors keyed
// by node id. Returned entries override built-in messages for the same field.
type Validator func(values domain.Values, visible []domain.Node) map[string]string

// patternCache compiles field patterns once per form.
type patternCache map[string]*regexp.Regexp

func (c patternCache) get(pattern string) (*regexp.Regexp, error) {
	if re, ok := c[pattern]; ok && re != nil {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	c[pattern] = re
	return re, nil
}

// validateFields runs the built-in rules over the visible input nodes.
// A malformed pattern is logged and the pattern rule is skipped for that field.
func validateFields(inputs []domain.Node, values domain.Values, cache patternCache, logger *slog.Logger) domain.Errors {
	errs := make(domain.Errors)

	for i := range inputs {
		n := &inputs[i]
		in, ok := n.Input()
		if !ok {
			continue
		}
		v := nodeValue(n, values)

		if domain.IsEmpty(v) {
			if in.Required {
				errs[n.ID] = DefaultRequiredMessage
			}
			continue
		}

		if in.Pattern == "" {
			continue
		}
		re, err := cache.get(in.Pattern)
		if err != nil {
			logger.Warn("invalid field pattern, skipping rule",
				"node_id", n.ID,
				"pattern", in.Pattern,
				"error", err)
			continue
		}
		if !re.MatchString(stringify(normalize(v))) {
			msg := in.ErrorMessage
			if msg == "" {
				msg = DefaultPatternMessage
			}
			errs[n.ID] = msg
		}
	}

	return errs
}

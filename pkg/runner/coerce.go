package runner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// ParseAnswer converts a typed answer into the value stored for an input.
//
//   - number: a float64 (integers stay whole numbers)
//   - select/radio with options: the option value, chosen by 1-based index, label or value
//   - checkbox with options: a list of option values, comma separated
//   - checkbox without options: a bool (y/yes/true/1)
//   - anything else: the text itself
func ParseAnswer(in *domain.InputData, options []domain.Option, text string) (any, error) {
	text = strings.TrimSpace(text)
	if in == nil {
		return text, nil
	}

	switch in.InputType {
	case domain.InputTypeNumber:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", text)
		}
		return f, nil

	case domain.InputTypeSelect, domain.InputTypeRadio:
		if len(options) == 0 {
			return text, nil
		}
		return pickOption(options, text)

	case domain.InputTypeCheckbox:
		if len(options) == 0 {
			return parseBool(text)
		}
		var picked []any
		for _, part := range strings.Split(text, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := pickOption(options, part)
			if err != nil {
				return nil, err
			}
			picked = append(picked, v)
		}
		return picked, nil
	}
	return text, nil
}

func pickOption(options []domain.Option, text string) (any, error) {
	if i, err := strconv.Atoi(text); err == nil && i >= 1 && i <= len(options) {
		return options[i-1].Value, nil
	}
	for _, opt := range options {
		if strings.EqualFold(opt.Label, text) || fmt.Sprint(opt.Value) == text {
			return opt.Value, nil
		}
	}
	return nil, fmt.Errorf("%q is not one of the options", text)
}

func parseBool(text string) (bool, error) {
	switch strings.ToLower(text) {
	case "y", "yes", "true", "1", "x":
		return true, nil
	case "n", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%q is not yes or no", text)
}

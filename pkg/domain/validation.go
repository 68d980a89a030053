package domain

// ValidationResult is the outcome of a validation pass.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Errors Errors `json:"errors,omitempty"`
}

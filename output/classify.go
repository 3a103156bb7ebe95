package output

import "errors"

// Failure is the category reported for a parse attempt.
type Failure string

const (
	FailureNone   Failure = "success"
	FailureParse  Failure = "parse_error"
	FailureSchema Failure = "schema_violation"
)

// Classify maps a Parse error to its failure category. Errors that are
// neither *ParseError nor *SchemaViolation count as parse errors.
func Classify(err error) Failure {
	if err == nil {
		return FailureNone
	}
	var sv *SchemaViolation
	if errors.As(err, &sv) {
		return FailureSchema
	}
	return FailureParse
}

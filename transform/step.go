package transform

import "github.com/notectl/notectl-go/model"

// Step is a minimal, invertible document mutation. Applying a step never
// mutates the input document; it produces a new one sharing untouched
// structure.
type Step interface {
	// Apply computes the document this step produces. A failed result
	// carries the reason and leaves the input untouched.
	Apply(reg *model.Registry, doc *model.Document) StepResult

	// Invert creates a step that undoes this one, given the document it was
	// applied to.
	Invert(doc *model.Document) Step

	// Map rebases the step through a position mapping. Nil means the step
	// was rebased onto a delete that removed its target.
	Map(m Mappable) Step

	// Merge combines this step with a directly following one into a single
	// equivalent step, when possible.
	Merge(other Step) (Step, bool)

	// StepMap returns the position map describing this step's changes.
	StepMap() Mappable
}

// StepResult is the result of applying a step: either a new document or a
// failure message.
type StepResult struct {
	Doc    *model.Document
	Failed string
}

// OK creates a successful step result.
func OK(doc *model.Document) StepResult {
	return StepResult{Doc: doc}
}

// Fail creates a failed step result.
func Fail(message string) StepResult {
	return StepResult{Failed: message}
}

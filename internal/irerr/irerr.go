// Package irerr defines the error type the validator returns when an IR
// invariant is violated. It carries enough context (which
// invariant, and the offending node) for a caller to report a useful
// message without the validator needing its own formatting layer.
package irerr

import "fmt"

// Violation describes one broken invariant, anchored to the offending
// value for context.
type Violation struct {
	Rule    string // short invariant name, e.g. "block-adjacency"
	Detail  string
	Subject any // the offending Block/Instr/Register/etc., for %v formatting
}

func (v *Violation) Error() string {
	if v.Subject != nil {
		return fmt.Sprintf("ir: %s: %s (%v)", v.Rule, v.Detail, v.Subject)
	}
	return fmt.Sprintf("ir: %s: %s", v.Rule, v.Detail)
}

// New constructs a Violation.
func New(rule, detail string, subject any) *Violation {
	return &Violation{Rule: rule, Detail: detail, Subject: subject}
}

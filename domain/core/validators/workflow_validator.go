package validators

import (
	"fmt"
	"unicode/utf8"

	"matflow/domain/config"
	"matflow/domain/core/entities"
	"matflow/domain/services"
)

// Severity of a workflow issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is one finding about a decoded workflow.
type Issue struct {
	Severity Severity `json:"severity"`
	NodeID   string   `json:"node_id,omitempty"`
	Message  string   `json:"message"`
}

// WorkflowValidator inspects decoded workflows. It never rejects a workflow;
// incomplete nodes are legal and only reported.
type WorkflowValidator struct {
	cfg *config.DomainConfig
}

func NewWorkflowValidator(cfg *config.DomainConfig) *WorkflowValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &WorkflowValidator{cfg: cfg}
}

// Validate lists missing required attributes and overlong names as warnings,
// and everything the decoder had to drop as errors.
func (v *WorkflowValidator) Validate(nodes []*entities.Node, report services.DecodeReport) []Issue {
	var issues []Issue
	for _, n := range nodes {
		for _, key := range n.MissingAttributes() {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				NodeID:   n.ID().String(),
				Message:  fmt.Sprintf("%s node is missing %s", n.Type(), key),
			})
		}
		if utf8.RuneCountInString(n.Name()) > v.cfg.MaxNameLength {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				NodeID:   n.ID().String(),
				Message:  "name is too long",
			})
		}
	}
	for _, id := range report.DuplicateNodes {
		issues = append(issues, Issue{
			Severity: SeverityError,
			NodeID:   id,
			Message:  "duplicate node id",
		})
	}
	for _, d := range report.DroppedRelationships {
		issues = append(issues, Issue{
			Severity: SeverityError,
			NodeID:   d.Start,
			Message:  fmt.Sprintf("relationship %s -> %s dropped: %s", d.Start, d.End, d.Reason),
		})
	}
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// CountBySeverity tallies issues.
func CountBySeverity(issues []Issue) map[Severity]int {
	out := map[Severity]int{}
	for _, i := range issues {
		out[i.Severity]++
	}
	return out
}


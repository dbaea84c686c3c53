package services

import (
	"context"
	"fmt"

	"matflow/domain/config"
	"matflow/domain/core/aggregates"
	"matflow/domain/core/validators"
	domainservices "matflow/domain/services"
	"matflow/domain/versioning"

	"go.uber.org/zap"
)

// WorkflowTools runs offline operations on exported workflow files. It backs
// the wfctl command line tool and never touches storage.
type WorkflowTools struct {
	cfg       *config.DomainConfig
	validator *validators.WorkflowValidator
	logger    *zap.Logger
}

// NewWorkflowTools creates the tool set. A nil cfg uses the domain defaults.
func NewWorkflowTools(cfg *config.DomainConfig, logger *zap.Logger) *WorkflowTools {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowTools{
		cfg:       cfg,
		validator: validators.NewWorkflowValidator(cfg),
		logger:    logger,
	}
}

// ValidationResult summarises one workflow file
type ValidationResult struct {
	Nodes         int                         `json:"nodes"`
	Relationships int                         `json:"relationships"`
	Issues        []validators.Issue          `json:"issues"`
	Report        domainservices.DecodeReport `json:"report"`
}

// Valid reports whether the file has no error level issues
func (r *ValidationResult) Valid() bool {
	return !validators.HasErrors(r.Issues)
}

// Validate decodes data and reports missing attributes and dropped
// relationships.
func (t *WorkflowTools) Validate(data []byte) (*ValidationResult, error) {
	nodes, rels, report, err := domainservices.DeserializeWorkflow(data, t.cfg)
	if err != nil {
		return nil, err
	}
	issues := t.validator.Validate(nodes, report)
	t.logger.Debug("Workflow validated",
		zap.Int("nodes", len(nodes)),
		zap.Int("relationships", len(rels)),
		zap.Int("issues", len(issues)),
	)
	return &ValidationResult{
		Nodes:         len(nodes),
		Relationships: len(rels),
		Issues:        issues,
		Report:        report,
	}, nil
}

// NodePosition is one placed node
type NodePosition struct {
	ID   string  `json:"id"`
	Type string  `json:"type"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// LayoutResult holds the re-encoded workflow and where each node ended up
type LayoutResult struct {
	Workflow  []byte         `json:"-"`
	Positions []NodePosition `json:"positions"`
}

// Layout imports data onto a canvas, applies the named algorithm and returns
// the resulting positions in insertion order.
func (t *WorkflowTools) Layout(ctx context.Context, data []byte, algorithm string) (*LayoutResult, error) {
	layouter, err := domainservices.NewLayouter(algorithm)
	if err != nil {
		return nil, err
	}

	canvas := aggregates.NewCanvas(t.cfg, aggregates.WithLayouter(layouter))
	if _, err := canvas.Import(data); err != nil {
		return nil, err
	}
	if err := canvas.Layout(ctx); err != nil {
		return nil, fmt.Errorf("layout %q failed: %w", algorithm, err)
	}

	out, err := canvas.Export()
	if err != nil {
		return nil, err
	}
	result := &LayoutResult{Workflow: out}
	for _, n := range canvas.Nodes() {
		result.Positions = append(result.Positions, NodePosition{
			ID:   n.ID().String(),
			Type: string(n.Type()),
			Name: n.Name(),
			X:    n.Position().X(),
			Y:    n.Position().Y(),
		})
	}
	return result, nil
}

// Diff compares two exported workflows by node id.
func (t *WorkflowTools) Diff(from, to []byte) (versioning.VersionDiff, error) {
	fromNodes, fromRels, _, err := domainservices.DeserializeWorkflow(from, t.cfg)
	if err != nil {
		return versioning.VersionDiff{}, fmt.Errorf("first workflow: %w", err)
	}
	toNodes, toRels, _, err := domainservices.DeserializeWorkflow(to, t.cfg)
	if err != nil {
		return versioning.VersionDiff{}, fmt.Errorf("second workflow: %w", err)
	}
	return versioning.Compare(
		domainservices.BuildManifest(fromNodes, fromRels),
		domainservices.BuildManifest(toNodes, toRels),
	), nil
}

// Normalize decodes and re-encodes data, dropping anything the decoder
// rejects. The report lists what was removed.
func (t *WorkflowTools) Normalize(data []byte) ([]byte, domainservices.DecodeReport, error) {
	nodes, rels, report, err := domainservices.DeserializeWorkflow(data, t.cfg)
	if err != nil {
		return nil, report, err
	}
	out, err := domainservices.SerializeWorkflow(nodes, rels)
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}

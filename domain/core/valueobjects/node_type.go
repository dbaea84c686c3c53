package valueobjects

import (
	"fmt"
	"strings"
)

// NodeType is the kind of entity a node represents in a fabrication workflow.
type NodeType string

const (
	NodeTypeMatter        NodeType = "matter"
	NodeTypeManufacturing NodeType = "manufacturing"
	NodeTypeMeasurement   NodeType = "measurement"
	NodeTypeParameter     NodeType = "parameter"
	NodeTypeProperty      NodeType = "property"
	NodeTypeMetadata      NodeType = "metadata"
)

// AllNodeTypes lists node types in their canonical order.
var AllNodeTypes = []NodeType{
	NodeTypeMatter,
	NodeTypeManufacturing,
	NodeTypeMeasurement,
	NodeTypeParameter,
	NodeTypeProperty,
	NodeTypeMetadata,
}

var exportLabels = map[NodeType]string{
	NodeTypeMatter:        "EMMOMatter",
	NodeTypeManufacturing: "EMMOManufacturing",
	NodeTypeMeasurement:   "EMMOMeasurement",
	NodeTypeParameter:     "EMMOParameter",
	NodeTypeProperty:      "EMMOProperty",
	NodeTypeMetadata:      "EMMOMetadata",
}

// ParseNodeType accepts either the internal name ("matter") or the export
// label ("EMMOMatter"), case-insensitively.
func ParseNodeType(s string) (NodeType, error) {
	s = strings.TrimSpace(s)
	for _, t := range AllNodeTypes {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, exportLabels[t]) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown node type %q", s)
}

// IsValid reports whether t is one of the known node types.
func (t NodeType) IsValid() bool {
	_, ok := exportLabels[t]
	return ok
}

// ExportLabel returns the name used for t in the workflow export format.
func (t NodeType) ExportLabel() string {
	return exportLabels[t]
}

func (t NodeType) String() string {
	return string(t)
}

// RequiresValue reports whether nodes of this type must carry a value with an
// operator to be considered complete.
func (t NodeType) RequiresValue() bool {
	return t == NodeTypeParameter || t == NodeTypeProperty
}

// RequiredAttributes returns the attribute keys a node of this type must define.
func (t NodeType) RequiredAttributes() []AttributeKey {
	if t.RequiresValue() {
		return []AttributeKey{AttrName, AttrValue}
	}
	return []AttributeKey{AttrName}
}

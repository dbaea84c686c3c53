package entities

import (
	"matflow/domain/config"
	"matflow/domain/core/valueobjects"
	pkgerrors "matflow/pkg/errors"
)

// Node is one typed vertex of a fabrication workflow.
// Fields are private; the canvas aggregate is the only mutator.
type Node struct {
	id         valueobjects.NodeID
	nodeType   valueobjects.NodeType
	attributes valueobjects.Attributes
	position   valueobjects.Position
	size       float64
	layer      int
	isEditing  bool
}

// NewNode creates a node with empty attributes in editing mode.
func NewNode(nodeType valueobjects.NodeType, position valueobjects.Position, cfg *config.DomainConfig) (*Node, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if !nodeType.IsValid() {
		return nil, pkgerrors.NewValidationError("unknown node type: " + string(nodeType))
	}

	return &Node{
		id:         valueobjects.NewNodeID(),
		nodeType:   nodeType,
		attributes: valueobjects.Attributes{},
		position:   position,
		size:       cfg.DefaultNodeSize,
		isEditing:  true,
	}, nil
}

// ReconstructNode rebuilds a node from imported or stored data.
func ReconstructNode(
	id valueobjects.NodeID,
	nodeType valueobjects.NodeType,
	attributes valueobjects.Attributes,
	position valueobjects.Position,
	size float64,
	layer int,
) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("node ID cannot be empty")
	}
	if !nodeType.IsValid() {
		return nil, pkgerrors.NewValidationError("unknown node type: " + string(nodeType))
	}
	if attributes == nil {
		attributes = valueobjects.Attributes{}
	}

	return &Node{
		id:         id,
		nodeType:   nodeType,
		attributes: attributes.Clone(),
		position:   position,
		size:       size,
		layer:      layer,
	}, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Type returns the node's type
func (n *Node) Type() valueobjects.NodeType {
	return n.nodeType
}

// Attributes returns a copy of the node's attribute slots
func (n *Node) Attributes() valueobjects.Attributes {
	return n.attributes.Clone()
}

// Attribute returns a copy of a single slot
func (n *Node) Attribute(key valueobjects.AttributeKey) valueobjects.AttributeValue {
	return n.attributes[key].Clone()
}

// Name returns the joined name slot
func (n *Node) Name() string {
	return n.attributes.Text(valueobjects.AttrName)
}

func (n *Node) Position() valueobjects.Position { return n.position }
func (n *Node) Size() float64                   { return n.size }
func (n *Node) Layer() int                      { return n.layer }
func (n *Node) IsEditing() bool                 { return n.isEditing }

// SetAttribute replaces one slot and reports whether anything changed.
// An empty value clears the slot.
func (n *Node) SetAttribute(key valueobjects.AttributeKey, value valueobjects.AttributeValue) bool {
	current := n.attributes[key]
	if value.IsEmpty() {
		if current.IsEmpty() {
			return false
		}
		delete(n.attributes, key)
		return true
	}
	if current.Equal(value) {
		return false
	}
	n.attributes[key] = value.Clone()
	return true
}

// MoveTo sets the position and reports whether it changed.
func (n *Node) MoveTo(p valueobjects.Position) bool {
	if n.position.Equals(p) {
		return false
	}
	n.position = p
	return true
}

// Resize sets the display diameter, clamped to the configured range.
func (n *Node) Resize(size float64, cfg *config.DomainConfig) bool {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if size < cfg.MinNodeSize {
		size = cfg.MinNodeSize
	}
	if size > cfg.MaxNodeSize {
		size = cfg.MaxNodeSize
	}
	if size == n.size {
		return false
	}
	n.size = size
	return true
}

func (n *Node) SetLayer(layer int)      { n.layer = layer }
func (n *Node) SetEditing(editing bool) { n.isEditing = editing }

// MissingAttributes lists the required slots this node leaves undefined.
// Parameter and property values count as missing unless they carry an operator.
func (n *Node) MissingAttributes() []valueobjects.AttributeKey {
	var missing []valueobjects.AttributeKey
	for _, key := range n.nodeType.RequiredAttributes() {
		v := n.attributes[key]
		switch key {
		case valueobjects.AttrValue:
			if !v.HasOperatorValue() {
				missing = append(missing, key)
			}
		default:
			if !v.HasText() {
				missing = append(missing, key)
			}
		}
	}
	return missing
}

// IsComplete reports whether every required attribute is present.
func (n *Node) IsComplete() bool {
	return len(n.MissingAttributes()) == 0
}

// Clone returns a deep copy that shares nothing with n.
func (n *Node) Clone() *Node {
	c := *n
	c.attributes = n.attributes.Clone()
	return &c
}

// Equivalent compares identity, type and attributes, ignoring transient
// display state.
func (n *Node) Equivalent(other *Node) bool {
	return n.id.Equals(other.id) &&
		n.nodeType == other.nodeType &&
		n.attributes.Equal(other.attributes)
}

// Package services holds stateless domain logic shared by the canvas, the
// CLI and the workflow store: the export/import codec and graph layouts.
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"matflow/domain/config"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"
	"matflow/domain/versioning"
)

const (
	// MissingName stands in for an undefined required name.
	MissingName = "MISSING_NAME"
	// MissingValueOrOperator stands in for an undefined required value or
	// operator on parameter and property nodes.
	MissingValueOrOperator = "MISSING_VALUE_OR_OPERATOR"

	listSeparator = ";"
)

type exportNode struct {
	ID            string                     `json:"id"`
	Type          string                     `json:"type"`
	Attributes    map[string]json.RawMessage `json:"attributes"`
	Relationships []exportRelationship       `json:"relationships"`
}

type exportRelationship struct {
	RelType    string    `json:"rel_type"`
	Connection [2]string `json:"connection"`
}

type qualifiedAttribute struct {
	Value    string `json:"value"`
	Operator string `json:"operator,omitempty"`
	Index    string `json:"index,omitempty"`
}

// SerializeWorkflow renders nodes and relationships in the export format.
// Relationships are listed under their start node. Relationships whose start
// node is not in nodes, or whose type pair is not allowed, are skipped.
func SerializeWorkflow(nodes []*entities.Node, relationships []*entities.Relationship) ([]byte, error) {
	byID := make(map[valueobjects.NodeID]*entities.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID()] = n
	}

	outgoing := make(map[valueobjects.NodeID][]exportRelationship)
	for _, r := range relationships {
		start, ok := byID[r.Start()]
		if !ok {
			continue
		}
		end, ok := byID[r.End()]
		if !ok {
			continue
		}
		relType, ok := valueobjects.RelationshipType(start.Type(), end.Type())
		if !ok {
			continue
		}
		outgoing[start.ID()] = append(outgoing[start.ID()], exportRelationship{
			RelType:    string(relType),
			Connection: [2]string{r.Start().String(), r.End().String()},
		})
	}

	out := make([]exportNode, 0, len(nodes))
	for _, n := range nodes {
		attrs, err := encodeAttributes(n)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID(), err)
		}
		rels := outgoing[n.ID()]
		if rels == nil {
			rels = []exportRelationship{}
		}
		out = append(out, exportNode{
			ID:            n.ID().String(),
			Type:          n.Type().ExportLabel(),
			Attributes:    attrs,
			Relationships: rels,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeAttributes(n *entities.Node) (map[string]json.RawMessage, error) {
	attrs := n.Attributes()
	out := make(map[string]json.RawMessage)

	for _, key := range valueobjects.AllAttributeKeys {
		v := attrs[key]
		var encoded interface{}

		switch {
		case key == valueobjects.AttrName && !v.HasText():
			encoded = MissingName
		case key == valueobjects.AttrValue && n.Type().RequiresValue() && !v.HasText():
			encoded = MissingValueOrOperator
		case key == valueobjects.AttrValue && n.Type().RequiresValue() && !v.HasOperatorValue():
			q := encodeQualified(v)
			q.Operator = MissingValueOrOperator
			encoded = q
		case v.IsEmpty():
			continue
		case v.HasQualifiers():
			encoded = encodeQualified(v)
		default:
			encoded = strings.Join(v.Values(), listSeparator)
		}

		raw, err := json.Marshal(encoded)
		if err != nil {
			return nil, err
		}
		out[string(key)] = raw
	}
	return out, nil
}

func encodeQualified(v valueobjects.AttributeValue) qualifiedAttribute {
	values := make([]string, len(v))
	ops := make([]string, len(v))
	idx := make([]string, len(v))
	var hasOp, hasIdx bool
	for i, e := range v {
		values[i] = e.Value
		ops[i] = string(e.Operator)
		idx[i] = e.Index
		hasOp = hasOp || e.Operator != valueobjects.OpNone
		hasIdx = hasIdx || e.Index != ""
	}
	q := qualifiedAttribute{Value: strings.Join(values, listSeparator)}
	if hasOp {
		q.Operator = strings.Join(ops, listSeparator)
	}
	if hasIdx {
		q.Index = strings.Join(idx, listSeparator)
	}
	return q
}

// DroppedRelationship records a relationship ignored during decoding.
type DroppedRelationship struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason"`
}

// DecodeReport describes what DeserializeWorkflow had to discard.
type DecodeReport struct {
	DroppedRelationships []DroppedRelationship `json:"dropped_relationships,omitempty"`
	DuplicateNodes       []string              `json:"duplicate_nodes,omitempty"`
}

// Clean reports whether nothing was discarded.
func (r DecodeReport) Clean() bool {
	return len(r.DroppedRelationships) == 0 && len(r.DuplicateNodes) == 0
}

const (
	DropUnknownEndpoint = "unknown endpoint"
	DropSelf            = "self relationship"
	DropDuplicate       = "duplicate relationship"
	DropIllegal         = "illegal type pair"
)

// DeserializeWorkflow parses the export format. Node ids are kept, relationship
// ids are regenerated, and endpoints are resolved by node id. Relationships with
// unknown endpoints, self loops, duplicates (in either direction) and illegal
// type pairs are dropped and listed in the report. Positions are zero; callers
// place nodes themselves.
func DeserializeWorkflow(data []byte, cfg *config.DomainConfig) ([]*entities.Node, []*entities.Relationship, DecodeReport, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	var report DecodeReport

	var raw []exportNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, report, fmt.Errorf("invalid workflow: %w", err)
	}

	nodes := make([]*entities.Node, 0, len(raw))
	byID := make(map[string]*entities.Node, len(raw))
	for i, rn := range raw {
		if _, dup := byID[rn.ID]; dup {
			report.DuplicateNodes = append(report.DuplicateNodes, rn.ID)
			continue
		}
		id, err := valueobjects.NewNodeIDFromString(rn.ID)
		if err != nil {
			return nil, nil, report, fmt.Errorf("invalid workflow: node %d: %w", i, err)
		}
		nodeType, err := valueobjects.ParseNodeType(rn.Type)
		if err != nil {
			return nil, nil, report, fmt.Errorf("invalid workflow: node %s: %w", rn.ID, err)
		}
		attrs, err := decodeAttributes(rn.Attributes)
		if err != nil {
			return nil, nil, report, fmt.Errorf("invalid workflow: node %s: %w", rn.ID, err)
		}
		node, err := entities.ReconstructNode(id, nodeType, attrs, valueobjects.Pos(0, 0), cfg.DefaultNodeSize, i)
		if err != nil {
			return nil, nil, report, err
		}
		nodes = append(nodes, node)
		byID[rn.ID] = node
	}

	var relationships []*entities.Relationship
	for _, rn := range raw {
		for _, rr := range rn.Relationships {
			startID, endID := rr.Connection[0], rr.Connection[1]
			start, okStart := byID[startID]
			end, okEnd := byID[endID]

			reason := ""
			switch {
			case !okStart || !okEnd:
				reason = DropUnknownEndpoint
			case startID == endID:
				reason = DropSelf
			case !valueobjects.IsAllowedRelationship(start.Type(), end.Type()):
				reason = DropIllegal
			case containsPair(relationships, start.ID(), end.ID()):
				reason = DropDuplicate
			}
			if reason != "" {
				report.DroppedRelationships = append(report.DroppedRelationships, DroppedRelationship{
					Start: startID, End: endID, Reason: reason,
				})
				continue
			}
			relationships = append(relationships, entities.NewRelationship(start.ID(), end.ID()))
		}
	}

	return nodes, relationships, report, nil
}

func containsPair(rels []*entities.Relationship, a, b valueobjects.NodeID) bool {
	for _, r := range rels {
		if r.Connects(a, b) {
			return true
		}
	}
	return false
}

func decodeAttributes(raw map[string]json.RawMessage) (valueobjects.Attributes, error) {
	attrs := valueobjects.Attributes{}
	for name, msg := range raw {
		key, err := valueobjects.ParseAttributeKey(name)
		if err != nil {
			// Unknown slots from newer editors are ignored.
			continue
		}
		value, err := decodeAttribute(msg)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		if !value.IsEmpty() {
			attrs[key] = value
		}
	}
	return attrs, nil
}

func decodeAttribute(msg json.RawMessage) (valueobjects.AttributeValue, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] != '{' {
		var s flexString
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		if isSentinel(s.String()) {
			return nil, nil
		}
		return valueobjects.Plain(splitList(s.String())...), nil
	}

	var q qualifiedAttributeIn
	if err := json.Unmarshal(trimmed, &q); err != nil {
		return nil, err
	}
	if isSentinel(q.Value.String()) {
		return nil, nil
	}
	values := splitList(q.Value.String())
	ops := splitList(q.Operator.String())
	idx := splitList(q.Index.String())

	n := max(len(values), len(ops), len(idx))
	out := make(valueobjects.AttributeValue, 0, n)
	for i := 0; i < n; i++ {
		e := valueobjects.AttributeEntry{
			Value: at(values, i),
			Index: at(idx, i),
		}
		if opText := at(ops, i); !isSentinel(opText) {
			op, err := valueobjects.ParseOperator(opText)
			if err != nil {
				return nil, err
			}
			e.Operator = op
		}
		out = append(out, e)
	}
	return out, nil
}

// qualifiedAttributeIn accepts numbers as well as strings, since hand-edited
// files often carry bare numeric values.
type qualifiedAttributeIn struct {
	Value    flexString `json:"value"`
	Operator flexString `json:"operator"`
	Index    flexString `json:"index"`
}

type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return string(f) }

func isSentinel(s string) bool {
	s = strings.TrimSpace(s)
	return s == MissingName || s == MissingValueOrOperator
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, listSeparator)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// BuildManifest summarises nodes and relationships for versioning.Compare.
func BuildManifest(nodes []*entities.Node, relationships []*entities.Relationship) versioning.Manifest {
	m := versioning.Manifest{}
	types := make(map[valueobjects.NodeID]valueobjects.NodeType, len(nodes))
	for _, n := range nodes {
		types[n.ID()] = n.Type()
		fields := []string{string(n.Type())}
		attrs := n.Attributes()
		for _, key := range valueobjects.AllAttributeKeys {
			for _, e := range attrs[key] {
				fields = append(fields, string(key), e.Value, string(e.Operator), e.Index)
			}
		}
		m.Nodes = append(m.Nodes, versioning.NodeDigest{
			ID:          n.ID().String(),
			Type:        string(n.Type()),
			Name:        n.Name(),
			Fingerprint: versioning.Fingerprint(fields...),
		})
	}
	for _, r := range relationships {
		relType, _ := valueobjects.RelationshipType(types[r.Start()], types[r.End()])
		m.Edges = append(m.Edges, versioning.EdgeDigest{
			Start:   r.Start().String(),
			End:     r.End().String(),
			RelType: string(relType),
		})
	}
	return m
}

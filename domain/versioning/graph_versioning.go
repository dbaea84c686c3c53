package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// ChangeType represents the type of change
type ChangeType string

const (
	ChangeTypeNodeAdded       ChangeType = "node_added"
	ChangeTypeNodeRemoved     ChangeType = "node_removed"
	ChangeTypeNodeUpdated     ChangeType = "node_updated"
	ChangeTypeRelationAdded   ChangeType = "relationship_added"
	ChangeTypeRelationRemoved ChangeType = "relationship_removed"
)

// Change represents one difference between two workflow versions
type Change struct {
	Type     ChangeType `json:"type"`
	EntityID string     `json:"entity_id"`
	Detail   string     `json:"detail,omitempty"`
}

// NodeDigest summarises a node for comparison. Fingerprint covers type and
// attributes; positions are not part of a workflow's identity.
type NodeDigest struct {
	ID          string
	Type        string
	Name        string
	Fingerprint string
}

// EdgeDigest summarises a relationship for comparison.
type EdgeDigest struct {
	Start   string
	End     string
	RelType string
}

func (e EdgeDigest) key() string {
	return e.Start + "->" + e.End
}

// Manifest is the comparable shape of one workflow.
type Manifest struct {
	Nodes []NodeDigest
	Edges []EdgeDigest
}

// VersionDiff lists all changes from one manifest to another, sorted for
// stable output.
type VersionDiff struct {
	Changes []Change `json:"changes"`
}

// Empty reports whether the two versions are equivalent.
func (d VersionDiff) Empty() bool {
	return len(d.Changes) == 0
}

// Count returns the number of changes of one type.
func (d VersionDiff) Count(t ChangeType) int {
	n := 0
	for _, c := range d.Changes {
		if c.Type == t {
			n++
		}
	}
	return n
}

// Checksum returns the hex sha256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint hashes an ordered list of fields into a short digest.
func Fingerprint(fields ...string) string {
	h := sha256.New()
	for _, f := range fields {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Compare computes the changes needed to turn from into to.
func Compare(from, to Manifest) VersionDiff {
	var changes []Change

	oldNodes := make(map[string]NodeDigest, len(from.Nodes))
	for _, n := range from.Nodes {
		oldNodes[n.ID] = n
	}
	newNodes := make(map[string]NodeDigest, len(to.Nodes))
	for _, n := range to.Nodes {
		newNodes[n.ID] = n
	}

	for id, n := range newNodes {
		old, ok := oldNodes[id]
		switch {
		case !ok:
			changes = append(changes, Change{Type: ChangeTypeNodeAdded, EntityID: id, Detail: n.Type + " " + n.Name})
		case old.Fingerprint != n.Fingerprint || old.Type != n.Type:
			changes = append(changes, Change{Type: ChangeTypeNodeUpdated, EntityID: id, Detail: n.Name})
		}
	}
	for id, n := range oldNodes {
		if _, ok := newNodes[id]; !ok {
			changes = append(changes, Change{Type: ChangeTypeNodeRemoved, EntityID: id, Detail: n.Type + " " + n.Name})
		}
	}

	oldEdges := make(map[string]EdgeDigest, len(from.Edges))
	for _, e := range from.Edges {
		oldEdges[e.key()] = e
	}
	newEdges := make(map[string]EdgeDigest, len(to.Edges))
	for _, e := range to.Edges {
		newEdges[e.key()] = e
	}
	for k, e := range newEdges {
		if _, ok := oldEdges[k]; !ok {
			changes = append(changes, Change{Type: ChangeTypeRelationAdded, EntityID: k, Detail: e.RelType})
		}
	}
	for k, e := range oldEdges {
		if _, ok := newEdges[k]; !ok {
			changes = append(changes, Change{Type: ChangeTypeRelationRemoved, EntityID: k, Detail: e.RelType})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Type != changes[j].Type {
			return changes[i].Type < changes[j].Type
		}
		return changes[i].EntityID < changes[j].EntityID
	})
	return VersionDiff{Changes: changes}
}

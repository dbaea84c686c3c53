package valueobjects

// RelType is the exported name of a relationship between two node types.
type RelType string

const (
	RelIsManufacturingInput     RelType = "IS_MANUFACTURING_INPUT"
	RelIsManufacturingOutput    RelType = "IS_MANUFACTURING_OUTPUT"
	RelIsMeasurementInput       RelType = "IS_MEASUREMENT_INPUT"
	RelHasProperty              RelType = "HAS_PROPERTY"
	RelHasParameter             RelType = "HAS_PARAMETER"
	RelHasMeasurementOutput     RelType = "HAS_MEASUREMENT_OUTPUT"
	RelHasManufacturingMetadata RelType = "HAS_MANUFACTURING_METADATA"
	RelHasMeasurementMetadata   RelType = "HAS_MEASUREMENT_METADATA"
)

type typePair struct {
	start NodeType
	end   NodeType
}

var allowedRelationships = map[typePair]RelType{
	{NodeTypeMatter, NodeTypeManufacturing}:    RelIsManufacturingInput,
	{NodeTypeManufacturing, NodeTypeMatter}:    RelIsManufacturingOutput,
	{NodeTypeMatter, NodeTypeMeasurement}:      RelIsMeasurementInput,
	{NodeTypeMatter, NodeTypeProperty}:         RelHasProperty,
	{NodeTypeManufacturing, NodeTypeParameter}: RelHasParameter,
	{NodeTypeMeasurement, NodeTypeProperty}:    RelHasMeasurementOutput,
	{NodeTypeManufacturing, NodeTypeMetadata}:  RelHasManufacturingMetadata,
	{NodeTypeMeasurement, NodeTypeMetadata}:    RelHasMeasurementMetadata,
}

// RelationshipType returns the relationship name for a start/end type pair and
// whether the pair is allowed at all.
func RelationshipType(start, end NodeType) (RelType, bool) {
	rt, ok := allowedRelationships[typePair{start, end}]
	return rt, ok
}

// IsAllowedRelationship reports whether start -> end is on the allow-list.
func IsAllowedRelationship(start, end NodeType) bool {
	_, ok := allowedRelationships[typePair{start, end}]
	return ok
}

// AllowedTargets lists the node types a node of the given type may point to.
func AllowedTargets(start NodeType) []NodeType {
	var out []NodeType
	for _, end := range AllNodeTypes {
		if IsAllowedRelationship(start, end) {
			out = append(out, end)
		}
	}
	return out
}

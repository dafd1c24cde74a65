package pattern

// ArgSpec describes one pattern argument
type ArgSpec struct {
	Name        string `json:"name" yaml:"name"`
	Required    bool   `json:"required" yaml:"required"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
	Description string `json:"description" yaml:"description"`
}

// Descriptor documents a catalog entry
type Descriptor struct {
	ID          string    `json:"id" yaml:"id"`
	Index       int       `json:"index" yaml:"index"`
	Arity       int       `json:"arity" yaml:"arity"`
	SetValued   bool      `json:"set_valued" yaml:"set_valued"`
	Args        []ArgSpec `json:"args,omitempty" yaml:"args,omitempty"`
	Description string    `json:"description" yaml:"description"`
}

// arity 0 means the number of roles depends on arguments
var descriptors = [...]Descriptor{
	Triangle: {
		Arity:       3,
		Description: "three mutually adjacent nodes",
	},
	FourClique: {
		Arity:       4,
		Description: "four mutually adjacent nodes",
	},
	Path3: {
		Arity:       4,
		Description: "induced path a-b-c-d: consecutive nodes adjacent, all other pairs not adjacent",
	},
	HopPairs: {
		Description: "per node pair: connected by a path of at most hops edges",
		Args: []ArgSpec{
			{Name: ArgHops, Default: "4", Description: "maximum path length"},
		},
	},
	HopNeighborhood: {
		Description: "per node: reachable from start by a path of at most hops edges",
		Args: []ArgSpec{
			{Name: ArgStart, Required: true, Description: "start node"},
			{Name: ArgHops, Default: "2", Description: "maximum path length"},
		},
	},
	DegreeAtLeast: {
		Description: "per node: at least degree incident edges; keeps confidences >= threshold",
		Args: []ArgSpec{
			{Name: ArgDegree, Required: true, Description: "minimum degree"},
			{Name: ArgThreshold, Default: "0.8", Description: "minimum confidence reported"},
			{Name: ArgNode, Description: "restrict to one node"},
		},
	},
	SharedNeighbors: {
		Arity:       4,
		Description: "per non-adjacent pair x,z: at least two common neighbours",
	},
	TriangleSet: {
		Arity:       3,
		Description: "per triangle: its confidence, keeping those > threshold",
		Args: []ArgSpec{
			{Name: ArgThreshold, Default: "0.8", Description: "confidence a triangle must exceed"},
		},
	},
}

// Describe returns the descriptor of k
func Describe(k Kind) Descriptor {
	d := descriptors[k]
	d.ID = k.String()
	d.Index = int(k)
	d.SetValued = k.SetValued()
	return d
}

// Catalog lists every pattern in index order
func Catalog() []Descriptor {
	out := make([]Descriptor, 0, len(descriptors))
	for _, k := range Kinds() {
		out = append(out, Describe(k))
	}
	return out
}

package pattern

import (
	"context"
	"testing"

	"github.com/soundprediction/graphconf/pkg/graph"
	"github.com/soundprediction/graphconf/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T, edges ...[2]graph.NodeID) *graph.Model {
	t.Helper()
	b := graph.NewBuilder()
	for _, e := range edges {
		require.NoError(t, b.AddEdge(e[0], e[1], 0.5))
	}
	return b.Build()
}

func k4(t *testing.T) *graph.Model {
	return buildGraph(t,
		[2]graph.NodeID{"1", "2"}, [2]graph.NodeID{"1", "3"}, [2]graph.NodeID{"1", "4"},
		[2]graph.NodeID{"2", "3"}, [2]graph.NodeID{"2", "4"}, [2]graph.NodeID{"3", "4"},
	)
}

func square(t *testing.T) *graph.Model {
	return buildGraph(t,
		[2]graph.NodeID{"1", "2"}, [2]graph.NodeID{"2", "3"},
		[2]graph.NodeID{"3", "4"}, [2]graph.NodeID{"4", "1"},
	)
}

func mustParse(t *testing.T, id string, args Args) Pattern {
	t.Helper()
	p, err := Parse(id, args)
	require.NoError(t, err)
	return p
}

func TestParse(t *testing.T) {
	t.Run("numeric index", func(t *testing.T) {
		p := mustParse(t, "2", nil)
		assert.Equal(t, Path3, p.Kind)
	})

	t.Run("defaults", func(t *testing.T) {
		p := mustParse(t, "hop-neighborhood", Args{ArgStart: "1"})
		assert.Equal(t, 2, p.Hops)
		assert.Equal(t, graph.NodeID("1"), p.Start)

		p = mustParse(t, "hop-pairs", nil)
		assert.Equal(t, 4, p.Hops)

		p = mustParse(t, "triangle-set", nil)
		assert.True(t, p.HasThresh)
		assert.Equal(t, 0.8, p.Threshold)
	})

	tests := []struct {
		name string
		id   string
		args Args
		want error
	}{
		{"unknown id", "pentagon", nil, types.ErrInvalidPattern},
		{"index out of range", "9", nil, types.ErrInvalidPattern},
		{"missing start", "hop-neighborhood", nil, types.ErrMissingArgument},
		{"missing degree", "degree-at-least", Args{ArgThreshold: "0.5"}, types.ErrMissingArgument},
		{"bad hops", "hop-pairs", Args{ArgHops: "zero"}, types.ErrInvalidArgument},
		{"hops too large", "hop-pairs", Args{ArgHops: "40"}, types.ErrInvalidArgument},
		{"threshold out of range", "triangle-set", Args{ArgThreshold: "1.5"}, types.ErrInvalidArgument},
		{"argument not accepted", "triangle", Args{ArgStart: "1"}, types.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.id, tt.args)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, types.IsValidationError(err))

			var argErr *ArgumentError
			assert.ErrorAs(t, err, &argErr)
		})
	}
}

func TestKeep(t *testing.T) {
	deg := mustParse(t, "degree-at-least", Args{ArgDegree: "2", ArgThreshold: "0.5"})
	assert.True(t, deg.Keep(0.5))
	assert.False(t, deg.Keep(0.49))

	tri := mustParse(t, "triangle-set", Args{ArgThreshold: "0.5"})
	assert.False(t, tri.Keep(0.5))
	assert.True(t, tri.Keep(0.51))

	pairs := mustParse(t, "hop-pairs", nil)
	assert.True(t, pairs.Keep(0))
}

func TestCatalog(t *testing.T) {
	cat := Catalog()
	require.Len(t, cat, len(Kinds()))
	for i, d := range cat {
		assert.Equal(t, i, d.Index)
		k, err := ParseKind(d.ID)
		require.NoError(t, err)
		assert.Equal(t, Kind(i), k)
		assert.NotEmpty(t, d.Description)
	}
	assert.False(t, cat[Triangle].SetValued)
	assert.True(t, cat[TriangleSet].SetValued)
}

func enumerate(t *testing.T, m *graph.Model, p Pattern) []Embedding {
	t.Helper()
	embs, err := Enumerate(context.Background(), m, p)
	require.NoError(t, err)
	return embs
}

func TestEnumerateTriangle(t *testing.T) {
	embs := enumerate(t, k4(t), mustParse(t, "triangle", nil))
	require.Len(t, embs, 4)
	for _, e := range embs {
		assert.True(t, graph.Less(e.Roles[0], e.Roles[1]) && graph.Less(e.Roles[1], e.Roles[2]))
		assert.Len(t, e.Literals, 3)
		assert.Empty(t, e.Key)
	}
	assert.Equal(t, []graph.NodeID{"1", "2", "3"}, embs[0].Roles)

	assert.Empty(t, enumerate(t, square(t), mustParse(t, "triangle", nil)))
}

func TestEnumerateFourClique(t *testing.T) {
	embs := enumerate(t, k4(t), mustParse(t, "four-clique", nil))
	require.Len(t, embs, 1)
	assert.Equal(t, []graph.NodeID{"1", "2", "3", "4"}, embs[0].Roles)
	assert.Len(t, embs[0].Literals, 6)
}

func TestEnumeratePath3(t *testing.T) {
	t.Run("bare path keeps only positive literals", func(t *testing.T) {
		m := buildGraph(t, [2]graph.NodeID{"1", "2"}, [2]graph.NodeID{"2", "3"}, [2]graph.NodeID{"3", "4"})
		embs := enumerate(t, m, mustParse(t, "path3", nil))
		require.Len(t, embs, 1)
		assert.Equal(t, []graph.NodeID{"1", "2", "3", "4"}, embs[0].Roles)
		for _, l := range embs[0].Literals {
			assert.True(t, l.Positive)
		}
	})

	t.Run("square adds the closing non-edge", func(t *testing.T) {
		embs := enumerate(t, square(t), mustParse(t, "path3", nil))
		require.Len(t, embs, 4)
		for _, e := range embs {
			assert.True(t, graph.Less(e.Roles[0], e.Roles[3]))
			require.Len(t, e.Literals, 4)
			assert.False(t, e.Literals[3].Positive)
		}
	})

	t.Run("complete graph keeps every negative literal", func(t *testing.T) {
		embs := enumerate(t, k4(t), mustParse(t, "path3", nil))
		assert.Len(t, embs, 12)
	})
}

func TestEnumerateHopNeighborhood(t *testing.T) {
	m := buildGraph(t, [2]graph.NodeID{"1", "2"}, [2]graph.NodeID{"2", "3"}, [2]graph.NodeID{"3", "4"})

	embs := enumerate(t, m, mustParse(t, "hop-neighborhood", Args{ArgStart: "1", ArgHops: "2"}))
	keys := map[string]int{}
	for _, e := range embs {
		keys[e.Key]++
		assert.Equal(t, graph.NodeID("1"), e.Roles[0])
	}
	assert.Equal(t, map[string]int{"2": 1, "3": 1}, keys)

	_, err := Enumerate(context.Background(), m, mustParse(t, "hop-neighborhood", Args{ArgStart: "99"}))
	assert.ErrorIs(t, err, types.ErrMissingArgument)
}

func TestEnumerateHopPairs(t *testing.T) {
	embs := enumerate(t, square(t), mustParse(t, "hop-pairs", Args{ArgHops: "2"}))
	keys := map[string]int{}
	for _, e := range embs {
		keys[e.Key]++
	}
	// adjacent pairs have the direct edge and no 2-hop path; diagonals have two 2-hop paths
	assert.Equal(t, map[string]int{"1,2": 1, "2,3": 1, "3,4": 1, "1,4": 1, "1,3": 2, "2,4": 2}, keys)
}

func TestEnumerateHopPairsSkipsLastNodes(t *testing.T) {
	// 1-2-3 and 7-8, with 3 and 8 last in their components
	m := buildGraph(t,
		[2]graph.NodeID{"1", "2"}, [2]graph.NodeID{"2", "3"}, [2]graph.NodeID{"7", "8"},
	)
	assert.True(t, reachesAbove(m, "1", 2))
	assert.True(t, reachesAbove(m, "2", 1))
	assert.False(t, reachesAbove(m, "3", 2))
	assert.False(t, reachesAbove(m, "8", 4))
	assert.False(t, reachesAbove(m, "missing", 2))

	embs := enumerate(t, m, mustParse(t, "hop-pairs", Args{ArgHops: "2"}))
	keys := map[string]int{}
	for _, e := range embs {
		keys[e.Key]++
	}
	assert.Equal(t, map[string]int{"1,2": 1, "2,3": 1, "1,3": 1, "7,8": 1}, keys)
}

func TestEnumerateDegreeAtLeast(t *testing.T) {
	star := buildGraph(t, [2]graph.NodeID{"0", "1"}, [2]graph.NodeID{"0", "2"}, [2]graph.NodeID{"0", "3"})

	embs := enumerate(t, star, mustParse(t, "degree-at-least", Args{ArgDegree: "2"}))
	require.Len(t, embs, 3)
	for _, e := range embs {
		assert.Equal(t, "0", e.Key)
		assert.Len(t, e.Literals, 2)
	}

	embs = enumerate(t, star, mustParse(t, "degree-at-least", Args{ArgDegree: "1", ArgNode: "2"}))
	require.Len(t, embs, 1)
	assert.Equal(t, "2", embs[0].Key)
}

func TestEnumerateSharedNeighbors(t *testing.T) {
	embs := enumerate(t, square(t), mustParse(t, "shared-neighbors", nil))
	require.Len(t, embs, 2)
	assert.Equal(t, "1,3", embs[0].Key)
	assert.Equal(t, "2,4", embs[1].Key)
	// x,z are not adjacent in the square, so the negative literal is certain and dropped
	assert.Len(t, embs[0].Literals, 4)

	embs = enumerate(t, k4(t), mustParse(t, "shared-neighbors", nil))
	require.NotEmpty(t, embs)
	for _, e := range embs {
		require.Len(t, e.Literals, 5)
		assert.False(t, e.Literals[4].Positive)
	}
}

func TestEnumerateEmptyGraph(t *testing.T) {
	for _, k := range Kinds() {
		args := Args{}
		for _, a := range Describe(k).Args {
			if a.Required {
				args[a.Name] = "1"
			}
		}
		embs, err := Enumerate(context.Background(), graph.Empty(), mustParse(t, k.String(), args))
		assert.NoError(t, err, k.String())
		assert.Empty(t, embs, k.String())
	}
}

func TestEnumerateDeterministic(t *testing.T) {
	m := k4(t)
	p := mustParse(t, "path3", nil)
	assert.Equal(t, enumerate(t, m, p), enumerate(t, m, p))
}

func TestEnumerateCancelled(t *testing.T) {
	b := graph.NewBuilder()
	for i := range 40 {
		for j := i + 1; j < 40; j++ {
			require.NoError(t, b.AddEdge(graph.NodeID(rune('A'+i)), graph.NodeID(rune('A'+j)), 0.5))
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Enumerate(ctx, b.Build(), mustParse(t, "four-clique", nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompareKeys(t *testing.T) {
	assert.Negative(t, CompareKeys("2,3", "10,1"))
	assert.Positive(t, CompareKeys("1,10", "1,9"))
	assert.Zero(t, CompareKeys("a,b", "a,b"))
}

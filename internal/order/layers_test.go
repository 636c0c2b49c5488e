package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pushorder/internal/capture"
	"github.com/roach88/pushorder/internal/graph"
)

func node(id string, typ capture.ResourceType, size int64, deps ...string) *graph.Node {
	return &graph.Node{ID: id, Type: typ, Size: size, Dependencies: deps}
}

func rec(id string, typ capture.ResourceType, size int64, deps ...string) capture.Record {
	return capture.Record{ID: id, Type: typ, Size: size, Dependencies: deps}
}

func layeredGraph(t *testing.T, records ...capture.Record) *graph.Graph {
	t.Helper()
	g, err := graph.Build(records[0].ID, records)
	require.NoError(t, err)
	require.NoError(t, g.AssignLayers())
	return g
}

func nodeIDs(nodes []*graph.Node) []string {
	return ids(nodes)
}

func TestSortLeaves_TypeThenSize(t *testing.T) {
	in := []*graph.Node{
		node("big.js", capture.TypeScript, 900),
		node("img.png", capture.TypeImage, 10),
		node("b.woff2", capture.TypeFont, 300),
		node("a.css", capture.TypeStylesheet, 150),
		node("b.css", capture.TypeStylesheet, 100),
		node("small.js", capture.TypeScript, 50),
		node("frame.html", capture.TypeDocument, 5000),
	}

	got := SortLeaves(in)
	assert.Equal(t, []string{"frame.html", "b.css", "a.css", "b.woff2", "img.png", "small.js", "big.js"}, nodeIDs(got))
	assert.Equal(t, "big.js", in[0].ID, "input is left untouched")
}

func TestSortLeaves_StableOnTies(t *testing.T) {
	in := []*graph.Node{
		node("first.js", capture.TypeScript, 100),
		node("second.js", capture.TypeScript, 100),
		node("third.js", capture.TypeScript, 100),
	}
	assert.Equal(t, []string{"first.js", "second.js", "third.js"}, nodeIDs(SortLeaves(in)))
}

func TestTransmissionOrder(t *testing.T) {
	nodes := []*graph.Node{
		node("x.js", capture.TypeScript, 1, "a.js", "b.js"),
		node("y.js", capture.TypeScript, 1, "index.html", "b.js", "c.js"),
	}
	assert.Equal(t, []string{"index.html", "a.js", "b.js", "c.js"}, TransmissionOrder(nodes, "index.html"))

	noRoot := []*graph.Node{node("x.js", capture.TypeScript, 1, "a.js")}
	assert.Equal(t, []string{"a.js"}, TransmissionOrder(noRoot, "index.html"))

	assert.Empty(t, TransmissionOrder(nil, "index.html"))
}

func TestMergeOrders(t *testing.T) {
	got := MergeOrders(
		[]string{"index.html", "a.js", "b.js"},
		[]string{"index.html", "b.js", "c.css", "a.js"},
		"index.html",
	)
	assert.Equal(t, []string{"a.js", "b.js", "c.css"}, got)
	assert.Empty(t, MergeOrders([]string{"index.html"}, nil, "index.html"))
}

func TestReorder_ExactMatch(t *testing.T) {
	// "a.js" is a substring of "data.js"; only the exact id may match
	nodes := []*graph.Node{
		node("data.js", capture.TypeScript, 1),
		node("a.js", capture.TypeScript, 1),
	}
	got := Reorder(nodes, []string{"a.js"})
	assert.Equal(t, []string{"a.js", "data.js"}, nodeIDs(got))
}

func TestReorder_UnmentionedKeepRelativeOrder(t *testing.T) {
	nodes := []*graph.Node{
		node("p.js", capture.TypeScript, 1),
		node("q.js", capture.TypeScript, 1),
		node("r.js", capture.TypeScript, 1),
		node("s.js", capture.TypeScript, 1),
	}
	got := Reorder(nodes, []string{"s.js", "x.js", "r.js", "s.js"})
	assert.Equal(t, []string{"s.js", "r.js", "p.js", "q.js"}, nodeIDs(got))
	assert.Len(t, got, len(nodes))
}

func TestOrderLayers_LinearChain(t *testing.T) {
	g := layeredGraph(t,
		rec("index.html", capture.TypeDocument, 500, "index.html"),
		rec("style.css", capture.TypeStylesheet, 200, "index.html"),
		rec("app.js", capture.TypeScript, 300, "index.html", "style.css"),
	)

	plans := OrderLayers(g)
	require.Len(t, plans, 3)
	assert.Equal(t, []string{"index.html"}, plans[0].HasSuccessor)
	assert.Equal(t, []string{"style.css"}, plans[1].HasSuccessor)
	assert.Equal(t, []string{"app.js"}, plans[2].Leaves)
	assert.Equal(t, []string{"style.css"}, plans[2].Order)

	assert.Equal(t, []string{"index.html", "style.css", "app.js"}, Merge(plans))
}

func TestOrderLayers_LeafStylesheetsBySize(t *testing.T) {
	g := layeredGraph(t,
		rec("index.html", capture.TypeDocument, 500),
		rec("a.css", capture.TypeStylesheet, 150, "index.html"),
		rec("b.css", capture.TypeStylesheet, 100, "index.html"),
	)
	assert.Equal(t, []string{"index.html", "b.css", "a.css"}, Merge(OrderLayers(g)))
}

func TestOrderLayers_PropagatesDeeperOrder(t *testing.T) {
	g := layeredGraph(t,
		rec("index.html", capture.TypeDocument, 500, "index.html"),
		rec("a.js", capture.TypeScript, 100, "index.html"),
		rec("b.js", capture.TypeScript, 100, "index.html"),
		rec("c.css", capture.TypeStylesheet, 100, "index.html"),
		rec("x.js", capture.TypeScript, 10, "index.html", "b.js"),
		rec("y.js", capture.TypeScript, 20, "index.html", "a.js"),
	)

	plans := OrderLayers(g)
	require.Len(t, plans, 3)
	assert.Equal(t, []string{"b.js", "a.js"}, plans[2].Order)
	assert.Equal(t, []string{"b.js", "a.js"}, plans[1].HasSuccessor, "layer 1 follows layer 2's references")
	assert.Equal(t, []string{"c.css"}, plans[1].Leaves)

	assert.Equal(t, []string{"index.html", "b.js", "a.js", "c.css", "x.js", "y.js"}, Merge(plans))
}

func TestOrderLayers_PropagationThroughSeveralLayers(t *testing.T) {
	g := layeredGraph(t,
		rec("index.html", capture.TypeDocument, 1),
		rec("p.js", capture.TypeScript, 1, "index.html"),
		rec("q.js", capture.TypeScript, 1, "index.html"),
		rec("p2.js", capture.TypeScript, 1, "p.js"),
		rec("q2.js", capture.TypeScript, 1, "q.js"),
		rec("leaf.js", capture.TypeScript, 1, "q2.js", "p2.js"),
	)

	plans := OrderLayers(g)
	require.Len(t, plans, 4)
	assert.Equal(t, []string{"q2.js", "p2.js"}, plans[2].HasSuccessor)
	assert.Equal(t, []string{"q.js", "p.js"}, plans[1].HasSuccessor)
	assert.Equal(t, []string{"index.html", "q.js", "p.js", "q2.js", "p2.js", "leaf.js"}, Merge(plans))
}

func TestOrderLayers_RootFirstInLayerZero(t *testing.T) {
	// orphan.js has no dependencies and shares layer 0 with the root
	g := layeredGraph(t,
		rec("index.html", capture.TypeDocument, 900),
		rec("orphan.js", capture.TypeScript, 1),
		rec("tiny.html", capture.TypeDocument, 1, "orphan.js"),
		rec("a.css", capture.TypeStylesheet, 1, "index.html"),
	)

	plans := OrderLayers(g)
	assert.Equal(t, "index.html", plans[0].HasSuccessor[0])
	assert.Equal(t, []string{"index.html", "orphan.js", "tiny.html", "a.css"}, Merge(plans))
}

func TestOrderLayers_RootOnly(t *testing.T) {
	g := layeredGraph(t, rec("index.html", capture.TypeDocument, 1))
	plans := OrderLayers(g)
	require.Len(t, plans, 1)
	assert.Equal(t, []string{"index.html"}, Merge(plans))
}

func TestOrderLayers_Deterministic(t *testing.T) {
	build := func() []string {
		g := layeredGraph(t,
			rec("index.html", capture.TypeDocument, 1, "index.html"),
			rec("a.css", capture.TypeStylesheet, 30, "index.html"),
			rec("b.css", capture.TypeStylesheet, 20, "index.html"),
			rec("c.woff2", capture.TypeFont, 10, "index.html"),
			rec("d.js", capture.TypeScript, 5, "index.html"),
			rec("e.js", capture.TypeScript, 5, "d.js"),
			rec("f.js", capture.TypeScript, 1, "d.js", "e.js"),
		)
		return Merge(OrderLayers(g))
	}

	first := build()
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, build())
	}
}

func TestMerge_DropsRepeats(t *testing.T) {
	plans := []LayerPlan{
		{Layer: 0, HasSuccessor: []string{"index.html"}},
		{Layer: 1, HasSuccessor: []string{"a.js", "index.html"}, Leaves: []string{"b.css", "a.js"}},
	}
	assert.Equal(t, []string{"index.html", "a.js", "b.css"}, Merge(plans))
	assert.Empty(t, Merge(nil))
}

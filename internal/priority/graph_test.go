package priority

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/fitz/triage/internal/models"
)

func chain(edges map[string][]string, ids ...string) []models.Task {
	tasks := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		tasks = append(tasks, models.Task{ID: id, Title: id, Importance: 5, Blocks: edges[id]})
	}
	return tasks
}

func TestCycles_TwoNodeCycle(t *testing.T) {
	g := BuildGraph(chain(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}, "a", "b"))

	got := g.Cycles()
	want := [][]string{{"a", "b"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCycles_NoCycle(t *testing.T) {
	g := BuildGraph(chain(map[string][]string{
		"a": {"b"},
		"b": {"c"},
	}, "a", "b", "c"))

	if got := g.Cycles(); len(got) != 0 {
		t.Errorf("expected no cycles, got %v", got)
	}
}

func TestCycles_SelfLoop(t *testing.T) {
	g := BuildGraph(chain(map[string][]string{
		"a": {"a"},
	}, "a", "b"))

	got := g.Cycles()
	want := [][]string{{"a"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if n := g.DependentCount("a"); n != 0 {
		t.Errorf("self edge must not count as a dependent, got %d", n)
	}
}

func TestCycles_DisconnectedComponents(t *testing.T) {
	g := BuildGraph(chain(map[string][]string{
		"a": {"b"},
		"b": {"a"},
		"c": {"d"},
		"e": {"e"},
		"f": {"g"},
		"g": {"h"},
		"h": {"f"},
	}, "h", "g", "f", "e", "d", "c", "b", "a"))

	got := g.Cycles()
	want := [][]string{{"a", "b"}, {"e"}, {"f", "g", "h"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCycles_FlagsNodesReachedThroughCrossEdges(t *testing.T) {
	// a -> b -> a closes first; c sits on a -> c -> b -> a and must be flagged too.
	g := BuildGraph(chain(map[string][]string{
		"a": {"b", "c"},
		"b": {"a"},
		"c": {"b"},
	}, "a", "b", "c"))

	got := g.Cycles()
	want := [][]string{{"a", "b", "c"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCycles_LargeChainAndRing(t *testing.T) {
	const n = 20000
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%05d", i)
	}

	edges := make(map[string][]string, n)
	for i := 0; i < n-1; i++ {
		edges[ids[i]] = []string{ids[i+1]}
	}

	g := BuildGraph(chain(edges, ids...))
	if got := g.Cycles(); len(got) != 0 {
		t.Fatalf("expected no cycles in a chain, got %d groups", len(got))
	}

	edges[ids[n-1]] = []string{ids[0]}
	g = BuildGraph(chain(edges, ids...))
	got := g.Cycles()
	if len(got) != 1 {
		t.Fatalf("expected one cycle group, got %d", len(got))
	}
	if len(got[0]) != n {
		t.Errorf("expected all %d tasks on the ring, got %d", n, len(got[0]))
	}
}

func TestBuildGraph_DanglingAndDuplicateEdges(t *testing.T) {
	g := BuildGraph(chain(map[string][]string{
		"a": {"b", "b", "zz", "c"},
		"c": {"missing"},
	}, "a", "b", "c"))

	if n := g.DependentCount("a"); n != 2 {
		t.Errorf("expected 2 dependents for a, got %d", n)
	}
	if deps := g.Dependents("a"); !reflect.DeepEqual(deps, []string{"b", "c"}) {
		t.Errorf("expected dependents [b c], got %v", deps)
	}

	want := []models.Edge{{From: "a", To: "zz"}, {From: "c", To: "missing"}}
	if !reflect.DeepEqual(g.Dangling, want) {
		t.Errorf("expected dangling %v, got %v", want, g.Dangling)
	}
	if g.Len() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Len())
	}
	if g.Dependents("nope") != nil {
		t.Error("expected nil dependents for unknown task")
	}
}

func TestCyclePath_FollowsEdges(t *testing.T) {
	tests := []struct {
		name  string
		edges map[string][]string
		ids   []string
		want  [][]string
	}{
		{
			name:  "three node ring against sorted order",
			edges: map[string][]string{"a": {"c"}, "c": {"b"}, "b": {"a"}},
			ids:   []string{"a", "b", "c"},
			want:  [][]string{{"a", "c", "b", "a"}},
		},
		{
			name:  "self loop",
			edges: map[string][]string{"a": {"a"}},
			ids:   []string{"a"},
			want:  [][]string{{"a", "a"}},
		},
		{
			name:  "two cycles sharing a node",
			edges: map[string][]string{"a": {"b", "c"}, "b": {"a"}, "c": {"a"}},
			ids:   []string{"a", "b", "c"},
			want:  [][]string{{"a", "b", "a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := BuildGraph(chain(tt.edges, tt.ids...))
			var got [][]string
			for _, group := range g.Cycles() {
				got = append(got, g.CyclePath(group))
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCyclePath_NotACycle(t *testing.T) {
	g := BuildGraph(chain(map[string][]string{"a": {"b"}}, "a", "b"))
	if p := g.CyclePath([]string{"a", "b"}); p != nil {
		t.Errorf("expected nil path, got %v", p)
	}
	if p := g.CyclePath([]string{"zz"}); p != nil {
		t.Errorf("expected nil path for unknown task, got %v", p)
	}
	if p := g.CyclePath(nil); p != nil {
		t.Errorf("expected nil path for empty group, got %v", p)
	}
}

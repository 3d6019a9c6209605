package priority

import (
	"sort"

	"github.com/fitz/triage/internal/models"
)

// DependencyGraph is the "blocks" relation of one task collection, indexed by
// task ID. It is rebuilt for every scoring pass.
type DependencyGraph struct {
	ids   []string       // sorted task IDs
	index map[string]int // task ID -> position in ids
	adj   [][]int        // node -> nodes it blocks, sorted, deduplicated
	self  []bool         // node lists itself in Blocks

	// Dangling holds edges whose target is not in the collection.
	Dangling []models.Edge
}

// BuildGraph indexes tasks by ID and records their blocking edges. Task IDs
// are expected to be unique; later duplicates are ignored.
func BuildGraph(tasks []models.Task) *DependencyGraph {
	g := &DependencyGraph{index: make(map[string]int, len(tasks))}

	for _, t := range tasks {
		if _, ok := g.index[t.ID]; ok {
			continue
		}
		g.index[t.ID] = -1
		g.ids = append(g.ids, t.ID)
	}
	sort.Strings(g.ids)
	for i, id := range g.ids {
		g.index[id] = i
	}

	g.adj = make([][]int, len(g.ids))
	g.self = make([]bool, len(g.ids))
	seen := make(map[[2]int]bool)
	done := make(map[string]bool, len(tasks))

	for _, t := range tasks {
		if done[t.ID] {
			continue
		}
		done[t.ID] = true
		from := g.index[t.ID]
		for _, target := range t.Blocks {
			to, ok := g.index[target]
			if !ok {
				g.Dangling = append(g.Dangling, models.Edge{From: t.ID, To: target})
				continue
			}
			key := [2]int{from, to}
			if seen[key] {
				continue
			}
			seen[key] = true
			if from == to {
				g.self[from] = true
			}
			g.adj[from] = append(g.adj[from], to)
		}
	}

	for i := range g.adj {
		sort.Ints(g.adj[i])
	}
	sort.Slice(g.Dangling, func(i, j int) bool {
		if g.Dangling[i].From != g.Dangling[j].From {
			return g.Dangling[i].From < g.Dangling[j].From
		}
		return g.Dangling[i].To < g.Dangling[j].To
	})

	return g
}

// Len returns the number of tasks in the graph.
func (g *DependencyGraph) Len() int {
	return len(g.ids)
}

// Dependents returns the IDs of the tasks that wait on id, excluding id itself.
func (g *DependencyGraph) Dependents(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	var out []string
	for _, j := range g.adj[i] {
		if j != i {
			out = append(out, g.ids[j])
		}
	}
	return out
}

// DependentCount returns len(Dependents(id)) without allocating.
func (g *DependencyGraph) DependentCount(id string) int {
	i, ok := g.index[id]
	if !ok {
		return 0
	}
	n := len(g.adj[i])
	if g.self[i] {
		n--
	}
	return n
}

// Cycles returns every group of tasks that lie on a directed cycle: strongly
// connected components with more than one task, plus tasks that block
// themselves. Each group is sorted and groups are ordered by their first ID.
//
// The traversal is Tarjan's algorithm driven by an explicit stack, so its
// depth does not depend on the goroutine stack.
func (g *DependencyGraph) Cycles() [][]string {
	n := len(g.ids)
	const unvisited = -1

	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}

	type frame struct {
		node, next int
	}

	var (
		counter int
		stack   []int
		call    []frame
		groups  [][]string
	)

	visit := func(v int) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		call = append(call, frame{node: v})
	}

	for root := 0; root < n; root++ {
		if index[root] != unvisited {
			continue
		}
		visit(root)

		for len(call) > 0 {
			top := &call[len(call)-1]
			v := top.node

			if top.next < len(g.adj[v]) {
				w := g.adj[v][top.next]
				top.next++
				if index[w] == unvisited {
					visit(w)
				} else if onStack[w] && index[w] < low[v] {
					low[v] = index[w]
				}
				continue
			}

			if low[v] == index[v] {
				var members []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					members = append(members, w)
					if w == v {
						break
					}
				}
				if len(members) > 1 || g.self[v] {
					group := make([]string, 0, len(members))
					for _, m := range members {
						group = append(group, g.ids[m])
					}
					sort.Strings(group)
					groups = append(groups, group)
				}
			}

			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := call[len(call)-1].node
				if low[v] < low[parent] {
					low[parent] = low[v]
				}
			}
		}
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

// CyclePath returns a closed path of real edges through group, a group from
// Cycles: it starts and ends at group[0] and follows only edges between group
// members, e.g. [a c b a] for a→c→b→a. It is the shortest such path, so in a
// component with several cycles some members may not appear on it. It
// returns nil when group is not a cycle of this graph.
func (g *DependencyGraph) CyclePath(group []string) []string {
	if len(group) == 0 {
		return nil
	}
	start, ok := g.index[group[0]]
	if !ok {
		return nil
	}
	if g.self[start] {
		return []string{group[0], group[0]}
	}

	member := make(map[int]bool, len(group))
	for _, id := range group {
		if i, ok := g.index[id]; ok {
			member[i] = true
		}
	}

	// Breadth-first search from start back to start inside the group.
	prev := map[int]int{start: -1}
	queue := []int{start}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range g.adj[v] {
			if !member[w] {
				continue
			}
			if w == start {
				path := []string{g.ids[start]}
				for u := v; u != start; u = prev[u] {
					path = append(path, g.ids[u])
				}
				path = append(path, g.ids[start])
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			if _, seen := prev[w]; !seen {
				prev[w] = v
				queue = append(queue, w)
			}
		}
	}
	return nil
}

package engine

import (
	"fmt"
	"sort"

	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/validation"
)

// NodeID identifies a graph vertex.
type NodeID string

// Node binds a pipe to named upstream inputs and configuration. An
// input slot bound to the node's own id is the explicit self-reference
// form: it resolves to the block the node produced on its previous run
// and contributes no dependency edge.
type Node struct {
	ID     NodeID            `json:"id"`
	Pipe   string            `json:"pipe"`
	Inputs map[string]NodeID `json:"inputs,omitempty"`
	Config map[string]any    `json:"config,omitempty"`
}

// graphNode is the stored form: the declared node plus wiring the graph
// derives itself.
type graphNode struct {
	Node
	// autoInput wires a chain-internal node to its predecessor. The
	// binding targets the pipe's first declared data slot, which the
	// graph cannot name without knowing the pipe.
	autoInput NodeID
	// seq is the insertion index, used for deterministic ordering.
	seq int
}

// expansion is the cached flattening of one composite chain node.
type expansion struct {
	entry    NodeID
	exit     NodeID
	internal []NodeID
}

// Graph holds nodes and the upstream edges derived from their input
// bindings. Composite chain nodes are expanded at build time; the
// expansion is cached in the graph and reused by every Produce call.
type Graph struct {
	nodes  map[NodeID]*graphNode
	chains map[NodeID]*expansion
	seq    int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:  make(map[NodeID]*graphNode),
		chains: make(map[NodeID]*expansion),
	}
}

// AddNode adds one vertex. Upstream references may name nodes that are
// added later; they are checked when the graph is ordered.
func (g *Graph) AddNode(n Node) error {
	c := validation.New()
	c.Check(n.ID != "", "id", "node id is required")
	c.Check(n.Pipe != "", "pipe", "pipe name is required")
	if err := c.Error(); err != nil {
		return err
	}
	if _, ok := g.nodes[n.ID]; ok {
		return errors.AlreadyExists("node", string(n.ID))
	}
	if _, ok := g.chains[n.ID]; ok {
		return errors.AlreadyExists("node", string(n.ID))
	}

	g.nodes[n.ID] = &graphNode{Node: n, seq: g.seq}
	g.seq++
	return nil
}

// AddChain adds a composite node: an ordered list of pipes expanded
// immediately into internal nodes wired head-to-tail. The given inputs
// bind to the first internal node; external references to the chain id
// resolve to the last one. The expansion is computed here, once, and
// cached.
func (g *Graph) AddChain(id NodeID, inputs map[string]NodeID, pipes ...string) error {
	c := validation.New()
	c.Check(id != "", "id", "chain id is required")
	c.Check(len(pipes) > 0, "pipes", "a chain needs at least one pipe")
	if err := c.Error(); err != nil {
		return err
	}
	if _, ok := g.nodes[id]; ok {
		return errors.AlreadyExists("node", string(id))
	}
	if _, ok := g.chains[id]; ok {
		return errors.AlreadyExists("node", string(id))
	}

	exp := &expansion{}
	for i, pipeName := range pipes {
		nid := NodeID(fmt.Sprintf("%s.%d", id, i))
		gn := &graphNode{
			Node: Node{ID: nid, Pipe: pipeName},
			seq:  g.seq,
		}
		g.seq++
		if i == 0 {
			gn.Inputs = inputs
			exp.entry = nid
		} else {
			gn.autoInput = exp.internal[i-1]
		}
		g.nodes[nid] = gn
		exp.internal = append(exp.internal, nid)
	}
	exp.exit = exp.internal[len(exp.internal)-1]
	g.chains[id] = exp
	return nil
}

// Expansion returns the cached flattening of a chain node.
func (g *Graph) Expansion(id NodeID) (entry, exit NodeID, internal []NodeID, ok bool) {
	exp, ok := g.chains[id]
	if !ok {
		return "", "", nil, false
	}
	return exp.entry, exp.exit, append([]NodeID(nil), exp.internal...), true
}

// resolveRef maps an external reference to a concrete node: chain ids
// resolve to their exit node.
func (g *Graph) resolveRef(id NodeID) (NodeID, error) {
	if exp, ok := g.chains[id]; ok {
		return exp.exit, nil
	}
	if _, ok := g.nodes[id]; ok {
		return id, nil
	}
	return "", errors.NotFound("node", string(id))
}

func (g *Graph) node(id NodeID) (*graphNode, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, errors.NotFound("node", string(id))
	}
	return n, nil
}

// upstreams returns the dependency edges into a node, resolved and
// deduplicated, excluding the self-reference edge.
func (g *Graph) upstreams(n *graphNode) ([]NodeID, error) {
	seen := make(map[NodeID]bool)
	var ups []NodeID
	add := func(ref NodeID) error {
		up, err := g.resolveRef(ref)
		if err != nil {
			return err
		}
		if up == n.ID || seen[up] {
			return nil
		}
		seen[up] = true
		ups = append(ups, up)
		return nil
	}

	for _, ref := range n.Inputs {
		if err := add(ref); err != nil {
			return nil, err
		}
	}
	if n.autoInput != "" {
		if err := add(n.autoInput); err != nil {
			return nil, err
		}
	}
	sort.Slice(ups, func(i, j int) bool { return g.nodes[ups[i]].seq < g.nodes[ups[j]].seq })
	return ups, nil
}

// order runs Kahn's algorithm over the flattened graph and returns a
// deterministic total order: within a dependency level, nodes run in
// insertion order. A cycle (other than explicit self-reference) fails.
func (g *Graph) order() ([]NodeID, error) {
	inDegree := make(map[NodeID]int, len(g.nodes))
	dependents := make(map[NodeID][]NodeID)
	for id, n := range g.nodes {
		ups, err := g.upstreams(n)
		if err != nil {
			return nil, err
		}
		inDegree[id] += len(ups)
		for _, up := range ups {
			dependents[up] = append(dependents[up], id)
		}
	}

	var queue []NodeID
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	var total []NodeID
	for len(queue) > 0 {
		sort.Slice(queue, func(i, j int) bool { return g.nodes[queue[i]].seq < g.nodes[queue[j]].seq })
		total = append(total, queue...)

		var next []NodeID
		for _, id := range queue {
			for _, dep := range dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if len(total) != len(g.nodes) {
		return nil, errors.InvalidInput("graph",
			fmt.Sprintf("cycle detected: ordered %d of %d nodes", len(total), len(g.nodes)))
	}
	return total, nil
}

// upstreamClosure returns the transitive upstream dependencies of id
// plus id itself, in topological order. Recomputed on every call so a
// produce always sees the current graph.
func (g *Graph) upstreamClosure(id NodeID) ([]NodeID, error) {
	target, err := g.resolveRef(id)
	if err != nil {
		return nil, err
	}

	member := map[NodeID]bool{target: true}
	stack := []NodeID{target}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := g.nodes[cur]
		ups, err := g.upstreams(n)
		if err != nil {
			return nil, err
		}
		for _, up := range ups {
			if !member[up] {
				member[up] = true
				stack = append(stack, up)
			}
		}
	}

	total, err := g.order()
	if err != nil {
		return nil, err
	}
	var closure []NodeID
	for _, nid := range total {
		if member[nid] {
			closure = append(closure, nid)
		}
	}
	return closure, nil
}

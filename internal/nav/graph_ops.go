package nav

import (
	"sort"
	"time"
)

// Path returns the shortest chain of internal imports from one module to
// another, both ends included. An unreachable target yields nil.
func (e *Engine) Path(from, to string) ([]string, error) {
	start := time.Now()
	fromID, err := e.ResolveModule(from)
	if err != nil {
		e.observe("path", start, 0, err)
		return nil, err
	}
	toID, err := e.ResolveModule(to)
	if err != nil {
		e.observe("path", start, 0, err)
		return nil, err
	}
	path := e.shortestPath(fromID, toID)
	e.observe("path", start, len(path), nil)
	return path, nil
}

func (e *Engine) shortestPath(fromID, toID string) []string {
	if fromID == toID {
		return []string{fromID}
	}

	queue := []string{fromID}
	visited := map[string]bool{fromID: true}
	parent := map[string]string{}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, edge := range internalTargets(e.g, current) {
			nextID := edge.Target
			if visited[nextID] {
				continue
			}
			visited[nextID] = true
			parent[nextID] = current
			if nextID == toID {
				return ReconstructPath(parent, fromID, toID)
			}
			queue = append(queue, nextID)
		}
	}

	return nil
}

func ReconstructPath(parent map[string]string, fromID, toID string) []string {
	out := []string{toID}
	for current := toID; current != fromID; {
		prev, ok := parent[current]
		if !ok {
			return nil
		}
		out = append(out, prev)
		current = prev
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Trace walks internal imports breadth-first up to depth hops and returns
// every edge crossed, ordered by depth, then source, then target. Modules
// reached again at the same or greater depth are not expanded twice.
func (e *Engine) Trace(id string, depth int) ([]TraceHop, error) {
	start := time.Now()
	startID, err := e.ResolveModule(id)
	if err != nil {
		e.observe("trace", start, 0, err)
		return nil, err
	}
	if depth < 1 {
		depth = 1
	}

	type queueItem struct {
		id    string
		depth int
	}
	queue := []queueItem{{id: startID, depth: 0}}
	seenDepth := map[string]int{startID: 0}
	hops := make([]TraceHop, 0)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.depth >= depth {
			continue
		}

		for _, edge := range internalTargets(e.g, current.id) {
			nextDepth := current.depth + 1
			hops = append(hops, TraceHop{
				Depth:      nextDepth,
				From:       current.id,
				To:         edge.Target,
				Raw:        edge.Raw,
				Confidence: edge.Confidence,
			})
			if previousDepth, exists := seenDepth[edge.Target]; !exists || nextDepth < previousDepth {
				seenDepth[edge.Target] = nextDepth
				queue = append(queue, queueItem{id: edge.Target, depth: nextDepth})
			}
		}
	}

	sort.SliceStable(hops, func(i, j int) bool {
		if hops[i].Depth != hops[j].Depth {
			return hops[i].Depth < hops[j].Depth
		}
		if hops[i].From != hops[j].From {
			return hops[i].From < hops[j].From
		}
		return hops[i].To < hops[j].To
	})

	e.observe("trace", start, len(hops), nil)
	return hops, nil
}

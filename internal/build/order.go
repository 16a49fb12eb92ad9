package build

import (
	"sort"

	"git.home.luguber.info/inful/pagesmith/internal/source"
)

// resolveOrder sorts files so that every file comes after the files it
// includes, using Kahn's algorithm. Ties are broken by enumeration order.
// Files caught in a cycle are appended in enumeration order and returned
// separately.
func resolveOrder(files []*source.File, deps map[string][]string) (ordered []*source.File, cyclic []string) {
	if len(files) == 0 {
		return []*source.File{}, nil
	}

	index := make(map[string]int, len(files))
	for i, f := range files {
		index[f.Path] = i
	}

	// dependency -> dependents, and in-degree per file
	graph := make(map[int][]int, len(files))
	inDegree := make([]int, len(files))
	for i, f := range files {
		seen := make(map[int]bool)
		for _, dep := range deps[f.Path] {
			j, ok := index[dep]
			if !ok || j == i || seen[j] {
				continue
			}
			seen[j] = true
			graph[j] = append(graph[j], i)
			inDegree[i]++
		}
	}

	var queue []int
	for i := range files {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	visited := make([]bool, len(files))
	ordered = make([]*source.File, 0, len(files))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		visited[current] = true
		ordered = append(ordered, files[current])

		for _, next := range graph[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
				sort.Ints(queue)
			}
		}
	}

	if len(ordered) != len(files) {
		for i, f := range files {
			if !visited[i] {
				ordered = append(ordered, f)
				cyclic = append(cyclic, f.Path)
			}
		}
	}
	return ordered, cyclic
}

package extract

import "sort"

// PathSet is a set of appliance fullPaths
type PathSet map[string]struct{}

// NewPathSet creates a set holding paths
func NewPathSet(paths ...string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Add inserts a path
func (s PathSet) Add(path string) {
	s[path] = struct{}{}
}

// Has reports whether path is in the set
func (s PathSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Sorted returns the paths in lexical order
func (s PathSet) Sorted() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

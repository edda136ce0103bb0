package deps

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/justapithecus/stax/types"
)

// Node is one entry in the expanded dependency tree. Shared scripts
// appear once per inclusion site, so duplicates are preserved in the
// tree and deduplicated only in summary counts.
type Node struct {
	// Path is the canonical script path, or the package name for
	// KindPackage nodes.
	Path string
	// Kind is the statement kind that produced this node. The root
	// carries KindDo.
	Kind Kind
	// Line is the 1-based line of the referencing statement, 0 for
	// the root.
	Line int
	// Exists reports whether the script file was found on disk.
	// Always true for package nodes.
	Exists bool
	// Circular marks a node that was re-encountered while still being
	// expanded on the current path. Circular nodes are leaves.
	Circular bool
	// Children are expanded in source order.
	Children []*Node
}

// FlatEntry is one row of the depth-annotated flattened tree.
type FlatEntry struct {
	Node  *Node
	Depth int
}

// Analysis is the result of expanding a script's dependency graph.
type Analysis struct {
	Root *Node
	// UniqueCount counts distinct existing script files, the root
	// included, excluding circular re-encounters.
	UniqueCount int
	// CircularPaths holds one path per detected cycle, each beginning
	// and ending at the revisited script.
	CircularPaths [][]string
	// MissingFiles lists referenced scripts that do not exist,
	// deduplicated.
	MissingFiles []string
	// Packages lists required package names, deduplicated and sorted.
	Packages []string
}

// Analyzer expands dependency trees. Parsed scripts are memoized so a
// script shared by many branches is read once.
type Analyzer struct {
	parsed map[string][]Reference
}

// NewAnalyzer returns an Analyzer with an empty parse cache.
func NewAnalyzer() *Analyzer {
	return &Analyzer{parsed: make(map[string][]Reference)}
}

// Analyze expands the dependency graph rooted at script. The root must
// exist; a missing root is an error rather than a tree with a dead
// root node.
func (a *Analyzer) Analyze(script string) (*Analysis, error) {
	canonical, err := canonicalize(script)
	if err != nil {
		return nil, fmt.Errorf("script not found: %s: %w", script, err)
	}

	onPath := make(map[string]bool)
	stack := []string{}
	analysis := &Analysis{}

	root, err := a.expand(canonical, KindDo, 0, onPath, &stack, analysis)
	if err != nil {
		return nil, err
	}
	analysis.Root = root

	seen := make(map[string]bool)
	pkgs := make(map[string]bool)
	missing := make(map[string]bool)
	walk(root, func(n *Node) {
		switch {
		case n.Kind == KindPackage:
			pkgs[n.Path] = true
		case n.Circular:
		case !n.Exists:
			missing[n.Path] = true
		default:
			seen[n.Path] = true
		}
	})
	analysis.UniqueCount = len(seen)
	analysis.MissingFiles = sortedKeys(missing)
	analysis.Packages = sortedKeys(pkgs)

	return analysis, nil
}

// expand builds the subtree for path. onPath tracks scripts still being
// expanded; a script is added before its children and removed after, so
// re-encountering one means a cycle, while re-encountering a finished
// script is an ordinary shared dependency.
func (a *Analyzer) expand(path string, kind Kind, line int, onPath map[string]bool, stack *[]string, analysis *Analysis) (*Node, error) {
	if onPath[path] {
		analysis.CircularPaths = append(analysis.CircularPaths, cyclePath(*stack, path))
		return &Node{Path: path, Kind: kind, Line: line, Exists: true, Circular: true}, nil
	}

	node := &Node{Path: path, Kind: kind, Line: line, Exists: true}

	refs, err := a.scan(path)
	if err != nil {
		return nil, err
	}

	onPath[path] = true
	*stack = append(*stack, path)

	baseDir := filepath.Dir(path)
	for _, ref := range refs {
		if ref.Kind == KindPackage {
			node.Children = append(node.Children, &Node{
				Path:   ref.Target,
				Kind:   KindPackage,
				Line:   ref.Line,
				Exists: true,
			})
			continue
		}

		childPath, cerr := canonicalize(ref.Resolve(baseDir))
		if cerr != nil {
			node.Children = append(node.Children, &Node{
				Path: ref.Resolve(baseDir),
				Kind: ref.Kind,
				Line: ref.Line,
			})
			continue
		}

		child, cerr := a.expand(childPath, ref.Kind, ref.Line, onPath, stack, analysis)
		if cerr != nil {
			return nil, cerr
		}
		node.Children = append(node.Children, child)
	}

	*stack = (*stack)[:len(*stack)-1]
	delete(onPath, path)

	return node, nil
}

func (a *Analyzer) scan(path string) ([]Reference, error) {
	if refs, ok := a.parsed[path]; ok {
		return refs, nil
	}
	refs, err := ScanFile(path)
	if err != nil {
		return nil, err
	}
	a.parsed[path] = refs
	return refs, nil
}

// cyclePath slices the expansion stack from the first occurrence of the
// revisited script and closes the loop with it.
func cyclePath(stack []string, revisited string) []string {
	start := 0
	for i, p := range stack {
		if p == revisited {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	path = append(path, stack[start:]...)
	path = append(path, revisited)
	return path
}

func canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

func walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		walk(c, fn)
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flatten returns the tree in depth-first order with depth annotations,
// deduplicated by path keeping the first occurrence.
func (a *Analysis) Flatten() []FlatEntry {
	var entries []FlatEntry
	seen := make(map[string]bool)
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if !seen[n.Path] {
			seen[n.Path] = true
			entries = append(entries, FlatEntry{Node: n, Depth: depth})
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(a.Root, 0)
	return entries
}

// Report converts the analysis into the serializable summary form.
func (a *Analysis) Report() types.DepsReport {
	return types.DepsReport{
		Root:          a.Root.Path,
		UniqueCount:   a.UniqueCount,
		CircularCount: len(a.CircularPaths),
		MissingCount:  len(a.MissingFiles),
		CircularPaths: a.CircularPaths,
		MissingFiles:  a.MissingFiles,
		Packages:      a.Packages,
	}
}

// FormatTree renders the tree with box-drawing connectors, one node per
// line, relative to baseDir where possible.
func (a *Analysis) FormatTree(baseDir string) string {
	var b strings.Builder
	b.WriteString(displayPath(a.Root.Path, baseDir))
	b.WriteString("\n")
	formatChildren(&b, a.Root, "", baseDir)
	return b.String()
}

func formatChildren(b *strings.Builder, n *Node, prefix string, baseDir string) {
	for i, child := range n.Children {
		last := i == len(n.Children)-1
		connector, childPrefix := "├── ", prefix+"│   "
		if last {
			connector, childPrefix = "└── ", prefix+"    "
		}

		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(displayPath(child.Path, baseDir))
		switch {
		case child.Kind == KindPackage:
			b.WriteString(" (package)")
		case child.Circular:
			b.WriteString(" (circular)")
		case !child.Exists:
			b.WriteString(" (missing)")
		}
		b.WriteString("\n")

		formatChildren(b, child, childPrefix, baseDir)
	}
}

func displayPath(path, baseDir string) string {
	if baseDir == "" {
		return path
	}
	if rel, err := filepath.Rel(baseDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

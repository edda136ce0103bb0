package render

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/stax/deps"
)

// Tree styles, keyed by what the node is rather than where it sits.
var (
	rootStyle     = lipgloss.NewStyle().Bold(true)
	scriptStyle   = lipgloss.NewStyle()
	packageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")) // Blue
	missingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")) // Red
	circularStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")) // Amber
	branchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")) // Gray
)

// RenderDepsTree prints the dependency tree with box-drawing branches
// and per-kind coloring. With --no-color the same layout is printed
// unstyled.
func (r *Renderer) RenderDepsTree(root *deps.Node) error {
	r.printNode(root, "", true, true)
	return nil
}

func (r *Renderer) printNode(node *deps.Node, prefix string, isLast, isRoot bool) {
	label := filepath.Base(node.Path)
	style := scriptStyle

	switch {
	case isRoot:
		style = rootStyle
	case node.Kind == deps.KindPackage:
		style = packageStyle
		label += " (package)"
	case node.Circular:
		style = circularStyle
		label += " (circular)"
	case !node.Exists:
		style = missingStyle
		label += " (missing)"
	}

	if isRoot {
		fmt.Fprintln(r.out, r.styled(style, label))
	} else {
		branch := "├── "
		if isLast {
			branch = "└── "
		}
		fmt.Fprintln(r.out, r.styled(branchStyle, prefix+branch)+r.styled(style, label))
	}

	childPrefix := prefix
	if !isRoot {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}
	for i, child := range node.Children {
		r.printNode(child, childPrefix, i == len(node.Children)-1, false)
	}
}

func (r *Renderer) styled(style lipgloss.Style, s string) string {
	if r.noColor {
		return s
	}
	return style.Render(s)
}

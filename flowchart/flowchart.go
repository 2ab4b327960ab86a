// Package flowchart renders a call record as a directed graph of callers and
// the configured functions they invoked.
package flowchart

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/emicklei/dot"
)

// DefaultOutput is the file Render writes when given an empty path.
const DefaultOutput = "function_flowchart.png"

// Title is the graph label.
const Title = "Function Call Flowchart"

var (
	// ErrGraphvizNotFound is returned when an image format is requested and
	// the Graphviz dot binary is not on PATH.
	ErrGraphvizNotFound = errors.New("flowchart: graphviz dot binary not found")

	// ErrUnsupportedFormat is returned for output extensions Render does not know.
	ErrUnsupportedFormat = errors.New("flowchart: unsupported output format")
)

// Build creates the graph for calls. Each caller and callee becomes a node and
// each distinct caller to callee pair one edge; pairs seen more than once are
// labelled with their count. Output is deterministic.
func Build(calls map[string][]string) *dot.Graph {
	g := dot.NewGraph(dot.Directed)
	g.Attr("label", Title)
	g.Attr("labelloc", "t")

	node := func(name string) dot.Node {
		return g.Node(name).
			Attr("style", "filled").
			Attr("fillcolor", "lightblue").
			Attr("fontname", "Helvetica-Bold")
	}

	callers := make([]string, 0, len(calls))
	for caller := range calls {
		callers = append(callers, caller)
	}
	sort.Strings(callers)

	for _, caller := range callers {
		from := node(caller)

		counts := make(map[string]int)
		for _, callee := range calls[caller] {
			counts[callee]++
		}
		callees := make([]string, 0, len(counts))
		for callee := range counts {
			callees = append(callees, callee)
		}
		sort.Strings(callees)

		for _, callee := range callees {
			e := g.Edge(from, node(callee))
			if n := counts[callee]; n > 1 {
				e.Attr("label", strconv.Itoa(n))
			}
		}
	}
	return g
}

// Render writes the graph for calls to path. ".dot" and ".gv" produce DOT
// source; ".png", ".svg" and ".pdf" are rendered with the Graphviz dot binary.
func Render(calls map[string][]string, path string) error {
	if path == "" {
		path = DefaultOutput
	}
	src := Build(calls).String()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "dot", "gv":
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			return fmt.Errorf("flowchart: write %s: %w", path, err)
		}
		return nil
	case "png", "svg", "pdf":
		return rasterize(src, ext, path)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

var lookPath = exec.LookPath

func rasterize(src, format, path string) error {
	bin, err := lookPath("dot")
	if err != nil {
		return ErrGraphvizNotFound
	}
	var stderr bytes.Buffer
	cmd := exec.Command(bin, "-T"+format, "-o", path)
	cmd.Stdin = strings.NewReader(src)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("flowchart: render %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

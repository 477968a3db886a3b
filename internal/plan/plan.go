// Package plan renders the files a chain will produce as a directed graph.
package plan

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"gopkg.in/go-playground/colors.v1"

	"github.com/specialistvlad/chainrun/internal/chaindef"
	"github.com/specialistvlad/chainrun/internal/executor"
)

const maxRGB = 240

// Build returns the graph input -> stage 0 output -> ... -> stage N-1 output.
// Vertices are file paths; each edge is labelled with the stage that produces
// its target.
func Build(def *chaindef.Definition, inputPath, outDir, ext string) (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.Acyclic(), graph.PreventCycles())

	err := g.AddVertex(inputPath,
		graph.VertexAttribute("label", filepath.Base(inputPath)),
		graph.VertexAttribute("shape", "box"),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to add input vertex: %w", err)
	}

	prev := inputPath
	for i, d := range def.Stages {
		path := executor.OutputPath(outDir, def.Name, i, d.ID, ext)
		fill, err := gradient(i, len(def.Stages))
		if err != nil {
			return nil, err
		}
		err = g.AddVertex(path,
			graph.VertexAttribute("label", filepath.Base(path)),
			graph.VertexAttribute("style", "filled"),
			graph.VertexAttribute("fillcolor", fill),
		)
		if err != nil {
			return nil, fmt.Errorf("unable to add vertex for stage %d: %w", i, err)
		}
		err = g.AddEdge(prev, path, graph.EdgeAttribute("label", fmt.Sprintf("%d: %s", i, d.ID)))
		if err != nil {
			return nil, fmt.Errorf("unable to add edge from %s to %s: %w", prev, path, err)
		}
		prev = path
	}
	return g, nil
}

// gradient returns the fill colour of stage i of n, from blue for the first
// stage to red for the last.
func gradient(i, n int) (string, error) {
	fraction := 1.0
	if n > 1 {
		fraction = float64(i) / float64(n-1)
	}
	red := maxRGB * fraction
	blue := maxRGB - red

	c, err := colors.RGB(uint8(red), 0, uint8(blue))
	if err != nil {
		return "", fmt.Errorf("unable to get colour: %w", err)
	}
	return c.ToHEX().String(), nil
}

// Files returns the vertices of g in execution order.
func Files(g graph.Graph[string, string]) ([]string, error) {
	order, err := graph.TopologicalSort(g)
	if err != nil {
		return nil, fmt.Errorf("unable to order plan: %w", err)
	}
	return order, nil
}

// WriteDOT renders g in the DOT language.
func WriteDOT(w io.Writer, g graph.Graph[string, string]) error {
	if err := draw.DOT(g, w, draw.GraphAttribute("rankdir", "LR")); err != nil {
		return fmt.Errorf("unable to render plan: %w", err)
	}
	return nil
}

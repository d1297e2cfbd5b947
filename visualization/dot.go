package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/anggasct/routefsm"
)

// DOTGenerator generates Graphviz DOT format representations of state machines
type DOTGenerator[S, E comparable] struct {
	machine *routefsm.Machine[S, E]
	options DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowGuardConditions bool
	ShowPostBlocks      bool
	HighlightCurrent    bool
	// MergeEdges draws one edge per state pair with every event in its label
	MergeEdges      bool
	RankDirection   string // "TB", "LR", "BT", "RL"
	NodeShape       string
	TransitionStyle string
	SelfLoopStyle   string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowGuardConditions: true,
		ShowPostBlocks:      true,
		HighlightCurrent:    false,
		MergeEdges:          false,
		RankDirection:       "TB",
		NodeShape:           "box",
		TransitionStyle:     "solid",
		SelfLoopStyle:       "dashed",
	}
}

// NewDOTGenerator creates a new DOT generator for the given machine
func NewDOTGenerator[S, E comparable](machine *routefsm.Machine[S, E], options ...DOTOptions) *DOTGenerator[S, E] {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator[S, E]{
		machine: machine,
		options: opts,
	}
}

// Generate creates a DOT representation of the state machine
func (g *DOTGenerator[S, E]) Generate() (string, error) {
	if g.machine == nil {
		return "", fmt.Errorf("no machine to visualize")
	}

	var dot strings.Builder

	// DOT header
	dot.WriteString(fmt.Sprintf("digraph %s {\n", quote(g.machine.Name())))
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString(fmt.Sprintf("  node [shape=%s];\n", g.options.NodeShape))
	dot.WriteString("  edge [fontsize=10];\n\n")

	g.generateStates(&dot)
	dot.WriteString("\n")
	g.generateTransitions(&dot)

	// DOT footer
	dot.WriteString("}\n")

	return dot.String(), nil
}

// generateStates generates DOT nodes for all states in enumeration order
func (g *DOTGenerator[S, E]) generateStates(dot *strings.Builder) {
	initialState := g.machine.InitialState()
	currentState := g.machine.CurrentState()

	dot.WriteString("  // States\n")

	for _, state := range g.machine.States() {
		fillColor := "lightblue"
		label := fmt.Sprint(state)
		penWidth := 1

		if state == initialState {
			fillColor = "lightgreen"
			label += "\\n(initial)"
		}

		if g.options.HighlightCurrent && g.machine.IsStarted() && state == currentState {
			fillColor = "gold"
			penWidth = 3
		}

		dot.WriteString(fmt.Sprintf("  %s [style=\"filled\" fillcolor=%s penwidth=%d label=%s];\n",
			quote(state), fillColor, penWidth, quote(label)))
	}
}

type edge[S comparable] struct {
	transition routefsm.Transition[S]
	labels     []string
}

// generateTransitions generates DOT edges for all routes in registration order
func (g *DOTGenerator[S, E]) generateTransitions(dot *strings.Builder) {
	dot.WriteString("  // Transitions\n")

	var edges []*edge[S]
	merged := make(map[routefsm.Transition[S]]*edge[S])

	for _, entry := range g.machine.Routes() {
		transition := entry.Route.Transition()
		label := g.routeLabel(entry)

		if g.options.MergeEdges {
			if existing, ok := merged[transition]; ok {
				existing.labels = append(existing.labels, label)
				continue
			}
		}

		e := &edge[S]{transition: transition, labels: []string{label}}
		edges = append(edges, e)
		if g.options.MergeEdges {
			merged[transition] = e
		}
	}

	for _, e := range edges {
		style := g.options.TransitionStyle
		if e.transition.IsSelfLoop() {
			style = g.options.SelfLoopStyle
		}

		dot.WriteString(fmt.Sprintf("  %s -> %s [label=%s style=%s];\n",
			quote(e.transition.From), quote(e.transition.To),
			quote(strings.Join(e.labels, "\\n")), style))
	}
}

// routeLabel renders the event and optional guard and post block markers
func (g *DOTGenerator[S, E]) routeLabel(entry routefsm.RouteEntry[S, E]) string {
	label := fmt.Sprint(entry.Event)

	if g.options.ShowGuardConditions && entry.Route.HasConditions() {
		label += fmt.Sprintf(" [%d guard", entry.Route.ConditionCount())
		if entry.Route.ConditionCount() > 1 {
			label += "s"
		}
		label += "]"
	}

	if g.options.ShowPostBlocks && entry.Route.HasPostBlock() {
		label += " / post"
	}

	return label
}

// quote renders a value as a DOT string literal
func quote(value any) string {
	s := fmt.Sprint(value)
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return "\"" + s + "\""
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator[S, E]) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// GenerateSVG renders the DOT representation through the Graphviz dot command
func (g *DOTGenerator[S, E]) GenerateSVG() (string, error) {
	dotContent, err := g.Generate()
	if err != nil {
		return "", err
	}

	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(dotContent)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}

	return out.String(), nil
}

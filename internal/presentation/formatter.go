package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/david-sim0niants/audio-eq/internal/graph"
)

// Formatter handles output formatting for the shell and the CLI commands.
type Formatter struct {
	writer io.Writer
	styles styles
}

// NewFormatter creates a new formatter writing to writer.
func NewFormatter(writer io.Writer) *Formatter {
	return NewFormatterWithRenderer(writer, lipgloss.NewRenderer(writer))
}

// NewFormatterWithRenderer creates a formatter writing to writer whose colors
// follow r. Used when output is buffered before it reaches a terminal.
func NewFormatterWithRenderer(writer io.Writer, r *lipgloss.Renderer) *Formatter {
	return &Formatter{
		writer: writer,
		styles: newStyles(r),
	}
}

// FormatJSON writes v as indented JSON.
func (f *Formatter) FormatJSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatGraph writes a full dump of the registry as JSON.
func (f *Formatter) FormatGraph(r *graph.Registry) error {
	return f.FormatJSON(FromRegistry(r))
}

// Nodes writes every node followed by its input and output ports:
//
//	42: name: description
//	Input ports:
//		43: in_FL
//	Output ports:
//		44: out_FL
func (f *Formatter) Nodes(nodes []graph.Node) {
	for _, n := range nodes {
		f.line(f.styles.header.Render(fmt.Sprintf("%d: %s: %s", n.ID, n.Name, n.Description)))
		f.portList("Input ports:", n.Inputs)
		f.portList("Output ports:", n.Outputs)
	}
}

func (f *Formatter) portList(label string, ports []graph.Port) {
	f.line(f.styles.label.Render(label))
	for _, p := range ports {
		f.line("\t" + fmt.Sprintf("%d: %s", p.ID, p.Name))
	}
}

// Node writes a single node in the same layout as Nodes.
func (f *Formatter) Node(n graph.Node) {
	f.Nodes([]graph.Node{n})
}

// Port writes a port, its owner and its peers.
func (f *Formatter) Port(p graph.Port) {
	f.line(f.styles.header.Render(fmt.Sprintf("%d: %s (%s)", p.ID, p.Name, p.Direction)))
	f.line(f.styles.label.Render("Owner: ") + f.ref(p.Owner))
	peers := make([]string, len(p.Peers))
	for i, r := range p.Peers {
		peers[i] = f.ref(r)
	}
	if len(peers) == 0 {
		f.line(f.styles.label.Render("Linked to: ") + f.styles.muted.Render("none"))
		return
	}
	f.line(f.styles.label.Render("Linked to: ") + strings.Join(peers, ", "))
}

// Link writes a link as "output -> input".
func (f *Formatter) Link(l graph.Link) {
	f.line(f.styles.header.Render(fmt.Sprintf("Link %d", l.ID)) + ": " + f.ref(l.Output) + " -> " + f.ref(l.Input))
}

// Links writes each link on its own line.
func (f *Formatter) Links(links []graph.Link) {
	for _, l := range links {
		f.Link(l)
	}
}

// Stats writes registry counters, one per line.
func (f *Formatter) Stats(s graph.Stats) {
	rows := []struct {
		label string
		value any
	}{
		{"Nodes", s.Nodes},
		{"Ports", s.Ports},
		{"Links", s.Links},
		{"Nodeless ports", s.NodelessPorts},
		{"Portless links", s.PortlessLinks},
		{"Dropped events", s.DroppedEvents},
	}
	for _, row := range rows {
		f.line(f.styles.label.Render(row.label+":") + " " + fmt.Sprint(row.value))
	}
}

// Success writes an informational message.
func (f *Formatter) Success(format string, args ...any) {
	f.line(f.styles.ok.Render(fmt.Sprintf(format, args...)))
}

// Error writes "Error: <message>" in the error style.
func (f *Formatter) Error(format string, args ...any) {
	f.line(f.styles.err.Render("Error: " + fmt.Sprintf(format, args...)))
}

// Plain writes an unstyled line.
func (f *Formatter) Plain(format string, args ...any) {
	f.line(fmt.Sprintf(format, args...))
}

// ref renders a reference; targets that are not live are marked pending.
func (f *Formatter) ref(r graph.Ref) string {
	if r.Resolved {
		return r.ID.String()
	}
	return f.styles.pending.Render(r.ID.String() + " (pending)")
}

func (f *Formatter) line(s string) {
	_, _ = io.WriteString(f.writer, s+"\n")
}

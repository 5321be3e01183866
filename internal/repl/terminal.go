package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/david-sim0niants/audio-eq/internal/log"
)

// IsTerminal reports whether in is a terminal that RunTerminal can drive.
func IsTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Model is the inline terminal front end of a Shell. The prompt stays on the
// last line; every submitted command is echoed with its output above it.
type Model struct {
	ctx    context.Context
	shell  *Shell
	output *bytes.Buffer
	input  textinput.Model

	history []string
	browse  int    // index into history while browsing, len(history) otherwise
	draft   string // the line being typed before browsing started
	done    bool
}

// NewModel creates a front end for a shell configured by cfg. r decides the
// colors of command output.
func NewModel(ctx context.Context, cfg Config, r *lipgloss.Renderer) Model {
	output := &bytes.Buffer{}
	shell := newShell(cfg, output, output, r)

	ti := textinput.New()
	ti.Prompt = shell.cfg.Prompt
	ti.Placeholder = "help"
	ti.Focus()

	return Model{
		ctx:    ctx,
		shell:  shell,
		output: output,
		input:  ti,
	}
}

// History returns the submitted lines, oldest first.
func (m Model) History() []string {
	return append([]string(nil), m.history...)
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC:
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlD:
			if m.input.Value() == "" {
				m.done = true
				return m, tea.Quit
			}

		case tea.KeyEnter:
			return m.submit()

		case tea.KeyUp:
			m = m.recall(-1)
			return m, nil

		case tea.KeyDown:
			m = m.recall(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	m.input.Reset()
	if trimmed := strings.TrimSpace(line); trimmed != "" {
		if n := len(m.history); n == 0 || m.history[n-1] != trimmed {
			m.history = append(m.history, trimmed)
		}
	}
	m.browse = len(m.history)
	m.draft = ""

	m.output.Reset()
	exit := m.shell.Execute(m.ctx, line)
	transcript := m.shell.cfg.Prompt + line
	if out := strings.TrimRight(m.output.String(), "\n"); out != "" {
		transcript += "\n" + out
	}

	if exit {
		m.done = true
		return m, tea.Sequence(tea.Println(transcript), tea.Quit)
	}
	return m, tea.Println(transcript)
}

// recall moves through history by delta, keeping the unsent line as a draft.
func (m Model) recall(delta int) Model {
	next := m.browse + delta
	if next < 0 || next > len(m.history) {
		return m
	}
	if m.browse == len(m.history) {
		m.draft = m.input.Value()
	}
	m.browse = next
	if next == len(m.history) {
		m.input.SetValue(m.draft)
	} else {
		m.input.SetValue(m.history[next])
	}
	m.input.CursorEnd()
	return m
}

// View renders the prompt line.
func (m Model) View() string {
	if m.done {
		return ""
	}
	return m.input.View()
}

// RunTerminal runs the shell inline in the terminal behind in and out until
// "exit", ctrl+c, ctrl+d on an empty line, or ctx is cancelled.
func RunTerminal(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	m := NewModel(ctx, cfg, lipgloss.NewRenderer(out))
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.ErrorErr(log.CatCLI, "terminal shell failed", err)
		return err
	}
	return nil
}

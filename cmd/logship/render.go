package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"

	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/pkg/stream"
)

var (
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	serviceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dataStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

	levelStyles = map[domain.Level]lipgloss.Style{
		domain.LevelDebug:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		domain.LevelInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		domain.LevelWarn:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		domain.LevelError:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		domain.LevelCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")).Bold(true),
	}
)

// renderer prints stream events one per line.
type renderer struct {
	mu  sync.Mutex
	out io.Writer
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

// Render writes ev as "time LEVEL [service] message {data}".
func (r *renderer) Render(ev stream.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, formatEvent(ev))
}

func formatEvent(ev stream.Event) string {
	level := strings.ToUpper(string(ev.Level))
	if style, ok := levelStyles[ev.Level]; ok {
		level = style.Render(fmt.Sprintf("%-8s", level))
	}

	var b strings.Builder
	b.WriteString(timeStyle.Render(ev.Timestamp))
	b.WriteByte(' ')
	b.WriteString(level)
	b.WriteByte(' ')
	b.WriteString(serviceStyle.Render("[" + ev.Service + "]"))
	b.WriteByte(' ')
	b.WriteString(ev.Message)

	if len(ev.Data) > 0 {
		keys := make([]string, 0, len(ev.Data))
		for k := range ev.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			v, err := json.Marshal(ev.Data[k])
			if err != nil {
				v = []byte(fmt.Sprint(ev.Data[k]))
			}
			parts = append(parts, k+"="+string(v))
		}
		b.WriteByte(' ')
		b.WriteString(dataStyle.Render(strings.Join(parts, " ")))
	}
	return b.String()
}

// terminalNotifier prints connectivity notifications to the terminal.
type terminalNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func newTerminalNotifier(out io.Writer) *terminalNotifier {
	return &terminalNotifier{out: out}
}

func (n *terminalNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, successStyle.Render("✓ "+msg))
}

func (n *terminalNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, errorStyle.Render("✗ "+msg))
}

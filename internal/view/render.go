package view

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"mrrelease/internal/release"
)

// TimeLayout is used for every timestamp shown to the user, in local time.
const TimeLayout = "2006-01-02 15:04:05"

type styles struct {
	border   lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
	pipeline lipgloss.Style
	label    lipgloss.Style
	folder   lipgloss.Style
	created  lipgloss.Style
	deployed lipgloss.Style
	target   lipgloss.Style
	url      lipgloss.Style
	caption  lipgloss.Style
	ok       lipgloss.Style
	partial  lipgloss.Style
	failed   lipgloss.Style
	running  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		border:   r.NewStyle().Foreground(lipgloss.Color("8")),
		header:   r.NewStyle().Bold(true),
		cell:     r.NewStyle().Padding(0, 1),
		pipeline: r.NewStyle().Foreground(lipgloss.Color("12")),
		label:    r.NewStyle().Foreground(lipgloss.Color("15")),
		folder:   r.NewStyle().Foreground(lipgloss.Color("12")),
		created:  r.NewStyle().Foreground(lipgloss.Color("11")),
		deployed: r.NewStyle().Foreground(lipgloss.Color("10")),
		target:   r.NewStyle().Foreground(lipgloss.Color("10")),
		url:      r.NewStyle().Foreground(lipgloss.Color("8")),
		caption:  r.NewStyle().Faint(true),
		ok:       r.NewStyle().Foreground(lipgloss.Color("10")),
		partial:  r.NewStyle().Foreground(lipgloss.Color("11")),
		failed:   r.NewStyle().Foreground(lipgloss.Color("9")),
		running:  r.NewStyle().Foreground(lipgloss.Color("12")),
	}
}

// Renderer writes deployed releases to a terminal or any other writer.
// Colors are only emitted when the writer is a terminal that supports them.
type Renderer struct {
	w      io.Writer
	styles styles

	// Highlight marks the environments matching the queried environment.
	Highlight release.EnvironmentMatcher
}

// NewRenderer returns a renderer writing to w.
func NewRenderer(w io.Writer, highlight release.EnvironmentMatcher) *Renderer {
	return &Renderer{
		w:         w,
		styles:    newStyles(lipgloss.NewRenderer(w)),
		Highlight: highlight,
	}
}

// StatusLabel returns the short label shown for a deployment status.
func StatusLabel(status release.DeploymentStatus) string {
	switch status {
	case release.DeploymentSucceeded:
		return "OK"
	case release.DeploymentPartiallySucceeded:
		return "PARTIAL"
	case release.DeploymentFailed:
		return "FAILED"
	case release.DeploymentInProgress:
		return "IN_PROGRESS"
	default:
		return strings.ToUpper(status.String())
	}
}

// FormatTime formats t in local time. A nil time renders as an empty string.
func FormatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(TimeLayout)
}

func (r *Renderer) status(status release.DeploymentStatus) string {
	label := StatusLabel(status)
	switch status {
	case release.DeploymentSucceeded:
		return r.styles.ok.Render(label)
	case release.DeploymentPartiallySucceeded:
		return r.styles.partial.Render(label)
	case release.DeploymentFailed:
		return r.styles.failed.Render(label)
	case release.DeploymentInProgress:
		return r.styles.running.Render(label)
	default:
		return label
	}
}

func (r *Renderer) environments(names []string) string {
	parts := make([]string, len(names))
	for i, name := range names {
		if r.Highlight != nil && r.Highlight(name) {
			parts[i] = r.styles.target.Render(name)
		} else {
			parts[i] = name
		}
	}
	return strings.Join(parts, ", ")
}

// Header prints the queried folder and environment.
func (r *Renderer) Header(folder, environment string) {
	fmt.Fprintf(r.w, "Directory:   %s\n", r.styles.folder.Render(folder))
	fmt.Fprintf(r.w, "Environment: %s\n", r.styles.target.Render(environment))
}

// Table prints one row per pipeline inside a rounded border.
func (r *Renderer) Table(items []release.Deployed) {
	headers := []string{"Pipeline", "Release", "Status", "Created", "Deployed", "Environments"}
	for i, h := range headers {
		headers[i] = r.styles.header.Render(h)
	}

	rows := make([][]string, 0, len(items))
	for _, d := range items {
		created := d.CreatedOn
		rows = append(rows, []string{
			r.styles.pipeline.Render(d.Pipeline),
			d.ReleaseName,
			r.status(d.Status),
			r.styles.created.Render(FormatTime(&created)),
			r.styles.deployed.Render(FormatTime(d.DeployedOn)),
			r.environments(d.Environments),
		})
	}

	cell := r.styles.cell
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.styles.border).
		StyleFunc(func(row, col int) lipgloss.Style { return cell }).
		Headers(headers...).
		Rows(rows...)

	fmt.Fprintln(r.w, t.Render())
}

// List prints every pipeline as a block of labelled lines.
func (r *Renderer) List(items []release.Deployed) {
	for _, d := range items {
		created := d.CreatedOn
		fmt.Fprintf(r.w, "Release: %s (%s) - %s\n",
			r.styles.label.Render(d.Pipeline), d.ReleaseName, r.status(d.Status))
		fmt.Fprintf(r.w, "Id: %d\n", d.ReleaseID)
		fmt.Fprintf(r.w, "CreatedOn: %s\n", r.styles.created.Render(FormatTime(&created)))
		fmt.Fprintf(r.w, "DeployedOn: %s\n", r.styles.deployed.Render(FormatTime(d.DeployedOn)))
		fmt.Fprintf(r.w, "Environments: %s\n", r.environments(d.Environments))
		if d.WebURL != "" {
			fmt.Fprintln(r.w, r.styles.url.Render(d.WebURL))
		}
		fmt.Fprintln(r.w)
	}
}

// Caption prints a dimmed status line such as the refresh countdown.
func (r *Renderer) Caption(text string) {
	fmt.Fprintln(r.w, r.styles.caption.Render(text))
}

// Failure prints a message in red.
func (r *Renderer) Failure(text string) {
	fmt.Fprintln(r.w, r.styles.failed.Render(text))
}

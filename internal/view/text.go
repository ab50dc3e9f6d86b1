package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const columnGap = "  "

// TextStyles are the terminal styles matching the HTML classes.
type TextStyles struct {
	Plain  lipgloss.Style
	Title  lipgloss.Style
	Label  lipgloss.Style
	Header lipgloss.Style
	Best   lipgloss.Style
	Error  lipgloss.Style
	Slow   lipgloss.Style
}

// NewTextStyles builds styles bound to r, so colors are only emitted when
// the renderer's output supports them.
func NewTextStyles(r *lipgloss.Renderer) TextStyles {
	return TextStyles{
		Plain:  r.NewStyle(),
		Title:  r.NewStyle().Bold(true).Underline(true),
		Label:  r.NewStyle().Bold(true),
		Header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("7")),
		Best:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("#c8e6c9")),
		Error:  r.NewStyle().Foreground(lipgloss.Color("9")),
		Slow:   r.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

func (s TextStyles) forClass(c Class) lipgloss.Style {
	switch c {
	case ClassBest:
		return s.Best
	case ClassError:
		return s.Error
	case ClassSlow:
		return s.Slow
	default:
		return s.Plain
	}
}

// RenderText writes page as plain terminal text.
func RenderText(w io.Writer, page Page, styles TextStyles) error {
	msgs := page.Messages

	var b strings.Builder
	b.WriteString(styles.Title.Render(msgs.Title))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s\n", styles.Label.Render(msgs.LastUpdate), styles.forClass(page.UpdateTime.Class).Render(page.UpdateTime.Text))
	fmt.Fprintf(&b, "%s %s\n\n", styles.Label.Render(msgs.BestProxy), styles.forClass(page.BestProxy.Class).Render(page.BestProxy.Text))
	b.WriteString(styles.Label.Render(msgs.ProxyList))
	b.WriteString("\n")

	headers := []string{msgs.HeaderURL, msgs.HeaderStatus, msgs.HeaderDelay}
	widths := columnWidths(headers, page.Rows)

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = styles.Header.Width(widths[i]).Render(h)
	}
	b.WriteString(strings.TrimRight(strings.Join(cells, columnGap), " "))
	b.WriteString("\n")

	for _, row := range page.Rows {
		b.WriteString(renderRow(row, widths, styles))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderRow(row Row, widths []int, styles TextStyles) string {
	rowStyle := styles.forClass(row.Class)

	var parts []string
	col := 0
	for _, cell := range row.Cells {
		span := max(cell.ColSpan, 1)
		width := spanWidth(widths, col, span)
		col += span

		style := styles.forClass(cell.Class).Inherit(rowStyle).Width(width)
		if cell.Centered {
			style = style.Align(lipgloss.Center)
		}
		parts = append(parts, style.Render(cell.Text))
	}

	gap := columnGap
	if row.Class != ClassNone {
		gap = rowStyle.Render(columnGap)
	}
	return strings.Join(parts, gap)
}

func columnWidths(headers []string, rows []Row) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}

	for _, row := range rows {
		col := 0
		for _, cell := range row.Cells {
			span := max(cell.ColSpan, 1)
			if span == 1 && col < len(widths) {
				widths[col] = max(widths[col], lipgloss.Width(cell.Text))
			}
			col += span
		}
	}

	return widths
}

func spanWidth(widths []int, start, span int) int {
	total := 0
	for i := start; i < start+span && i < len(widths); i++ {
		if i > start {
			total += len(columnGap)
		}
		total += widths[i]
	}
	return total
}

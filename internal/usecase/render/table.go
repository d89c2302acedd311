package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"klist/internal/domain/entity"
	"klist/internal/usecase/parse"
)

const (
	separatorRune = "—"

	// maxCellWidth caps every table cell, in runes, so that the header, the
	// separator and one row always fit in a single message.
	maxCellWidth = 64
	ellipsis     = "…"
)

// columns is the fixed column order of the server table.
var columns = [...]string{"Name", "Location", "Users", "Games", "Version", "IP address"}

type widths [len(columns)]int

func serverCells(s entity.Server) [len(columns)]string {
	return [len(columns)]string{
		clip(s.Name), clip(s.Location), clip(s.Users),
		clip(s.Games), clip(s.Version), clip(s.IPAddress),
	}
}

// clip shortens s to maxCellWidth runes, marking the cut with an ellipsis.
func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxCellWidth {
		return s
	}
	return string([]rune(s)[:maxCellWidth-1]) + ellipsis
}

// columnWidths returns the widest value of each column across all servers.
// Header labels do not count; an empty list yields zero-width columns.
func columnWidths(servers []entity.Server) widths {
	var w widths
	for _, s := range servers {
		for i, cell := range serverCells(s) {
			w[i] = max(w[i], utf8.RuneCountInString(cell))
		}
	}
	return w
}

func formatRow(w widths, cells [len(columns)]string) string {
	var b strings.Builder
	b.WriteString("|")
	for i, cell := range cells {
		fmt.Fprintf(&b, " %-*s |", w[i], cell)
	}
	b.WriteString("\n")
	return b.String()
}

func separatorRow(w widths) string {
	var cells [len(columns)]string
	for i := range cells {
		cells[i] = strings.Repeat(separatorRune, w[i])
	}
	return formatRow(w, cells)
}

// ServerPages sorts a copy of servers and renders them as a fenced table,
// starting a new page whenever the next row plus a closing separator would
// not fit in MessageBudget minus the fence reserve. Every page repeats the
// header and separator rows and lists at least one server. Cells longer than
// maxCellWidth are clipped.
func ServerPages(servers []entity.Server) []entity.Page {
	sorted := append([]entity.Server(nil), servers...)
	parse.SortServers(sorted)

	w := columnWidths(sorted)
	header := formatRow(w, columns)
	sep := separatorRow(w)
	limit := MessageBudget - fenceReserve

	var (
		pages []entity.Page
		rows  int
		b     strings.Builder
	)
	emit := func() {
		b.WriteString(fence)
		pages = append(pages, entity.Page{
			Category: entity.CategoryServers,
			Index:    len(pages),
			Records:  rows,
			Payload:  entity.TextPayload(b.String()),
		})
		b.Reset()
		rows = 0
	}

	fmt.Fprintf(&b, "%s%s (%d servers found)\n\n%s%s", fence, serversTitle, len(sorted), header, sep)
	used := utf8.RuneCountInString(b.String())
	sepLen := utf8.RuneCountInString(sep)

	for _, s := range sorted {
		line := formatRow(w, serverCells(s))
		lineLen := utf8.RuneCountInString(line)
		if rows > 0 && used+lineLen+sepLen > limit {
			emit()
			b.WriteString(fence + header + sep)
			used = utf8.RuneCountInString(b.String())
		}
		b.WriteString(line)
		used += lineLen
		rows++
	}
	emit()
	return pages
}

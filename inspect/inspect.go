// Package inspect dumps a scheduler's routine trees for debugging.
package inspect

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/delaneyj/hcoroutines/co"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Row describes one routine.
type Row struct {
	Depth       int
	ID          uint64
	Name        string
	Alive       bool
	Running     bool
	Updating    bool
	ProcessMode co.ProcessMode
	RunMode     co.RunMode
	Children    int
}

// Snapshot walks every root subtree depth first, parents before children.
func Snapshot(s *co.Scheduler) []Row {
	var rows []Row
	var walk func(r *co.Routine, depth int)
	walk = func(r *co.Routine, depth int) {
		rows = append(rows, Row{
			Depth:       depth,
			ID:          r.ID(),
			Name:        r.Name(),
			Alive:       r.IsAlive(),
			Running:     r.IsRunning(),
			Updating:    r.ShouldReceiveUpdates(),
			ProcessMode: r.ProcessMode(),
			RunMode:     r.RunMode(),
			Children:    r.ChildCount(),
		})
		for c := range r.Children() {
			walk(c, depth+1)
		}
	}
	for _, r := range s.Roots() {
		walk(r, 0)
	}
	return rows
}

// WriteTable renders Snapshot(s) to w.
func WriteTable(w io.Writer, s *co.Scheduler) {
	rows := Snapshot(s)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"routine", "id", "running", "updating", "process", "run", "children"})
	table.SetAutoWrapText(false)

	updating := 0
	for _, row := range rows {
		if row.Updating {
			updating++
		}
		name := row.Name
		if name == "" {
			name = "-"
		}
		table.Append([]string{
			strings.Repeat("  ", row.Depth) + name,
			fmt.Sprintf("%016x", row.ID),
			strconv.FormatBool(row.Running),
			strconv.FormatBool(row.Updating),
			row.ProcessMode.String(),
			row.RunMode.String(),
			strconv.Itoa(row.Children),
		})
	}

	st := s.Stats()
	table.SetFooter([]string{
		humanize.Comma(int64(len(rows))) + " routines",
		humanize.Comma(int64(st.Roots)) + " roots",
		"",
		humanize.Comma(int64(updating)) + " updating",
		humanize.Comma(int64(st.Primary)) + " primary",
		humanize.Comma(int64(st.Secondary)) + " secondary",
		humanize.Comma(int64(st.Frames)) + " frames",
	})
	table.Render()
}

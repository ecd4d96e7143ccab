package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type column struct {
	title string
	right bool
}

// renderTable lays rows out under columns; short rows are padded.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		header = append(header, col.title)
		align := text.AlignLeft
		if col.right {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

type checkStatus int

const (
	statusOK checkStatus = iota
	statusWarn
	statusError
)

func (s checkStatus) label(colorize bool) string {
	var (
		word  string
		color text.Colors
	)
	switch s {
	case statusOK:
		word, color = "OK", text.Colors{text.FgGreen}
	case statusWarn:
		word, color = "WARN", text.Colors{text.FgYellow}
	default:
		word, color = "ERROR", text.Colors{text.FgRed, text.Bold}
	}
	if !colorize {
		return word
	}
	return color.Sprint(word)
}

// shouldColorize reports whether w is an interactive terminal.
func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

package printer

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// StyleKubeCtl renders a table without borders, like kubectl get
var StyleKubeCtl = table.Style{
	Name:    "StyleKubeCtl",
	Box:     table.StyleBoxDefault,
	Color:   table.ColorOptionsDefault,
	Format:  table.FormatOptionsDefault,
	HTML:    table.DefaultHTMLOptions,
	Options: table.OptionsNoBordersAndSeparators,
	Title:   table.TitleOptionsDefault,
}

type TablePrinter struct {
	tbl table.Writer
}

func NewTablePrinter(out io.Writer) *TablePrinter {
	t := table.NewWriter()
	t.SetStyle(StyleKubeCtl)
	t.SetOutputMirror(out)
	return &TablePrinter{tbl: t}
}

func (t *TablePrinter) SetHeader(header ...interface{}) {
	t.tbl.AppendHeader(header)
}

func (t *TablePrinter) AddRow(row ...interface{}) {
	t.tbl.AppendRow(table.Row(row))
}

func (t *TablePrinter) Print() {
	t.tbl.Render()
}

package cli

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fpang/calm-imagegen/internal/asset"
	"github.com/fpang/calm-imagegen/internal/prompt"
	"github.com/olekukonko/tablewriter"
)

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

// RenderTemplates writes the template catalog as a table.
func RenderTemplates(w io.Writer, templates []prompt.Template) {
	var data [][]string
	for _, t := range templates {
		var requires []string
		for _, r := range t.Requires {
			requires = append(requires, "--"+string(r))
		}
		modes := strings.Join(t.Modes(), ", ")
		data = append(data, []string{t.Name, t.AspectRatio, t.Description, strings.Join(requires, " "), modes})
	}

	table := newTable(w, []string{"NAME", "ASPECT", "DESCRIPTION", "REQUIRES", "MODES"})
	table.AppendBulk(data)
	table.Render()
}

// RenderAssets writes downloaded assets as a table.
func RenderAssets(w io.Writer, assets []asset.Asset) {
	var data [][]string
	for _, a := range assets {
		data = append(data, []string{
			a.Prefix,
			a.Timestamp.Local().Format(time.DateTime),
			strconv.Itoa(a.Variant),
			FormatBytes(a.Size),
			a.Path,
		})
	}

	table := newTable(w, []string{"PREFIX", "CREATED", "VARIANT", "SIZE", "PATH"})
	table.AppendBulk(data)
	table.Render()
}

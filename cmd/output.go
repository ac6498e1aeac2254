package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"cropscan/internal/domain/entity"
	"cropscan/internal/domain/port"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

func printDiagnosis(w io.Writer, d *entity.Diagnosis, labels port.LabelResolver, describe bool) {
	fmt.Fprintln(w, d.Label.Headline())
	fmt.Fprintln(w)

	names := labels.Labels()
	table := newTable(w, "CLASS", "PROBABILITY", "")
	for i, p := range d.Probabilities {
		name := fmt.Sprintf("#%d", i)
		if i < len(names) {
			name = names[i].String()
		}
		mark := ""
		if i == d.ClassIndex {
			mark = "*"
		}
		table.Append([]string{name, fmt.Sprintf("%.4f", p), mark})
	}
	table.Render()

	if !describe {
		return
	}

	fmt.Fprintln(w)
	if d.Description.OK() {
		fmt.Fprintln(w, d.Description.Text)
		return
	}
	fmt.Fprintf(w, "Description unavailable (%s): %v\n", d.Description.Kind(), d.Description.Err)
}

func printLanguages(w io.Writer) {
	table := newTable(w, "CODE", "LANGUAGE", "NATIVE")
	for _, info := range entity.Languages() {
		table.Append([]string{string(info.Code), info.Name, info.Native})
	}
	table.Render()
}

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"unlinkmkv/internal/chapters"
	"unlinkmkv/internal/processor"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [paths...]",
		Short: "Show chapter editions and segment links without rebuilding",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			tools, err := ctx.newTools(logger)
			if err != nil {
				return err
			}

			files, err := processor.ExpandInputs(args, nil)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no .mkv files found in the given paths")
			}

			out := cmd.OutOrStdout()
			for _, file := range files {
				chapterXML, err := tools.ExtractChapters(cmd.Context(), file)
				if err != nil {
					return err
				}
				if !chapters.HasSegmentLinks(chapterXML) {
					fmt.Fprintf(out, "%s: no segment links\n", filepath.Base(file))
					continue
				}
				doc, err := chapters.Parse([]byte(chapterXML))
				if err != nil {
					return err
				}

				rows := make([][]string, 0)
				for edition := 1; edition <= doc.EditionCount(); edition++ {
					atoms, err := doc.Atoms(edition)
					if err != nil {
						return err
					}
					for i, atom := range atoms {
						start, end, _ := atom.Times()
						location := "internal"
						if uid, format, ok := atom.SegmentUID(); ok {
							location = fmt.Sprintf("external %s (%s)", uid, format)
						}
						rows = append(rows, []string{
							fmt.Sprintf("%d", edition),
							fmt.Sprintf("%d", i+1),
							start.String(),
							end.String(),
							yesNo(atom.Enabled()),
							location,
						})
					}
				}

				fmt.Fprintf(out, "%s (%d edition(s)):\n", filepath.Base(file), doc.EditionCount())
				fmt.Fprintln(out, renderTable(
					[]tableColumn{
						{title: "Edition", numeric: true},
						{title: "Chapter", numeric: true},
						{title: "Start", numeric: true},
						{title: "End", numeric: true},
						{title: "Enabled"},
						{title: "Segment"},
					},
					rows,
				))
			}
			return nil
		},
	}
	return cmd
}

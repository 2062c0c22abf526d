package main

import (
	"errors"

	"github.com/spf13/cobra"

	"gitlab.com/dirk.krummacker/person-palace/internal/table"
)

func newListCmd(a *app) *cobra.Command {
	var (
		sortBy string
		desc   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show all persons as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sortBy != "" {
				col, err := table.ParseColumn(sortBy)
				if err != nil {
					return err
				}
				dir := table.Ascending
				if desc {
					dir = table.Descending
				}
				a.page.SetSort(table.SortState{Key: col, Direction: dir})
			} else if desc {
				return errors.New("--desc requires --sort")
			}
			if _, err := a.page.Persons(cmd.Context()); err != nil {
				return shown{err}
			}
			return table.Render(a.out, a.page.View())
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort by column: name, company, title, phone or dob")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort in descending order")
	return cmd
}

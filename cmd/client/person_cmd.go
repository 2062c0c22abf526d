package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/dirk.krummacker/person-palace/internal/form"
	"gitlab.com/dirk.krummacker/person-palace/internal/page"
	"gitlab.com/dirk.krummacker/person-palace/pkg/model"
)

// errClearDOB is returned by update for an empty --dob. The update payload cannot express a
// removed date of birth, so the stored value would survive.
var errClearDOB = errors.New("clearing the date of birth is not supported")

// personFlags are the form fields as command line flags.
type personFlags struct {
	name, company, title, phone, dob string
}

func (f *personFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "name of the person")
	cmd.Flags().StringVar(&f.company, "company", "", "company, at most 50 characters")
	cmd.Flags().StringVar(&f.title, "title", "", "job title, at most 50 characters")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&f.dob, "dob", "", "date of birth as yyyy-mm-dd, cannot be cleared once set")
}

// apply writes the flags given on the command line into v. Flags that were not given leave the
// field as it is.
func (f *personFlags) apply(cmd *cobra.Command, v form.Values) (form.Values, error) {
	changed := cmd.Flags().Changed
	if changed("name") {
		v.Name = f.name
	}
	if changed("company") {
		v.Company = f.company
	}
	if changed("title") {
		v.Title = f.title
	}
	if changed("phone") {
		v.Phone = f.phone
	}
	if changed("dob") {
		v.DOB = nil
		if f.dob != "" {
			d, err := model.ParseDate(f.dob)
			if err != nil {
				return v, fmt.Errorf("invalid --dob %q: expected yyyy-mm-dd", f.dob)
			}
			v.DOB = &d
		}
	}
	return v, nil
}

func newCreateCmd(a *app) *cobra.Command {
	var flags personFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := flags.apply(cmd, form.Values{})
			if err != nil {
				return err
			}
			a.page.OpenCreate()
			a.page.SetFormValues(values)
			return a.submit(cmd.Context())
		},
	}
	flags.register(cmd)
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var flags personFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the given fields of a person; an empty value clears the field, except --dob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("dob") && flags.dob == "" {
				return errClearDOB
			}
			person, err := a.find(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.page.OpenEdit(person)
			values, err := flags.apply(cmd, a.page.FormValues())
			if err != nil {
				a.page.CloseForm()
				return err
			}
			a.page.SetFormValues(values)
			return a.submit(cmd.Context())
		},
	}
	flags.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a person after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			person, err := a.find(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.page.RequestDelete(person)
			if !yes {
				fmt.Fprintf(a.out, "Are you sure you want to delete %s? This action cannot be undone. [y/N] ", person.Name)
				answer, _ := a.in.ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					a.page.CancelDelete()
					fmt.Fprintln(a.out, "Cancelled.")
					return nil
				}
			}
			if err := a.page.ConfirmDelete(cmd.Context()); err != nil {
				return shown{err}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

// find returns the listed person with the given id.
func (a *app) find(ctx context.Context, id string) (model.Person, error) {
	persons, err := a.page.Persons(ctx)
	if err != nil {
		return model.Person{}, shown{err}
	}
	for _, p := range persons {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Person{}, fmt.Errorf("person %s not found", id)
}

// submit submits the form and prints validation errors next to their field names.
func (a *app) submit(ctx context.Context) error {
	err := a.page.SubmitForm(ctx)
	if err == nil {
		return nil
	}
	var ve form.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for f := range ve {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Fprintf(a.out, "%s: %s\n", f, ve[f].Message())
		}
		return shown{err}
	}
	if errors.Is(err, page.ErrBusy) || errors.Is(err, form.ErrClosed) {
		return err
	}
	// everything else was notified
	return shown{err}
}

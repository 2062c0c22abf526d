package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/dirk.krummacker/person-palace/internal/client"
	"gitlab.com/dirk.krummacker/person-palace/pkg/model"
)

func newBenchCmd(a *app) *cobra.Command {
	var sizes []int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure the average duration of POST, PUT, GET and DELETE requests in microseconds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, n := range sizes {
				if n <= 0 {
					return errors.New("sizes must be positive")
				}
			}
			return runBench(cmd.Context(), a.api, a.out, sizes)
		},
	}
	cmd.Flags().IntSliceVar(&sizes, "sizes", []int{1000, 5000, 10000}, "number of persons per round")
	return cmd
}

var benchPerson = model.PersonCreate{
	Name:    "Marcus Antonius",
	Company: model.String("SPQR"),
	Title:   model.String("Triumvir"),
	Phone:   model.String("+39 999 777 555"),
	DOB:     model.String("1983-01-14"),
}

// runBench creates, updates, reads and deletes n persons for each size and prints one row of
// average durations per size. The persons created by a round are deleted by it.
func runBench(ctx context.Context, api *client.Client, out io.Writer, sizes []int) error {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Elements      POST       PUT       GET    DELETE ")
	fmt.Fprintln(out, "---------------------------------------------------")
	update := model.PersonUpdate{Phone: model.String("+39 111 222 333")}
	for _, loops := range sizes {
		fmt.Fprintf(out, "%10d", loops)

		// POST requests
		ids := make([]string, 0, loops)
		var duration time.Duration
		for i := 0; i < loops; i++ {
			before := time.Now()
			p, err := api.Create(ctx, benchPerson)
			if err != nil {
				return err
			}
			duration += time.Since(before)
			ids = append(ids, p.ID)
		}
		fmt.Fprintf(out, "%10d", (duration / time.Duration(loops)).Microseconds())

		steps := []func(id string) error{
			func(id string) error { _, err := api.Update(ctx, id, update); return err },
			func(id string) error { _, err := api.Get(ctx, id); return err },
			func(id string) error { return api.Delete(ctx, id) },
		}
		for _, f := range steps {
			avg, err := callInLoop(ids, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%10d", avg.Microseconds())
		}
		fmt.Fprintln(out)
	}
	return nil
}

// callInLoop calls f for every id in random order and returns the average duration.
func callInLoop(ids []string, f func(id string) error) (time.Duration, error) {
	shuffled := append([]string(nil), ids...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	var duration time.Duration
	for _, id := range shuffled {
		before := time.Now()
		if err := f(id); err != nil {
			return 0, err
		}
		duration += time.Since(before)
	}
	return duration / time.Duration(len(shuffled)), nil
}

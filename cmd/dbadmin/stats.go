package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [data-file]",
	Short: "Report page count and buffer pool occupancy",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		d, pool, err := openPool(path)
		if err != nil {
			return err
		}
		defer d.Close()

		s := pool.Stats()
		fmt.Printf("file:            %s\n", d.Path())
		fmt.Printf("pages on disk:   %d\n", d.NumPages())
		fmt.Printf("buffer capacity: %d\n", s.Capacity)
		fmt.Printf("buffer occupied: %d\n", s.Occupied)
		fmt.Printf("pinned frames:   %d\n", s.PinnedCount)
		return nil
	},
}

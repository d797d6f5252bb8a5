package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, mem, _, err := openMemory()
		if err != nil {
			return err
		}
		defer db.Close()
		defer mem.Stop()

		s, err := mem.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("kernels:      %d\n", s.TotalKernels)
		fmt.Printf("connections:  %d\n", s.Connections)
		fmt.Printf("avg importance: %.3f\n", s.AverageImportance)
		if len(s.ByType) > 0 {
			fmt.Println("by type:")
			for ktype, n := range s.ByType {
				fmt.Printf("  %-12s %d\n", ktype, n)
			}
		}
		if len(s.TopActivated) > 0 {
			fmt.Println("most activated:")
			for _, t := range s.TopActivated {
				fmt.Printf("  %3d  %s  %s\n", t.Activations, t.ID, t.Essence)
			}
		}
		return nil
	},
}

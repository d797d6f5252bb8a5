package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	forgetMaxAge    int
	forgetThreshold float64
)

var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Prune old low-importance kernels",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, mem, _, err := openMemory()
		if err != nil {
			return err
		}
		defer db.Close()
		defer mem.Stop()

		n, err := mem.Forget(forgetMaxAge, forgetThreshold)
		if err != nil {
			return err
		}
		fmt.Printf("forgot %d kernels\n", n)
		return nil
	},
}

func init() {
	forgetCmd.Flags().IntVar(&forgetMaxAge, "max-age", 30, "minimum age in days")
	forgetCmd.Flags().Float64Var(&forgetThreshold, "threshold", 0.3, "importance below this is forgettable")
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/semcore/semmem/internal/engine"
)

var (
	searchLimit         int
	searchMinImportance float64
)

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search memory by meaning",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum results")
	searchCmd.Flags().Float64Var(&searchMinImportance, "min-importance", 0, "minimum importance")
}

func runSearch(cmd *cobra.Command, args []string) error {
	db, mem, _, err := openMemory()
	if err != nil {
		return err
	}
	defer db.Close()
	defer mem.Stop()

	results, err := mem.Search(engine.Query{
		Text:          args[0],
		MinImportance: searchMinImportance,
		Limit:         searchLimit,
	})
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}

	for _, r := range results {
		fmt.Printf("%.3f  %s  [%s]  %s\n", r.Relevance, r.Kernel.ID, r.Kernel.Type, r.Kernel.Essence)
	}
	return nil
}

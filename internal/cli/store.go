package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	storeLanguage string
	storeTags     []string
)

var storeCmd = &cobra.Command{
	Use:   "store [text]",
	Short: "Compress text into a kernel and store it",
	Long:  "Compresses the given text (or stdin when no argument) into a semantic kernel, stores it, and prints the result.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStore,
}

func init() {
	storeCmd.Flags().StringVarP(&storeLanguage, "language", "l", "", "text language (ru or en)")
	storeCmd.Flags().StringSliceVarP(&storeTags, "tag", "t", nil, "tags to attach (repeatable)")
}

func runStore(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		return fmt.Errorf("no text to store")
	}

	db, mem, _, err := openMemory()
	if err != nil {
		return err
	}
	defer db.Close()
	defer mem.Stop()

	k := mem.Compress(text, storeLanguage, nil)
	k.Tags = storeTags
	if err := mem.Store(k); err != nil {
		return err
	}

	fmt.Printf("stored %s\n", k.ID)
	fmt.Printf("  essence:    %s\n", k.Essence)
	fmt.Printf("  type:       %s\n", k.Type)
	fmt.Printf("  importance: %.2f\n", k.Importance)
	fmt.Printf("  concepts:   %s\n", strings.Join(k.Concepts, ", "))
	return nil
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Retrieve a kernel by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, mem, _, err := openMemory()
		if err != nil {
			return err
		}
		defer db.Close()
		defer mem.Stop()

		k, err := mem.Retrieve(args[0], true)
		if err != nil {
			return err
		}
		if k == nil {
			return fmt.Errorf("kernel %s not found", args[0])
		}

		fmt.Printf("%s  [%s]  importance %.2f\n", k.ID, k.Type, k.Importance)
		fmt.Printf("  %s\n", k.Essence)
		fmt.Printf("  concepts:    %s\n", strings.Join(k.Concepts, ", "))
		if len(k.Tags) > 0 {
			fmt.Printf("  tags:        %s\n", strings.Join(k.Tags, ", "))
		}
		fmt.Printf("  activations: %d\n", k.ActivationCount)
		if len(k.Connections) > 0 {
			fmt.Printf("  connected:   %s\n", strings.Join(k.Connections, ", "))
		}
		return nil
	},
}

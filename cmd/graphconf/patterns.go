package graphconf

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/soundprediction/graphconf/pkg/pattern"
	"github.com/spf13/cobra"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List the pattern catalog",
	RunE:  runPatterns,
}

func init() {
	rootCmd.AddCommand(patternsCmd)
	patternsCmd.Flags().StringP("output", "o", OutputText, "output format (text, json, yaml)")
}

func runPatterns(cmd *cobra.Command, args []string) error {
	outFormat, _ := cmd.Flags().GetString("output")
	enc, err := newEncoder(cmd.OutOrStdout(), outFormat)
	if err != nil {
		return err
	}
	catalog := pattern.Catalog()
	if enc != nil {
		return enc.Encode(catalog)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tID\tRESULT\tARGS\tDESCRIPTION")
	for _, d := range catalog {
		result := "scalar"
		if d.SetValued {
			result = "per key"
		}
		var argDocs []string
		for _, a := range d.Args {
			switch {
			case a.Required:
				argDocs = append(argDocs, a.Name+" (required)")
			case a.Default != "":
				argDocs = append(argDocs, a.Name+"="+a.Default)
			default:
				argDocs = append(argDocs, a.Name)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", d.Index, d.ID, result, strings.Join(argDocs, ", "), d.Description)
	}
	return tw.Flush()
}

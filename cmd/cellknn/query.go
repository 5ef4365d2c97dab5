package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/cellknn"
	"github.com/hupe1980/cellknn/neighbors"
	"github.com/hupe1980/cellknn/source"
)

func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <queries.csv>",
		Short: "Query the index with vectors from a CSV file",
		Long:  `Read query vectors from a headerless CSV file (one vector per row), look up their nearest neighbors and print raw neighbor IDs, per-query attribute counts or majority labels.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}

	cmd.Flags().String("obs-key", "", "Metadata column to aggregate over the neighbors")
	cmd.Flags().Bool("counts", false, "Print the full count table instead of majority labels")
	cmd.Flags().IntP("number", "n", 0, "Neighbors per query (0 uses the config default)")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open queries: %w", err)
	}
	defer f.Close()

	queries, err := source.ReadMatrixCSV(f)
	if err != nil {
		return fmt.Errorf("read queries: %w", err)
	}

	knn, _, err := buildKNN(cmd)
	if err != nil {
		return err
	}

	obsKey, _ := cmd.Flags().GetString("obs-key")
	counts, _ := cmd.Flags().GetBool("counts")
	k, _ := cmd.Flags().GetInt("number")
	asJSON, _ := cmd.Flags().GetBool("json")

	var optFns []cellknn.QueryOption
	if obsKey != "" {
		optFns = append(optFns, cellknn.WithObsKey(obsKey))
	}
	if counts {
		optFns = append(optFns, cellknn.WithCounts())
	}
	if k > 0 {
		optFns = append(optFns, cellknn.WithQueryK(k))
	}

	res, err := knn.Query(cmd.Context(), queries, optFns...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if asJSON {
		return printResultJSON(cmd, res)
	}

	return printResult(cmd, res)
}

func printResult(cmd *cobra.Command, res *cellknn.Result) error {
	out := cmd.OutOrStdout()

	switch res.Kind {
	case neighbors.KindNeighbors:
		nn := res.Neighbors.Flatten2D()
		for q := 0; q < nn.Dim(0); q++ {
			ids := nn.Row(q)
			fields := make([]string, len(ids))
			for i, id := range ids {
				fields[i] = fmt.Sprint(id)
			}
			fmt.Fprintln(out, strings.Join(fields, ","))
		}
	case neighbors.KindCounts:
		ct := res.Counts
		fmt.Fprintln(out, strings.Join(ct.Columns(), ","))
		for q := 0; q < ct.NumQueries(); q++ {
			fields := make([]string, 0, len(ct.Columns()))
			for _, col := range ct.Columns() {
				fields = append(fields, fmt.Sprint(ct.At(q, col)))
			}
			fmt.Fprintln(out, strings.Join(fields, ","))
		}
	case neighbors.KindLabels:
		for _, label := range res.Labels.Data() {
			fmt.Fprintln(out, label)
		}
	}

	return nil
}

func printResultJSON(cmd *cobra.Command, res *cellknn.Result) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	switch res.Kind {
	case neighbors.KindNeighbors:
		nn := res.Neighbors.Flatten2D()
		rows := make([][]int, nn.Dim(0))
		for q := range rows {
			rows[q] = nn.Row(q)
		}
		return enc.Encode(map[string]any{
			"shape":     res.Neighbors.Shape(),
			"neighbors": rows,
		})
	case neighbors.KindCounts:
		ct := res.Counts
		rows := make([]map[string]int, ct.NumQueries())
		for q := range rows {
			row := make(map[string]int, len(ct.Columns()))
			for _, col := range ct.Columns() {
				row[col] = ct.At(q, col)
			}
			rows[q] = row
		}
		return enc.Encode(rows)
	case neighbors.KindLabels:
		return enc.Encode(res.Labels.Data())
	}

	return nil
}

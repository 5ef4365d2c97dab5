package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func NewInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Build the index and print its shape",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			knn, cfg, err := buildKNN(cmd)
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"use_key": cfg.Data.UseKey,
					"n_obs":   knn.NObs(),
					"n_dim":   knn.NDim(),
					"space":   knn.Index().Space().String(),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), knn.String())
			return nil
		},
	}
}

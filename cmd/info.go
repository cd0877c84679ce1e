package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-bootimg/internal/services"
)

var infoOutput string

var infoCmd = &cobra.Command{
	Use:   "info <bootimg>",
	Short: "Print boot image information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := services.Open(args[0], false)
		if err != nil {
			return err
		}
		defer img.Close()

		out, err := img.Info().Render(infoOutput, verbose)
		if err != nil {
			return err
		}
		fmt.Println(out)

		return nil
	},
}

func init() {
	infoCmd.Flags().StringVarP(&infoOutput, "output", "o", "table", "output format (table, json, yaml)")
}

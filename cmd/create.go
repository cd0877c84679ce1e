package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-bootimg/internal/disk"
	"github.com/deploymenttheory/go-bootimg/internal/services"
)

var createFlags editFlags

var createCmd = &cobra.Command{
	Use:   "create <bootimg>",
	Short: "Create a new boot image from scratch",
	Long: `Create builds a boot image from scratch; kernel and ramdisk are
mandatory. When the target is a block device, a sanity check refuses to
overwrite an existing filesystem.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := disk.LoadToolConfig()
		if err != nil {
			return err
		}

		img, err := services.Create(args[0], config.DefaultPageSize)
		if err != nil {
			return err
		}
		defer img.Close()

		if err := createFlags.apply(img); err != nil {
			return err
		}
		img.Header.BumpVersion()

		progressf("writing boot image %s", img.Path())
		return img.Commit()
	},
}

func init() {
	createFlags.register(createCmd)

	cobra.CheckErr(createCmd.MarkFlagRequired("kernel"))
	cobra.CheckErr(createCmd.MarkFlagRequired("ramdisk"))
}

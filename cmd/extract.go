package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-bootimg/internal/disk"
	"github.com/deploymenttheory/go-bootimg/internal/services"
	"github.com/deploymenttheory/go-bootimg/internal/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract <bootimg> [<bootimg.cfg> [<kernel> [<ramdisk> [<secondstage> [<dtb> [<recovery dtbo>]]]]]]",
	Short: "Extract the config file and every partition from a boot image",
	Long: `Extract writes the boot image config plus each present partition to
separate files. Positional names override the defaults, in order: config
file, kernel, ramdisk, second stage, dtb, recovery dtbo.`,
	Args: cobra.RangeArgs(1, 7),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := disk.LoadToolConfig()
		if err != nil {
			return err
		}

		// Output names in positional-argument order.
		names := []string{
			config.ConfigName,
			config.KernelName,
			config.RamdiskName,
			config.SecondName,
			config.DtbName,
			config.RecoveryDtboName,
		}
		for i, arg := range args[1:] {
			names[i] = arg
		}

		img, err := services.Open(args[0], false)
		if err != nil {
			return err
		}
		defer img.Close()

		progressf("writing boot image config in %s", names[0])
		if err := img.WriteConfig(names[0]); err != nil {
			return err
		}

		extractions := []struct {
			part types.PartitionKind
			path string
		}{
			{types.PartKernel, names[1]},
			{types.PartRamdisk, names[2]},
			{types.PartSecond, names[3]},
			{types.PartDtb, names[4]},
			{types.PartRecoveryDtbo, names[5]},
		}
		for _, e := range extractions {
			written, err := img.Extract(e.part, e.path)
			if err != nil {
				return err
			}
			if written {
				progressf("extracting %s in %s", e.part, e.path)
			}
		}

		return nil
	},
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-bootimg/internal/parsers/bootcfg"
	"github.com/deploymenttheory/go-bootimg/internal/services"
	"github.com/deploymenttheory/go-bootimg/internal/types"
)

// Per-invocation update/create flags, shared between the two commands.
type editFlags struct {
	configEntries []string
	configFile    string
	kernel        string
	ramdisk       string
	second        string
	dtb           string
	recoveryDtbo  string
}

func (f *editFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.configEntries, "config", "c", nil, `header entry override ("param=value", repeatable)`)
	cmd.Flags().StringVarP(&f.configFile, "config-file", "f", "", "config file with header entries")
	cmd.Flags().StringVarP(&f.kernel, "kernel", "k", "", "kernel image file")
	cmd.Flags().StringVarP(&f.ramdisk, "ramdisk", "r", "", "ramdisk image file")
	cmd.Flags().StringVarP(&f.second, "second", "s", "", "second stage image file")
	cmd.Flags().StringVarP(&f.dtb, "dtb", "d", "", "dtb image file")
	cmd.Flags().StringVarP(&f.recoveryDtbo, "dtbo", "o", "", "recovery dtbo image file")
}

// apply runs file-based config entries, then command line overrides, then
// loads partitions. Both entry sources funnel through the same field-update
// routine, in order.
func (f *editFlags) apply(img *services.BootImage) error {
	if f.configFile != "" {
		progressf("reading config file %s", f.configFile)
		entries, err := bootcfg.ParseFile(f.configFile)
		if err != nil {
			return err
		}
		if err := img.ApplyEntries(entries); err != nil {
			return err
		}
	}

	for _, raw := range f.configEntries {
		entry, err := bootcfg.ParseLine(raw)
		if err != nil {
			return err
		}
		if err := img.ApplyEntry(entry); err != nil {
			return err
		}
	}

	var req services.UpdateRequest
	req.SetFile(types.PartKernel, f.kernel)
	req.SetFile(types.PartRamdisk, f.ramdisk)
	req.SetFile(types.PartSecond, f.second)
	req.SetFile(types.PartDtb, f.dtb)
	req.SetFile(types.PartRecoveryDtbo, f.recoveryDtbo)
	for p := types.PartKernel; p < types.PartCount; p++ {
		if req.Files[p] != "" {
			progressf("reading %s from %s", p, req.Files[p])
		}
	}

	return img.LoadPartitions(req)
}

var updateFlags editFlags

var updateCmd = &cobra.Command{
	Use:   "update <bootimg>",
	Short: "Update an existing boot image",
	Long: `Update replaces header entries and partitions of a valid existing boot
image and rewrites it in place. Partitions not named on the command line are
carried over from the image.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := services.Open(args[0], true)
		if err != nil {
			return err
		}
		defer img.Close()

		if err := updateFlags.apply(img); err != nil {
			return err
		}
		img.Header.BumpVersion()

		progressf("writing boot image %s", img.Path())
		return img.Commit()
	},
}

func init() {
	updateFlags.register(updateCmd)
}

package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-bootimg/internal/types"
)

// PartitionInfo describes one payload of the image.
type PartitionInfo struct {
	Name     string `json:"name" yaml:"name"`
	Size     uint32 `json:"size" yaml:"size"`
	LoadAddr string `json:"load_addr,omitempty" yaml:"load_addr,omitempty"`
	Offset   uint64 `json:"offset" yaml:"offset"`
}

// Info is the renderable summary of a boot image.
type Info struct {
	File          string          `json:"file" yaml:"file"`
	BlockDevice   bool            `json:"block_device" yaml:"block_device"`
	ImageSize     uint64          `json:"image_size" yaml:"image_size"`
	PageSize      uint32          `json:"page_size" yaml:"page_size"`
	HeaderVersion uint32          `json:"header_version" yaml:"header_version"`
	Name          string          `json:"name,omitempty" yaml:"name,omitempty"`
	OSVersion     string          `json:"os_version,omitempty" yaml:"os_version,omitempty"`
	OSPatchLevel  string          `json:"os_patch_level,omitempty" yaml:"os_patch_level,omitempty"`
	Cmdline       string          `json:"cmdline,omitempty" yaml:"cmdline,omitempty"`
	TagsAddr      string          `json:"tags_addr" yaml:"tags_addr"`
	ID            string          `json:"id" yaml:"id"`
	Partitions    []PartitionInfo `json:"partitions" yaml:"partitions"`
}

// Info summarizes the image for display. Absent partitions are omitted.
func (img *BootImage) Info() *Info {
	h := &img.Header

	info := &Info{
		File:          img.path,
		BlockDevice:   img.dev.IsBlockDevice(),
		ImageSize:     img.Size,
		PageSize:      h.PageSize,
		HeaderVersion: h.HeaderVersion,
		Name:          h.NameString(),
		Cmdline:       h.CmdlineString(),
		TagsAddr:      fmt.Sprintf("0x%08x", h.TagsAddr),
	}

	if h.OSVersion != 0 {
		major, minor, patch, year, month := types.OSVersionParts(h.OSVersion)
		info.OSVersion = fmt.Sprintf("%d.%d.%d", major, minor, patch)
		info.OSPatchLevel = fmt.Sprintf("%d-%02d", year, month)
	}

	words := make([]string, 0, len(h.ID))
	for _, w := range h.ID {
		words = append(words, fmt.Sprintf("0x%08x", w))
	}
	info.ID = strings.Join(words, " ")

	addrs := [types.PartCount]string{
		fmt.Sprintf("0x%08x", h.KernelAddr),
		fmt.Sprintf("0x%08x", h.RamdiskAddr),
		fmt.Sprintf("0x%08x", h.SecondAddr),
		fmt.Sprintf("0x%08x", h.RecoveryDtboOffset),
		fmt.Sprintf("0x%08x", h.DtbAddr),
	}
	for p := types.PartKernel; p < types.PartCount; p++ {
		size := h.PartitionSize(p)
		if size == 0 {
			continue
		}
		info.Partitions = append(info.Partitions, PartitionInfo{
			Name:     p.String(),
			Size:     size,
			LoadAddr: addrs[p],
			Offset:   img.origOffsets[p],
		})
	}

	return info
}

// Render formats the info as a table, JSON or YAML.
func (i *Info) Render(format string, verbose bool) (string, error) {
	switch format {
	case "json":
		out, err := json.MarshalIndent(i, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render info as json: %w", err)
		}
		return string(out), nil
	case "yaml":
		out, err := yaml.Marshal(i)
		if err != nil {
			return "", fmt.Errorf("failed to render info as yaml: %w", err)
		}
		return string(out), nil
	case "table", "":
		return i.renderTable(verbose), nil
	}
	return "", fmt.Errorf("unknown output format %q", format)
}

func (i *Info) renderTable(verbose bool) string {
	b := &strings.Builder{}

	fmt.Fprintf(b, "\nAndroid Boot Image Info:\n\n")
	devNote := ""
	if i.BlockDevice {
		devNote = " [block device]"
	}
	fmt.Fprintf(b, "* file name = %s%s\n\n", i.File, devNote)

	fmt.Fprintf(b, "* image size = %d bytes (%.2f MB)\n", i.ImageSize, float64(i.ImageSize)/0x100000)
	fmt.Fprintf(b, "  page size  = %d bytes\n", i.PageSize)
	fmt.Fprintf(b, "  version    = %d\n\n", i.HeaderVersion)

	fmt.Fprintf(b, "* Boot Name = %q\n", i.Name)
	if i.OSVersion != "" {
		fmt.Fprintf(b, "  OS Version = %s (patch level %s)\n", i.OSVersion, i.OSPatchLevel)
	}
	fmt.Fprintf(b, "\n")

	for _, p := range i.Partitions {
		fmt.Fprintf(b, "* %-13s size = %d bytes (%.2f MB)", p.Name+":", p.Size, float64(p.Size)/0x100000)
		if verbose {
			fmt.Fprintf(b, ", offset = %d", p.Offset)
		}
		fmt.Fprintf(b, "\n")
	}
	fmt.Fprintf(b, "\n* load addresses:\n")
	for _, p := range i.Partitions {
		fmt.Fprintf(b, "  %-13s %s\n", p.Name+":", p.LoadAddr)
	}
	fmt.Fprintf(b, "  %-13s %s\n\n", "tags:", i.TagsAddr)

	if i.Cmdline != "" {
		fmt.Fprintf(b, "* cmdline = %s\n\n", i.Cmdline)
	} else {
		fmt.Fprintf(b, "* empty cmdline\n\n")
	}

	fmt.Fprintf(b, "* id = %s\n", i.ID)

	return b.String()
}

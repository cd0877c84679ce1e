package disk

import (
	"fmt"

	"github.com/spf13/viper"
)

// ToolConfig holds tool-wide defaults: the page size for freshly created
// images and the output names the extract command falls back to.
type ToolConfig struct {
	DefaultPageSize  uint32 `mapstructure:"default_page_size"`
	ConfigName       string `mapstructure:"config_name"`
	KernelName       string `mapstructure:"kernel_name"`
	RamdiskName      string `mapstructure:"ramdisk_name"`
	SecondName       string `mapstructure:"second_name"`
	DtbName          string `mapstructure:"dtb_name"`
	RecoveryDtboName string `mapstructure:"recovery_dtbo_name"`
}

// LoadToolConfig loads the tool configuration using Viper.
func LoadToolConfig() (*ToolConfig, error) {
	v := viper.New()
	v.SetConfigName("bootimg-tool")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.bootimg")
	v.AddConfigPath("/etc/bootimg")

	// Defaults match the historical abootimg output names.
	v.SetDefault("default_page_size", 2048)
	v.SetDefault("config_name", "bootimg.cfg")
	v.SetDefault("kernel_name", "zImage")
	v.SetDefault("ramdisk_name", "initrd.img")
	v.SetDefault("second_name", "stage2.img")
	v.SetDefault("dtb_name", "aboot.dtb")
	v.SetDefault("recovery_dtbo_name", "recovery_dtbo.img")

	// Allow environment variables.
	v.SetEnvPrefix("BOOTIMG")
	v.AutomaticEnv()

	// Read config file if it exists.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults.
	}

	var config ToolConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

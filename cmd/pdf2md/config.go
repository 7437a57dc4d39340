// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// flagKeys maps command-line flags to configuration keys. A flag overrides
// the config file and environment only when it is set explicitly.
var flagKeys = map[string]string{
	"output":         "output_root",
	"input-dir":      "input_dir",
	"backend":        "converter.backend",
	"executable":     "converter.executable",
	"method":         "converter.method",
	"device":         "converter.device",
	"model-source":   "converter.model_source",
	"cache-dir":      "converter.cache_dir",
	"env-dir":        "converter.env_dir",
	"timeout":        "converter.timeout",
	"archive-name":   "finish.archive_name",
	"archive-policy": "finish.archive_policy",
	"log-file":       "run_log.file_name",
}

// setDefaults registers every configuration key so that environment
// variables such as PDF2MD_CONVERTER_DEVICE are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	d := types.DefaultPipelineConfig()
	v.SetDefault("output_root", d.OutputRoot)
	v.SetDefault("input_dir", d.InputDir)

	v.SetDefault("converter.backend", string(d.Converter.Backend))
	v.SetDefault("converter.executable", d.Converter.Executable)
	v.SetDefault("converter.conda_prefix", os.Getenv("CONDA_PREFIX"))
	v.SetDefault("converter.method", d.Converter.Method)
	v.SetDefault("converter.tool_backend", d.Converter.ToolBackend)
	v.SetDefault("converter.device", d.Converter.Device)
	v.SetDefault("converter.visible_devices", d.Converter.VisibleDevices)
	v.SetDefault("converter.model_source", d.Converter.ModelSource)
	v.SetDefault("converter.cache_dir", d.Converter.CacheDir)
	v.SetDefault("converter.env_dir", d.Converter.EnvDir)
	v.SetDefault("converter.timeout", d.Converter.Timeout)

	v.SetDefault("finish.legacy_asset_dir", d.Finish.LegacyAssetDir)
	v.SetDefault("finish.asset_dir", d.Finish.AssetDir)
	v.SetDefault("finish.archive_name", d.Finish.ArchiveName)
	v.SetDefault("finish.archive_policy", string(d.Finish.ArchivePolicy))
	v.SetDefault("finish.package", d.Finish.Package)
	v.SetDefault("finish.prune_origin", d.Finish.PruneOrigin)

	v.SetDefault("run_log.file_name", d.RunLog.FileName)
	v.SetDefault("run_log.index", d.RunLog.Index)
	v.SetDefault("run_log.index_file", d.RunLog.IndexFile)
}

// loadConfig merges defaults, the config file, environment variables, and
// explicitly set flags of cmd into a PipelineConfig.
func loadConfig(v *viper.Viper, cmd *cobra.Command) (types.PipelineConfig, error) {
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
	if f := cmd.Flags().Lookup("no-package"); f != nil && f.Changed {
		noPackage, _ := strconv.ParseBool(f.Value.String())
		v.Set("finish.package", !noPackage)
	}
	if f := cmd.Flags().Lookup("no-index"); f != nil && f.Changed {
		noIndex, _ := strconv.ParseBool(f.Value.String())
		v.Set("run_log.index", !noIndex)
	}

	cfg := types.DefaultPipelineConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg types.PipelineConfig) error {
	switch cfg.Converter.Backend {
	case types.BackendMineru, types.BackendMarkitdown:
	default:
		return fmt.Errorf("unsupported backend %q: use mineru or markitdown", cfg.Converter.Backend)
	}
	switch cfg.Finish.ArchivePolicy {
	case types.ArchiveAbort, types.ArchiveOverwrite:
	default:
		return fmt.Errorf("unsupported archive policy %q: use abort or overwrite", cfg.Finish.ArchivePolicy)
	}
	if cfg.Finish.ArchiveName == "" || cfg.Finish.AssetDir == "" || cfg.Finish.LegacyAssetDir == "" {
		return fmt.Errorf("archive name and asset directory names must not be empty")
	}
	if filepath.Clean(cfg.Finish.LegacyAssetDir) == filepath.Clean(cfg.Finish.AssetDir) {
		return fmt.Errorf("legacy asset directory and asset directory must differ, both are %q", cfg.Finish.AssetDir)
	}
	if cfg.RunLog.FileName == "" {
		return fmt.Errorf("run log file name must not be empty")
	}
	return nil
}

// addPipelineFlags registers the flags shared by convert and finish.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("output", "", "output root (default: output)")
	cmd.Flags().String("archive-name", "", "asset archive file name (default: assets.zip)")
	cmd.Flags().String("archive-policy", "", "when the archive already exists: abort or overwrite (default: abort)")
	cmd.Flags().Bool("no-package", false, "skip packaging assets into an archive")
	cmd.Flags().String("log-file", "", "run log file name in the output root")
	cmd.Flags().Bool("no-index", false, "do not record runs in the SQLite run index")
}

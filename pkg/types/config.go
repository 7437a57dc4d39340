package types

import "time"

// ConversionBackend identifies the external PDF conversion tool.
type ConversionBackend string

const (
	BackendMineru     ConversionBackend = "mineru"
	BackendMarkitdown ConversionBackend = "markitdown"
)

// ArchivePolicy selects what the packager does when the archive file is
// already present and there are new assets to package.
type ArchivePolicy string

const (
	// ArchiveAbort leaves the existing archive and the new assets untouched.
	ArchiveAbort ArchivePolicy = "abort"
	// ArchiveOverwrite replaces the existing archive with a fresh one.
	ArchiveOverwrite ArchivePolicy = "overwrite"
)

// ConverterConfig holds settings passed through to the external converter.
type ConverterConfig struct {
	// Backend selects the conversion tool: mineru or markitdown.
	Backend ConversionBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Executable overrides MinerU executable discovery when non-empty.
	Executable string `json:"executable,omitempty" yaml:"executable,omitempty" mapstructure:"executable"`

	// CondaPrefix is the conda environment root searched for the executable
	// and CUDA libraries (defaults to $CONDA_PREFIX).
	CondaPrefix string `json:"conda_prefix,omitempty" yaml:"conda_prefix,omitempty" mapstructure:"conda_prefix"`

	// Method is the MinerU parse method (-m), e.g. "auto", "txt", "ocr".
	Method string `json:"method" yaml:"method" mapstructure:"method"`

	// ToolBackend is the MinerU processing backend (-b), e.g. "pipeline".
	ToolBackend string `json:"tool_backend" yaml:"tool_backend" mapstructure:"tool_backend"`

	// Device is the inference device (--device), e.g. "cuda" or "cpu".
	Device string `json:"device" yaml:"device" mapstructure:"device"`

	// VisibleDevices is exported as CUDA_VISIBLE_DEVICES when non-empty.
	VisibleDevices string `json:"visible_devices" yaml:"visible_devices" mapstructure:"visible_devices"`

	// ModelSource is the model source (--source, MINERU_MODEL_SOURCE).
	ModelSource string `json:"model_source" yaml:"model_source" mapstructure:"model_source"`

	// CacheDir holds the huggingface/ and modelscope/ model caches.
	CacheDir string `json:"cache_dir" yaml:"cache_dir" mapstructure:"cache_dir"`

	// EnvDir is a directory of files whose names and contents become extra
	// environment variables for the converter.
	EnvDir string `json:"env_dir" yaml:"env_dir" mapstructure:"env_dir"`

	// Timeout bounds a single conversion. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// FinishConfig holds settings for the artifact-finishing pass.
type FinishConfig struct {
	// LegacyAssetDir is the converter's raw image directory name.
	LegacyAssetDir string `json:"legacy_asset_dir" yaml:"legacy_asset_dir" mapstructure:"legacy_asset_dir"`

	// AssetDir is the canonical asset directory name.
	AssetDir string `json:"asset_dir" yaml:"asset_dir" mapstructure:"asset_dir"`

	// ArchiveName is the file name of the asset archive.
	ArchiveName string `json:"archive_name" yaml:"archive_name" mapstructure:"archive_name"`

	// ArchivePolicy decides between abort and overwrite when ArchiveName
	// already exists.
	ArchivePolicy ArchivePolicy `json:"archive_policy" yaml:"archive_policy" mapstructure:"archive_policy"`

	// Package enables the packaging stage.
	Package bool `json:"package" yaml:"package" mapstructure:"package"`

	// PruneOrigin removes the converter's <stem>_origin.pdf copy.
	PruneOrigin bool `json:"prune_origin" yaml:"prune_origin" mapstructure:"prune_origin"`
}

// RunLogConfig holds settings for run recording.
type RunLogConfig struct {
	// FileName is the plain-text log created in the output root.
	FileName string `json:"file_name" yaml:"file_name" mapstructure:"file_name"`

	// Index enables the SQLite run index.
	Index bool `json:"index" yaml:"index" mapstructure:"index"`

	// IndexFile is the SQLite database file name in the output root.
	IndexFile string `json:"index_file" yaml:"index_file" mapstructure:"index_file"`
}

// PipelineConfig groups all settings for processing documents.
type PipelineConfig struct {
	// OutputRoot is the directory under which one directory per PDF is
	// created.
	OutputRoot string `json:"output_root" yaml:"output_root" mapstructure:"output_root"`

	// InputDir is searched for PDFs given by bare file name.
	InputDir string `json:"input_dir" yaml:"input_dir" mapstructure:"input_dir"`

	Converter ConverterConfig `json:"converter" yaml:"converter" mapstructure:"converter"`
	Finish    FinishConfig    `json:"finish" yaml:"finish" mapstructure:"finish"`
	RunLog    RunLogConfig    `json:"run_log" yaml:"run_log" mapstructure:"run_log"`
}

// DefaultPipelineConfig returns the settings used when no config file or
// flag overrides them.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		OutputRoot: "output",
		InputDir:   "input",
		Converter: ConverterConfig{
			Backend:        BackendMineru,
			Method:         "auto",
			ToolBackend:    "pipeline",
			Device:         "cuda",
			VisibleDevices: "0",
			ModelSource:    "local",
			CacheDir:       ".cache",
			EnvDir:         ".env.d",
		},
		Finish: FinishConfig{
			LegacyAssetDir: "images",
			AssetDir:       "assets",
			ArchiveName:    "assets.zip",
			ArchivePolicy:  ArchiveAbort,
			Package:        true,
			PruneOrigin:    true,
		},
		RunLog: RunLogConfig{
			FileName:  "Changing Description.txt",
			Index:     true,
			IndexFile: "runs.db",
		},
	}
}

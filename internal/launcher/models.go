// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package launcher

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// probeModel is a file every MinerU pipeline model directory contains.
var probeModel = filepath.Join("MFD", "YOLO", "yolo_v8_ft.pt")

// ModelStatus describes what CheckModels found.
type ModelStatus struct {
	// ConfigPath is the mineru.json file that was read.
	ConfigPath string

	// ConfigFound is false when mineru.json does not exist.
	ConfigFound bool

	// ModelsDir is the configured pipeline model directory.
	ModelsDir string

	// Expected is where the probe model should be.
	Expected string

	// Found reports whether the probe model exists at Expected.
	Found bool

	// Misplaced is set when the probe model exists one level up, which
	// means models-dir already points at the models/ directory.
	Misplaced string
}

type mineruConfig struct {
	ModelsDir map[string]string `json:"models-dir"`
}

// CheckModels reads <home>/mineru.json and checks that the pipeline model
// directory it names contains the expected model files. A missing config
// file is not an error.
func CheckModels(home string) (ModelStatus, error) {
	st := ModelStatus{ConfigPath: filepath.Join(home, "mineru.json")}

	data, err := os.ReadFile(st.ConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("reading %s: %w", st.ConfigPath, err)
	}
	st.ConfigFound = true

	var cfg mineruConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return st, fmt.Errorf("parsing %s: %w", st.ConfigPath, err)
	}
	st.ModelsDir = cfg.ModelsDir["pipeline"]
	if st.ModelsDir == "" {
		return st, nil
	}

	st.Expected = filepath.Join(st.ModelsDir, "models", probeModel)
	if _, err := os.Stat(st.Expected); err == nil {
		st.Found = true
		return st, nil
	}
	alt := filepath.Join(st.ModelsDir, probeModel)
	if _, err := os.Stat(alt); err == nil {
		st.Misplaced = alt
	}
	return st, nil
}

// Report writes a short human-readable summary of st to w.
func (st ModelStatus) Report(w io.Writer) {
	switch {
	case !st.ConfigFound:
		fmt.Fprintf(w, "model check: %s not found\n", st.ConfigPath)
	case st.ModelsDir == "":
		fmt.Fprintf(w, "model check: no pipeline models-dir in %s\n", st.ConfigPath)
	case st.Found:
		fmt.Fprintf(w, "model check: [OK] %s\n", st.Expected)
	case st.Misplaced != "":
		fmt.Fprintf(w, "model check: [ERROR] model not at %s\n", st.Expected)
		fmt.Fprintf(w, "model check: [INFO] found at %s, models-dir may already include models/\n", st.Misplaced)
	default:
		fmt.Fprintf(w, "model check: [ERROR] model not found under %s\n", st.ModelsDir)
	}
}

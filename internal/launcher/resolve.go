// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package launcher

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
)

// host abstracts the filesystem and PATH lookups used during discovery.
type host struct {
	goos     string
	exists   func(path string) bool
	glob     func(pattern string) ([]string, error)
	lookPath func(file string) (string, error)
}

var defaultHost = host{
	goos: runtime.GOOS,
	exists: func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	},
	glob:     filepath.Glob,
	lookPath: exec.LookPath,
}

// ResolveTool finds the command used to start a Python console tool such
// as mineru. It checks the conda environment first, then PATH, and finally
// falls back to running the module through a Python interpreter.
func ResolveTool(name, condaPrefix string) []string {
	return defaultHost.resolveTool(name, condaPrefix)
}

func (h host) resolveTool(name, condaPrefix string) []string {
	if condaPrefix != "" {
		var candidate string
		if h.goos == "windows" {
			candidate = filepath.Join(condaPrefix, "Scripts", name+".exe")
		} else {
			candidate = filepath.Join(condaPrefix, "bin", name)
		}
		if h.exists(candidate) {
			return []string{candidate}
		}
	}

	if p, err := h.lookPath(name); err == nil {
		return []string{p}
	}

	python := "python"
	for _, candidate := range []string{"python3", "python"} {
		if p, err := h.lookPath(candidate); err == nil {
			python = p
			break
		}
	}
	return []string{python, "-m", name}
}

// CUDALibraryDirs returns the NVIDIA cuDNN and cuBLAS library directories
// installed as Python wheels in the conda environment, keyed by the
// variable the dynamic loader searches: PATH on Windows, LD_LIBRARY_PATH
// elsewhere. Directories that do not exist are omitted.
func CUDALibraryDirs(condaPrefix string) map[string][]string {
	return defaultHost.cudaLibraryDirs(condaPrefix)
}

func (h host) cudaLibraryDirs(condaPrefix string) map[string][]string {
	if condaPrefix == "" {
		return nil
	}

	var (
		sitePackages []string
		variable     string
		leaf         string
	)
	if h.goos == "windows" {
		sitePackages = []string{filepath.Join(condaPrefix, "Lib", "site-packages")}
		variable, leaf = "PATH", "bin"
	} else {
		matches, _ := h.glob(filepath.Join(condaPrefix, "lib", "python3*", "site-packages"))
		sort.Strings(matches)
		sitePackages = matches
		variable, leaf = "LD_LIBRARY_PATH", "lib"
	}

	var dirs []string
	for _, sp := range sitePackages {
		for _, lib := range []string{"cudnn", "cublas"} {
			d := filepath.Join(sp, "nvidia", lib, leaf)
			if h.exists(d) {
				dirs = append(dirs, d)
			}
		}
	}
	if len(dirs) == 0 {
		return nil
	}
	return map[string][]string{variable: dirs}
}

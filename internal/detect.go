package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	appDirName  = "voicechat"
	stateDBName = "state.db"
	envFileName = ".env"
)

// DataPaths holds the on-disk locations used by the client
type DataPaths struct {
	BaseDir string // directory holding the state database and optional .env
}

// DetectDataPaths resolves the data directory. A non-empty override wins;
// otherwise the platform's conventional per-user data location is used.
func DetectDataPaths(override string) (DataPaths, error) {
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return DataPaths{}, fmt.Errorf("failed to resolve data directory: %w", err)
		}
		return DataPaths{BaseDir: abs}, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return DataPaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var base string
	switch runtime.GOOS {
	case "darwin":
		base = filepath.Join(home, "Library/Application Support", appDirName)
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = filepath.Join(xdg, appDirName)
		} else {
			base = filepath.Join(home, ".local/share", appDirName)
		}
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			base = filepath.Join(appData, appDirName)
		} else {
			base = filepath.Join(home, "AppData", "Roaming", appDirName)
		}
	default:
		return DataPaths{}, fmt.Errorf("unsupported OS: %s (set VOICECHAT_DATA_DIR)", runtime.GOOS)
	}

	return DataPaths{BaseDir: base}, nil
}

// StateDBPath returns the path to the SQLite state database
func (p DataPaths) StateDBPath() string {
	return filepath.Join(p.BaseDir, stateDBName)
}

// EnvFilePath returns the path of the optional per-user .env file
func (p DataPaths) EnvFilePath() string {
	return filepath.Join(p.BaseDir, envFileName)
}

// StateDBExists checks if the state database has been created yet
func (p DataPaths) StateDBExists() bool {
	_, err := os.Stat(p.StateDBPath())
	return err == nil
}

// Package sqlitepath locates the embedded SQLite database shared by the
// sqlite vector store and the transcript store.
package sqlitepath

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/docent/pkg/dotdir"
)

// FileName is the database file created inside the .docent/ directory.
const FileName = "docent.db"

// EnvVar overrides every other lookup except an explicit path.
const EnvVar = "DOCENT_SQLITE"

// ResolveSQLitePath returns, in order: the override, $DOCENT_SQLITE, the first
// existing well-known database file, or a fresh path inside the .docent/
// directory selected by configDir.
func ResolveSQLitePath(override, configDir string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv(EnvVar)); envPath != "" {
		return envPath, nil
	}

	if configDir == "" {
		for _, candidate := range sqliteCandidates() {
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

func sqliteCandidates() []string {
	candidates := []string{
		FileName,
		filepath.Join(".docent", FileName),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".docent", FileName))
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append(candidates, filepath.Join(xdgHome, "docent", FileName))
	}

	return candidates
}

// Package manifest reads and writes episode manifest files under a base
// directory. Every episode ID and file path is validated before it
// touches the filesystem; validation failures are fatal to the request.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/briefcast/briefcast/internal/models"
	"github.com/briefcast/briefcast/internal/validate"
)

const manifestSuffix = "_manifest.json"

// Store manages manifests under one base directory.
type Store struct {
	baseDir string
}

// NewStore creates a manifest store rooted at baseDir, creating the
// directory if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create manifest dir %q: %w", baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) path(episodeID string) (string, error) {
	id, err := validate.Identifier(episodeID, validate.KindEpisode)
	if err != nil {
		return "", err
	}
	name, err := validate.SafeFilename(id + manifestSuffix)
	if err != nil {
		return "", err
	}
	return validate.SafePathJoin(s.baseDir, name)
}

// Save writes the manifest atomically (temp file plus rename).
func (s *Store) Save(m models.EpisodeManifest) error {
	path, err := s.path(m.EpisodeID)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest %s: %w", m.EpisodeID, err)
	}

	tmp, err := os.CreateTemp(s.baseDir, ".manifest-*")
	if err != nil {
		return fmt.Errorf("write manifest %s: %w", m.EpisodeID, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write manifest %s: %w", m.EpisodeID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write manifest %s: %w", m.EpisodeID, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write manifest %s: %w", m.EpisodeID, err)
	}
	return nil
}

// Load reads the manifest for episodeID.
func (s *Store) Load(episodeID string) (models.EpisodeManifest, error) {
	var m models.EpisodeManifest

	path, err := s.path(episodeID)
	if err != nil {
		return m, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read manifest %s: %w", episodeID, err)
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("parse manifest %s: %w", episodeID, err)
	}
	return m, nil
}

// Scan lists the episode IDs of every manifest in the base directory.
// Files that do not follow the naming convention are ignored.
func (s *Store) Scan() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("scan manifests: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, manifestSuffix) {
			continue
		}
		id := strings.TrimSuffix(name, manifestSuffix)
		if _, err := validate.Identifier(id, validate.KindEpisode); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Dir returns the store's base directory.
func (s *Store) Dir() string {
	return filepath.Clean(s.baseDir)
}

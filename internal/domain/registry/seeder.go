package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/logging"
)

// Seeder loads extra application manifests from disk
type Seeder struct {
	manager *Manager
	appsDir string
	logger  *logging.Logger
}

// SeedResult summarizes one seeding pass
type SeedResult struct {
	Loaded int
	Failed int
}

// NewSeeder creates a new app seeder
func NewSeeder(manager *Manager, appsDir string, logger *logging.Logger) *Seeder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Seeder{
		manager: manager,
		appsDir: appsDir,
		logger:  logger.Component("seeder"),
	}
}

// SeedApps registers every *.yaml or *.yml manifest under the apps directory.
// A missing directory is not an error. A malformed manifest is logged and
// counted but does not stop the walk.
func (s *Seeder) SeedApps() (SeedResult, error) {
	if s.appsDir == "" {
		return SeedResult{}, nil
	}
	if _, err := os.Stat(s.appsDir); errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Apps directory not found", zap.String("dir", s.appsDir))
		return SeedResult{}, nil
	}

	s.logger.Info("Seeding apps", zap.String("dir", s.appsDir))

	var loaded, failed atomic.Int64
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, s.appsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isManifest(d.Name()) {
			return nil
		}

		if err := s.loadManifest(path); err != nil {
			s.logger.Warn("Failed to load manifest", zap.String("file", d.Name()), zap.Error(err))
			failed.Add(1)
		} else {
			s.logger.Debug("Loaded manifest", zap.String("file", d.Name()))
			loaded.Add(1)
		}
		return nil
	})

	result := SeedResult{Loaded: int(loaded.Load()), Failed: int(failed.Load())}
	if err != nil {
		return result, fmt.Errorf("failed to walk %s: %w", s.appsDir, err)
	}

	s.logger.Info("Seeding complete", zap.Int("loaded", result.Loaded), zap.Int("failed", result.Failed))
	return result, nil
}

func (s *Seeder) loadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var spec entrySpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return err
	}
	entry, err := spec.entry()
	if err != nil {
		return err
	}

	s.manager.Register(entry)
	return nil
}

func isManifest(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

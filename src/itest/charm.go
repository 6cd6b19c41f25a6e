package itest

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/canonical/loki-tester/src/config"
	"github.com/canonical/loki-tester/src/util"
)

// OCIImage returns the upstream source of an image resource declared in a
// metadata.yaml file.
func OCIImage(metadataFile, image string) (string, error) {
	meta, err := config.ReadCharmMetaFile(metadataFile)
	if err != nil {
		return "", err
	}

	if len(meta.Resources) == 0 {
		return "", errors.New("No resources found")
	}

	resource, ok := meta.Resources[image]
	if !ok {
		return "", errors.Errorf("%s image not found", image)
	}

	if resource.UpstreamSource == "" {
		return "", errors.New("Upstream source not found")
	}

	return resource.UpstreamSource, nil
}

var packedCharm = regexp.MustCompile(`(?m)Packed (\S+\.charm)`)

// CharmBuilder packs charms with charmcraft, once per directory.
type CharmBuilder struct {
	run    util.CommandRunner
	logger zerolog.Logger

	mu    sync.Mutex
	built map[string]string
}

func NewCharmBuilder(run util.CommandRunner, logger *zerolog.Logger) *CharmBuilder {
	if run == nil {
		run = util.RunCommand
	}
	return &CharmBuilder{
		run:    run,
		logger: logger.With().Str("component", "CharmBuilder").Logger(),
		built:  map[string]string{},
	}
}

// Build returns the path of the packed charm in dir. If the environment
// variable env names an existing file, that is used instead.
func (self *CharmBuilder) Build(ctx context.Context, dir, env string) (string, error) {
	if prebuilt := config.GetenvStr(env); prebuilt != "" {
		if _, err := os.Stat(prebuilt); err != nil {
			return "", errors.WithMessagef(err, "%s points to a missing charm", env)
		}
		return prebuilt, nil
	}

	self.mu.Lock()
	defer self.mu.Unlock()

	if path, ok := self.built[dir]; ok {
		return path, nil
	}

	self.logger.Info().Str("dir", dir).Msg("Packing charm")

	out, err := self.run(ctx, nil, "charmcraft", "pack", "--project-dir", dir)
	if err != nil {
		return "", errors.WithMessagef(err, "While packing charm in %s", dir)
	}

	path, err := packedPath(out, dir)
	if err != nil {
		return "", err
	}

	self.built[dir] = path
	return path, nil
}

func packedPath(output []byte, dir string) (string, error) {
	if m := packedCharm.FindSubmatch(output); m != nil {
		path := string(m[1])
		if !filepath.IsAbs(path) {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
		}
		return path, nil
	}

	// charmcraft writes its progress to stderr, so fall back to looking
	// for the artifact.
	matches, err := filepath.Glob(filepath.Join(dir, "*.charm"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		if matches, err = filepath.Glob("*.charm"); err != nil {
			return "", err
		}
	}
	if len(matches) == 0 {
		return "", errors.Errorf("No packed charm found for %s", dir)
	}

	path, err := filepath.Abs(matches[len(matches)-1])
	return path, err
}

// Package overlay swaps a project's package.json for its merged form while
// the build tool runs, and always puts the original back.
//
// A run moves through these stages, stopping at the first failure:
//
//	load and validate -> pre ops -> swap -> invoke -> restore -> post ops
//
// Nothing in the project is touched before the swap. From the swap on, the
// original manifest lives in types.BackupFile and the restore is deferred, so
// it runs whether the build tool succeeds, fails or is interrupted.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/esyr/internal/cache"
	"github.com/mesh-intelligence/esyr/internal/esy"
	"github.com/mesh-intelligence/esyr/internal/manifest"
	"github.com/mesh-intelligence/esyr/internal/ops"
	"github.com/mesh-intelligence/esyr/pkg/types"
)

// Pipeline runs the build tool against the merged manifest of one project.
type Pipeline struct {
	fs       billy.Filesystem
	resolver manifest.Resolver
	cache    *cache.Cache
	tool     esy.Runner
	ops      *ops.Runner
	log      *zap.Logger
}

// New creates a Pipeline for the project rooted at fs. The cache is
// checkpointed once the manifest is loaded; it may be nil.
func New(fs billy.Filesystem, r manifest.Resolver, c *cache.Cache, tool esy.Runner, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		fs:       fs,
		resolver: r,
		cache:    c,
		tool:     tool,
		ops:      ops.NewRunner(fs, log),
		log:      log,
	}
}

// Ops returns the operation runner bound to the project root.
func (p *Pipeline) Ops() *ops.Runner { return p.ops }

// Load reads, merges and validates the project manifest. It reports
// missing metadata as warnings and checkpoints the fetch cache.
func (p *Pipeline) Load(ctx context.Context) (*types.Manifest, error) {
	m, err := manifest.LoadMerged(ctx, p.fs, p.resolver)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if _, err := p.fs.Stat(m.Main); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", types.ErrMainNotFound, m.Main)
		}
		return nil, err
	}
	for _, advice := range m.Advisories() {
		p.log.Warn(advice)
	}
	if p.cache != nil {
		p.cache.Save(ctx)
	}
	return m, nil
}

// Run executes the esyr command argv[0] and passes argv to the build tool.
// The returned code is the build tool's exit code; err is set only when
// esyr itself failed. Post operations run once the original manifest is
// back, whatever the build tool's exit code.
func (p *Pipeline) Run(ctx context.Context, argv []string) (int, error) {
	m, err := p.Load(ctx)
	if err != nil {
		return 0, err
	}
	var seq types.OperationList
	if len(argv) > 0 {
		seq, _ = m.Commands(argv[0])
	}
	before, after := ops.Split(seq)

	if err := p.ops.Run(ctx, before, m); err != nil {
		return 0, err
	}
	code, err := p.invoke(ctx, m, argv)
	if err != nil {
		return code, err
	}
	if err := p.ops.Run(ctx, after, m); err != nil {
		if code != 0 {
			// The build tool's own failure is the one reported.
			p.log.Warn("post operation failed after failed build", zap.Int("code", code), zap.Error(err))
			return code, nil
		}
		return code, err
	}
	return code, nil
}

func (p *Pipeline) invoke(ctx context.Context, m *types.Manifest, argv []string) (code int, err error) {
	if err := p.Swap(m); err != nil {
		return 0, err
	}
	defer func() {
		if rerr := p.Clean(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()
	p.log.Debug("invoking build tool", zap.Strings("argv", argv))
	return p.tool.Run(ctx, argv)
}

// Swap moves package.json aside and writes m in its place. An existing
// backup means an earlier run did not restore, so Swap refuses to proceed.
func (p *Pipeline) Swap(m *types.Manifest) error {
	if _, err := p.fs.Stat(types.BackupFile); err == nil {
		return types.ErrBackupExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := p.fs.Rename(types.ManifestFile, types.BackupFile); err != nil {
		return fmt.Errorf("backing up %s: %w", types.ManifestFile, err)
	}
	if err := manifest.Write(p.fs, types.ManifestFile, m); err != nil {
		werr := fmt.Errorf("writing merged %s: %w", types.ManifestFile, err)
		if rerr := p.Clean(); rerr != nil {
			return errors.Join(werr, rerr)
		}
		return werr
	}
	p.log.Debug("swapped in merged manifest")
	return nil
}

// Clean restores the original package.json from its backup. Without a
// backup there is nothing to restore and Clean succeeds.
func (p *Pipeline) Clean() error {
	if _, err := p.fs.Stat(types.BackupFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &types.RestoreError{Backup: types.BackupFile, Err: err}
	}
	if err := p.fs.Rename(types.BackupFile, types.ManifestFile); err != nil {
		return &types.RestoreError{Backup: types.BackupFile, Err: err}
	}
	p.log.Debug("restored original manifest")
	return nil
}

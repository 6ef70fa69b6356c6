package cli

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/esyr/internal/cache"
	"github.com/mesh-intelligence/esyr/internal/esy"
	"github.com/mesh-intelligence/esyr/internal/overlay"
	"github.com/mesh-intelligence/esyr/internal/paths"
	"github.com/mesh-intelligence/esyr/internal/remote"
)

// project is the located project root with the pipeline bound to it.
type project struct {
	root     string
	fs       billy.Filesystem
	pipeline *overlay.Pipeline
}

// openProject finds the project root above the working directory, makes it
// the working directory and wires the pipeline for it. Nothing in the
// project is modified.
func (a *app) openProject(cmd *cobra.Command) (*project, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := paths.FindRoot(wd)
	if err != nil {
		return nil, err
	}
	if err := os.Chdir(root); err != nil {
		return nil, fmt.Errorf("chdir %s: %w", root, err)
	}

	log := a.log.With(zap.String("run", uuid.NewString()))
	log.Debug("found project root", zap.String("root", root))

	store, err := cache.OpenStore(a.cfg)
	if err != nil {
		return nil, err
	}
	c := cache.New(store, log)
	resolver := remote.NewResolver(c, nil, log)

	fs := osfs.New(root)
	return &project{
		root:     root,
		fs:       fs,
		pipeline: overlay.New(fs, resolver, c, a.tool(cmd, root), log),
	}, nil
}

// tool returns the build tool runner for dir, sharing the command's stdio.
func (a *app) tool(cmd *cobra.Command, dir string) *esy.ExecRunner {
	return &esy.ExecRunner{
		Path:   a.cfg.EsyPath,
		Dir:    dir,
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
}

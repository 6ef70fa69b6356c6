// Package ops runs the local generation operations declared in a manifest's
// esyr command sequences.
package ops

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/esyr/pkg/types"
)

// Runner executes operation sequences against a project root.
type Runner struct {
	fs  billy.Filesystem
	log *zap.Logger
}

// NewRunner creates a Runner over fs, which must be rooted at the project
// root. A nil logger discards output.
func NewRunner(fs billy.Filesystem, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{fs: fs, log: log}
}

// Split divides a sequence at its esy marker into the operations run before
// and after the build tool.
func Split(seq types.OperationList) (before, after types.OperationList) {
	return seq.Split()
}

// Run executes ops in order. Unrecognized descriptors are reported and
// skipped; an esy marker inside a half is ignored. The first failing
// operation stops the sequence.
func (r *Runner) Run(ctx context.Context, seq types.OperationList, m *types.Manifest) error {
	for _, op := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch op := op.(type) {
		case types.MkDunes:
			err = r.MkDunes(m, op.Args)
		case types.MvExe:
			err = r.MvExe(m, op.Dest)
		case types.EsySentinel:
		case types.Unrecognized:
			r.log.Warn("no operation for descriptor", zap.Stringer("op", op))
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op.Raw(), err)
		}
	}
	return nil
}

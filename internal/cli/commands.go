package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/esyr/internal/ops"
	"github.com/mesh-intelligence/esyr/internal/paths"
	"github.com/mesh-intelligence/esyr/pkg/types"
)

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Clean up files which were generated by esyr",
		Long:  "Restore the original package.json left behind by an interrupted run.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := a.openProject(cmd)
			if err != nil {
				return err
			}
			return proj.pipeline.Clean()
		},
	}
}

func newGitignoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "gitignore",
		Short: "Propose possible content of a .gitignore file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := a.openProject(cmd)
			if err != nil {
				return err
			}
			m, err := proj.pipeline.Load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ops.GitignoreLines(m), "\n"))
			return nil
		},
	}
}

func newMkDunesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdunes [--version N]",
		Short: "Generate files for dune/jbuilder",
		// --version belongs to the generator, not to cobra.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := a.openProject(cmd)
			if err != nil {
				return err
			}
			m, err := proj.pipeline.Load(cmd.Context())
			if err != nil {
				return err
			}
			return proj.pipeline.Ops().MkDunes(m, args)
		},
	}
}

func newEsyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:                "esy [args...]",
		Short:              "Direct invocation of esy, no package.json overlay",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			dir, err := paths.FindRoot(wd)
			if errors.Is(err, types.ErrNoProject) {
				dir = wd
			} else if err != nil {
				return err
			}
			code, err := a.tool(cmd, dir).Run(cmd.Context(), args)
			if err != nil {
				return err
			}
			if code != exitSuccess {
				return &exitCodeError{code: code}
			}
			return nil
		},
	}
}

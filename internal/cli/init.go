package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/esyr/pkg/types"
)

// DefaultExtends is the base every new project inherits from.
const DefaultExtends = "https://raw.githubusercontent.com/cjdelisle/esyr/1.0.0/package-json-prototypes/default-reason.json"

const initBanner = `This utility will walk you through creating a package.json for
a native ReasonML/OCaml esy project.

See https://esy.sh/docs/en/configuration.html for esy specific
extensions to the esy package.json format.

Use ` + "`esyr install <pkg> --save`" + ` afterwards to install a package
and save it as a dependency in the package.json file.

Press ^C at any time to quit.
`

var errAborted = errors.New("aborted")

// question is one prompt of the init wizard. apply returns a complaint when
// the answer is unacceptable, in which case the question is asked again.
type question struct {
	label string
	def   string
	apply func(answer string) string
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a package.json for a new esy project",
		Long:  "npm init-like wizard that writes a package.json inheriting the default esyr configuration.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, initBanner)

	in := bufio.NewReader(cmd.InOrStdin())
	m, err := askManifest(in, out, filepath.Base(wd))
	if errors.Is(err, errAborted) {
		fmt.Fprintln(out, "Aborted")
		return nil
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "About to write to %s:\n\n%s\n\n\n", filepath.Join(wd, types.ManifestFile), data)
	answer, err := ask(in, out, "Is this ok? (yes)")
	if err != nil || (answer != "" && strings.ToLower(answer) != "yes") {
		fmt.Fprintln(out, "Aborted")
		return nil
	}
	return util.WriteFile(osfs.New(wd), types.ManifestFile, data, 0o644)
}

// askManifest runs the wizard questions and returns the resulting manifest.
func askManifest(in *bufio.Reader, out io.Writer, dirName string) (*types.Manifest, error) {
	m := &types.Manifest{Esyr: &types.EsyrSection{Extends: DefaultExtends}}
	complain := func(err error) string {
		if err == nil {
			return ""
		}
		return "Sorry, " + err.Error() + "."
	}
	questions := []question{
		{"name", dirName, func(s string) string {
			if err := types.ValidateName(s); err != nil {
				return complain(err)
			}
			m.Name = s
			return ""
		}},
		{"version", "1.0.0", func(s string) string {
			if err := types.ValidateVersion(s); err != nil {
				return "Invalid version"
			}
			m.Version = s
			return ""
		}},
		{"description", "", func(s string) string {
			m.Description = s
			return ""
		}},
		{"entry point", "Main.re", func(s string) string {
			if err := types.ValidateEntryPoint(s); err != nil {
				return complain(err)
			}
			m.Main = s
			return ""
		}},
		{"git repository", "", func(s string) string {
			if s != "" {
				m.SetRepository(s)
			}
			return ""
		}},
		{"keywords", "", func(s string) string {
			if s != "" {
				m.Keywords = strings.Split(s, " ")
			}
			return ""
		}},
		{"author", "", func(s string) string {
			if s != "" {
				m.Extra = map[string]any{"author": s}
			}
			return ""
		}},
		{"license", "ISC", func(s string) string {
			if err := types.ValidateLicense(s); err != nil {
				return complain(err)
			}
			m.License = s
			return ""
		}},
	}

	for _, q := range questions {
		prompt := q.label + ":"
		if q.def != "" {
			prompt += " (" + q.def + ")"
		}
		for {
			answer, err := ask(in, out, prompt)
			if err != nil {
				return nil, err
			}
			if answer == "" {
				answer = q.def
			}
			complaint := q.apply(answer)
			if complaint == "" {
				break
			}
			fmt.Fprintln(out, complaint)
		}
	}
	return m, nil
}

// ask prints prompt and reads one line. Running out of input aborts the
// wizard.
func ask(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt+" ")
	line, err := in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return "", errAborted
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/dispatch"
)

// FunctionSignatures lists the signatures registered under one name.
type FunctionSignatures struct {
	Name       string   `json:"name"`
	Signatures []string `json:"signatures"`
}

// TypesResult describes the installed registry.
type TypesResult struct {
	Types     []string             `json:"types"`
	Functions []FunctionSignatures `json:"functions"`
}

// WriteText prints the type list followed by one line per signature.
func (r TypesResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Types: %s\n\n", strings.Join(r.Types, ", "))
	for _, fn := range r.Functions {
		for _, sig := range fn.Signatures {
			if _, err := fmt.Fprintf(w, "%s(%s)\n", fn.Name, sig); err != nil {
				return err
			}
		}
	}
	return nil
}

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types [type...]",
		Short: "List registered types and operator signatures",
		Long: `List the types known to the dispatch registry and every operator
signature installed by the temporal extension.

With type names, checks that each is registered and lists only the
signatures that mention one of them.

Examples:
  tempo types
  tempo types Duration
  tempo types --format json`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(rootOpts, cmd, args)
		},
	}
	return cmd
}

func runTypes(opts *RootOptions, cmd *cobra.Command, names []string) error {
	reg, err := opts.newRegistry(nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to install temporal types", err)
	}

	var want []dispatch.TypeName
	var missing []string
	for _, n := range names {
		if !reg.HasType(dispatch.TypeName(n)) {
			missing = append(missing, n)
			continue
		}
		want = append(want, dispatch.TypeName(n))
	}
	if len(missing) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("type not registered: %s", strings.Join(missing, ", ")))
	}

	result := TypesResult{Functions: []FunctionSignatures{}}
	for _, t := range reg.Types() {
		if len(want) == 0 || slices.Contains(want, t) {
			result.Types = append(result.Types, string(t))
		}
	}
	for _, name := range reg.Functions() {
		fn := FunctionSignatures{Name: name, Signatures: []string{}}
		for _, sig := range reg.Signatures(name) {
			if len(want) > 0 && !slices.ContainsFunc(sig, func(t dispatch.TypeName) bool {
				return slices.Contains(want, t)
			}) {
				continue
			}
			fn.Signatures = append(fn.Signatures, sig.String())
		}
		if len(fn.Signatures) > 0 {
			result.Functions = append(result.Functions, fn)
		}
	}
	return opts.formatter(cmd).Success(result)
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// methods get their own subcommands so "ht post URL" reads naturally and
// shows up in help and completion. Any other method works positionally.
var methods = []string{"get", "post", "put", "patch", "delete", "head", "options"}

func newMethodCmd(a *app, method string) *cobra.Command {
	upper := strings.ToUpper(method)
	return &cobra.Command{
		Use:     method + " URL [ITEM...]",
		Aliases: []string{upper},
		Short:   fmt.Sprintf("Send a %s request", upper),
		Args:    usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRequest(cmd.Context(), upper, args[0], args[1:])
		},
	}
}

// usageArgs turns argument validation failures into usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return newUsageError(err)
		}
		return nil
	}
}

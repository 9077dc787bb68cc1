// Package check implements "credguard check": show the verdict the guard
// reaches for each path, without opening anything.
package check

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/z0rr0/credguard/guard"
)

// Command creates the check subcommand for the guard returned by g.
func Command(g func() *guard.Guard) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check path...",
		Short: "Print whether each path would be allowed or denied",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gd := g()
			slog.Debug("guarded directory", "dir", gd.Dir())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range args {
				p := gd.Probe(unix.AT_FDCWD, []byte(name))
				if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", gd.Judge(p), name, p.Canonical); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}
	return cmd
}

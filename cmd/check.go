package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sap-gg/commaslash/internal/fetch"
	"github.com/sap-gg/commaslash/internal/logging"
	"github.com/sap-gg/commaslash/internal/platform"
	"github.com/sap-gg/commaslash/internal/spec"
)

var checkFlags = struct {
	fetch bool
}{}

// checkCmd represents the check command.
// It resolves specs exactly like generate but only reports them.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validates specs and prints what a generated script would install.",
	Long: `The check command resolves specs from the same sources as generate and prints a
per-platform summary. With --fetch it also downloads every archive, verifying its
size, checksum and that it contains the executable.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindTargetFlags(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := resolveTargets(cmd.Context())
		if err != nil {
			return err
		}
		out := logging.NewRedactingWriter(cmd.OutOrStdout(), resolved.SensitiveValues())
		printCheckReport(out, resolved)

		if !checkFlags.fetch {
			return nil
		}
		verifier, err := fetch.NewVerifier()
		if err != nil {
			return err
		}
		failed := 0
		for _, p := range resolved.Platforms() {
			ts, _ := resolved.Get(p)
			if err := verifier.Verify(cmd.Context(), ts); err != nil {
				failed++
				_, _ = color.New(color.FgRed).Fprintf(out, "! %s: %v\n", p, err)
				continue
			}
			_, _ = color.New(color.FgGreen).Fprintf(out, "✓ %s: archive verified\n", p)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d archives failed verification", failed, resolved.Len())
		}
		log.Info().Int("count", resolved.Len()).Msg("all archives verified")
		return nil
	},
}

func printCheckReport(w io.Writer, resolved *spec.Resolved) {
	host, hostKnown := platform.Host()
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	faint := color.New(color.Faint)

	for _, p := range platform.All() {
		ts, ok := resolved.Get(p)
		if !ok {
			_, _ = yellow.Fprintf(w, "- %s (%s): no spec, the script will reject this platform\n", p, p.Uname())
			continue
		}

		suffix := ""
		if hostKnown && p == host {
			suffix = " [host]"
		}
		_, _ = green.Fprintf(w, "+ %s (%s)%s\n", p, p.Uname(), suffix)
		for _, row := range [][2]string{
			{"url", ts.URL},
			{"format", ts.Format.String()},
			{"size", fmt.Sprint(ts.Size)},
			{"sha256", ts.Digest.String()},
			{"path", ts.Path.String()},
			{"tools", fmt.Sprintf("%s, %s, %s, curl", ts.Format.Command(), p.OS().Checksummer(), p.OS().Locker())},
		} {
			_, _ = faint.Fprintf(w, "    %-7s", row[0]+":")
			_, _ = fmt.Fprintln(w, row[1])
		}
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)

	addTargetFlags(checkCmd)
	checkCmd.Flags().BoolVar(&checkFlags.fetch, "fetch", false,
		"download every archive and verify it")
}

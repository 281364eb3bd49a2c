package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sap-gg/commaslash/internal"
	"github.com/sap-gg/commaslash/internal/gen"
)

const OutputKey = "output"

// stdoutPath selects standard output instead of a file.
const stdoutPath = "-"

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Generates the install-and-exec script.",
	Long:    generateLongDescription,
	Example: generateExample,
	Args:    cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindTargetFlags(cmd); err != nil {
			return err
		}
		return viper.BindPFlag(OutputKey, cmd.Flags().Lookup("output"))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := resolveTargets(cmd.Context())
		if err != nil {
			return err
		}

		script, err := gen.Generate(resolved)
		if err != nil {
			return fmt.Errorf("generating script: %w", err)
		}

		output := viper.GetString(OutputKey)
		if output == "" {
			if output, err = resolved.ExeName(); err != nil {
				return err
			}
		}

		if err := writeScript(cmd.OutOrStdout(), output, script); err != nil {
			return err
		}
		if output != stdoutPath {
			log.Info().
				Str("path", output).
				Int("platforms", resolved.Len()).
				Msg("script written")
		}
		return nil
	},
}

// writeScript writes script to stdout when path is "-", else to an executable file at path.
// The file is written next to its destination and renamed into place.
func writeScript(stdout io.Writer, path, script string) error {
	if path == stdoutPath {
		_, err := io.WriteString(stdout, script)
		return err
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), "."+internal.ToolName+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file for script: %w", err)
	}
	defer os.Remove(tmpFile.Name()) // clean up if it didn't get moved
	defer tmpFile.Close()

	if _, err := io.WriteString(tmpFile, script); err != nil {
		return fmt.Errorf("writing script: %w", err)
	}
	if err := tmpFile.Chmod(0o755); err != nil {
		return fmt.Errorf("making script executable: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing script: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), path); err != nil {
		return fmt.Errorf("moving script to %q: %w", path, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addTargetFlags(generateCmd)
	generateCmd.Flags().StringP("output", "o", "",
		"where to write the script, - for stdout (defaults to the executable's file name)")
}

const (
	generateLongDescription = `The generate command writes a POSIX shell script that runs a prebuilt executable.

Specs are given per platform as whitespace-separated key=value items:

  url     where to download the archive (.zip)
  size    archive size in bytes
  sha256  archive checksum, 64 hex characters
  path    the executable's path inside the archive

They come from the per-platform flags, COMMASLASH_SPECS_<PLATFORM> environment
variables, the specs section of the config file, or a manifest. A flag wins over
an environment variable, which wins over the config file, which wins over the manifest.

The script execs an already installed copy when it finds one. Otherwise it downloads
the archive, checks its size and checksum, extracts it into a staging directory and
publishes it with a single rename under <cache>/commaslash/<sha256>, so any number of
concurrent runs is safe.`

	generateExample = `
# Linux and macOS launcher written to ./tool
commaslash generate \
  --linux-x86_64='url=https://example.com/tool-linux.zip size=1024 sha256=... path=bin/tool' \
  --macos-aarch64='url=https://example.com/tool-mac.zip size=1000 sha256=... path=bin/tool'

# from a manifest, to stdout
commaslash generate --manifest commaslash.yaml --output -`
)

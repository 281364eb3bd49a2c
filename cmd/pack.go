package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sap-gg/commaslash/internal/archive"
	"github.com/sap-gg/commaslash/internal/digest"
	"github.com/sap-gg/commaslash/internal/fetch"
	"github.com/sap-gg/commaslash/internal/relpath"
	"github.com/sap-gg/commaslash/internal/spec"
)

var packFlags = struct {
	exe     string
	url     string
	outPath string
}{}

// packCmd represents the pack command
var packCmd = &cobra.Command{
	Use:     "pack <dir>",
	Short:   "Zips a directory and prints the spec string for it.",
	Long:    packLongDescription,
	Example: packExample,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		srcDir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		exe, err := relpath.New(packFlags.exe)
		if err != nil {
			return fmt.Errorf("invalid --exe: %w", err)
		}
		format, err := archive.FromURL(packFlags.url)
		if err != nil {
			return err
		}

		if err := checkExecutable(filepath.Join(srcDir, filepath.FromSlash(exe.String()))); err != nil {
			return err
		}

		outPath, err := packOutput(srcDir, packFlags.outPath)
		if err != nil {
			return err
		}
		if err := archive.PackZip(srcDir, outPath); err != nil {
			return fmt.Errorf("packing %q: %w", srcDir, err)
		}
		if err := fetch.CheckExecutable(outPath, exe); err != nil {
			return fmt.Errorf("packed archive %q: %w", outPath, err)
		}

		d, size, err := digest.OfFile(outPath)
		if err != nil {
			return fmt.Errorf("hashing archive: %w", err)
		}
		log.Info().Str("path", outPath).Int64("size", size).Msg("archive written")

		ts := &spec.TargetSpec{
			URL:    packFlags.url,
			Size:   uint64(size),
			Digest: d,
			Path:   exe,
			Format: format,
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), ts.String())
		return err
	},
}

// checkExecutable does not follow symlinks: PackZip only stores regular files.
func checkExecutable(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("executable: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("executable %q is a symlink, pack the file it points to instead", path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("executable %q is not a regular file", path)
	}
	if info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("executable %q is not executable", path)
	}
	return nil
}

// packOutput resolves the archive path. It defaults to <dir name>.zip next to srcDir and must
// not be inside srcDir, where the walk would pick up the archive being written.
func packOutput(srcDir, outPath string) (string, error) {
	if outPath == "" {
		if filepath.Dir(srcDir) == srcDir {
			return "", fmt.Errorf("cannot derive an archive name from %q, pass --output", srcDir)
		}
		return filepath.Join(filepath.Dir(srcDir), filepath.Base(srcDir)+archive.Zip.Suffix()), nil
	}

	abs, err := filepath.Abs(outPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(srcDir, abs)
	if err != nil {
		return abs, nil
	}
	if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output %q must not be inside %q", outPath, srcDir)
	}
	return abs, nil
}

func init() {
	rootCmd.AddCommand(packCmd)

	packCmd.Flags().StringVarP(&packFlags.exe, "exe", "e", "",
		"path of the executable inside <dir>, e.g. bin/tool")
	_ = packCmd.MarkFlagRequired("exe")
	packCmd.Flags().StringVarP(&packFlags.url, "url", "u", "",
		"URL the archive will be published at")
	_ = packCmd.MarkFlagRequired("url")
	packCmd.Flags().StringVarP(&packFlags.outPath, "output", "o", "",
		"archive to write (defaults to <dir name>.zip next to <dir>)")
}

const (
	packLongDescription = `The pack command zips <dir>, keeping file modes so the executable stays
executable after extraction, and prints the matching spec string. Only regular
files are archived, so --exe must not be a symlink. Upload the archive to --url,
then pass the printed spec to generate.`

	packExample = `
commaslash pack ./dist/linux --exe bin/tool --url https://example.com/tool-linux.zip
# writes ./dist/linux.zip and prints
# url=https://example.com/tool-linux.zip size=1234 sha256=... path=bin/tool`
)

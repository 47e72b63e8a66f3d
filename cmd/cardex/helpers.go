package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cardex/internal/cards"
	"cardex/internal/convert"
	"cardex/internal/textutil"
)

// printWarnings surfaces every non-fatal warning to the user. Warnings are
// attached to successful results; swallowing them is not an option.
func printWarnings(cmd *cobra.Command, warns cards.Warnings) {
	if len(warns) == 0 {
		return
	}
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "%d warning(s):\n", len(warns))
	for _, w := range warns {
		fmt.Fprintf(out, "  - %s\n", w)
	}
}

// writeOutput writes data to path, refusing to clobber an existing file
// unless allowed.
func writeOutput(path string, data []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("output file %s already exists (enable export.overwrite_existing or use --force)", path)
		}
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// defaultOutputPath derives an output filename from the input and target
// format when the user did not supply one. Export passes the stored card name
// here, which can contain characters the filesystem rejects.
func defaultOutputPath(inputPath string, format convert.Format) string {
	base := textutil.SanitizeFileName(strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)))
	switch format {
	case convert.FormatJSONV2, convert.FormatJSONV3:
		return base + ".json"
	case convert.FormatPNGV2, convert.FormatPNGV3:
		return base + ".png"
	case convert.FormatCHARX:
		return base + ".charx"
	case convert.FormatVoxta:
		return base + ".voxpkg"
	}
	return base + ".out"
}

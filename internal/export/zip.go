package export

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
)

// Bundle is a set of report artifacts keyed by file name. The writers in
// this package (TradesCSV, EquityCSV, EquitySVG) produce its values in
// memory; nothing touches the filesystem until WriteDir/WriteZip.
type Bundle map[string][]byte

// WriteDir writes every artifact as a plain file under dir, creating it.
func (b Bundle) WriteDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, blob := range b {
		if err := os.WriteFile(filepath.Join(dir, name), blob, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// WriteZip writes the bundle as a single archive. Entries go in name order,
// so identical backtest results produce identical archives.
func (b Bundle) WriteZip(zipPath string) error {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)

	out, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	for _, name := range names {
		w, err := zw.Create(name)
		if err == nil {
			_, err = w.Write(b[name])
		}
		if err != nil {
			zw.Close()
			out.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

package statement

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// carrierPatterns maps filename substrings to carrier codes. Order matters
// for overlapping patterns, so the registry is a slice, not a map.
var carrierPatterns = []struct {
	pattern string
	code    string
}{
	{"aetna", "aetna"},
	{"blue_cross", "blue_cross"},
	{"bluecross", "blue_cross"},
	{"bcbs", "blue_cross"},
	{"cigna", "cigna"},
	{"unitedhealth", "unitedhealth"},
	{"united_health", "unitedhealth"},
	{"uhc", "unitedhealth"},
	{"humana", "humana"},
	{"hne", "hne"},
	{"hc_commission", "hc"},
}

// IdentifyCarrier derives a carrier code from a statement filename. Unknown
// carriers fall back to the first underscore-separated token so they still
// get processed (and learned) under a stable code.
func IdentifyCarrier(filename string) string {
	name := strings.ToLower(filepath.Base(filename))

	for _, cp := range carrierPatterns {
		if strings.Contains(name, cp.pattern) {
			return cp.code
		}
	}
	if strings.HasPrefix(name, "hc_") || strings.Contains(name, "_hc_") {
		return "hc"
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.IndexByte(base, '_'); i > 0 {
		return base[:i]
	}
	return base
}

// excludedNames marks non-statement files that share the docs directory.
var excludedNames = []string{"enrollment", "readme", "config", "report"}

// ScanDirectory returns the statement files in dir, sorted by name. Hidden
// files, spreadsheet lock files and known non-statement files are skipped.
func ScanDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "statement: read dir %s", dir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".xlsx", ".csv":
		default:
			continue
		}
		lower := strings.ToLower(name)
		excluded := false
		for _, ex := range excludedNames {
			if strings.Contains(lower, ex) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

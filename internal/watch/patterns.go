package watch

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"
)

// PatternError reports a glob pattern that cannot be compiled.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid glob pattern: %q", e.Pattern)
}

// Pattern is a compiled watch glob. Patterns use forward slashes. "*" and
// "?" also match "/", so "src/*.txt" matches "src/a/b.txt". A "**/"
// component matches zero or more directories.
type Pattern struct {
	raw      string
	glob     string
	matchers []glob.Glob
}

// CompilePattern validates a glob pattern.
func CompilePattern(raw string) (Pattern, error) {
	g := strings.TrimPrefix(filepath.ToSlash(raw), "./")
	if g == "" {
		return Pattern{}, &PatternError{Pattern: raw}
	}

	variants := expandSuperDirs(g)
	matchers := make([]glob.Glob, 0, len(variants))
	for _, v := range variants {
		m, err := glob.Compile(v)
		if err != nil {
			return Pattern{}, &PatternError{Pattern: raw}
		}
		matchers = append(matchers, m)
	}
	return Pattern{raw: raw, glob: g, matchers: matchers}, nil
}

// expandSuperDirs returns g with every "**/" component both kept and
// removed, so "src/**/*.go" also yields "src/*.go".
func expandSuperDirs(g string) []string {
	for i := 0; i+3 <= len(g); i++ {
		if g[i:i+3] != "**/" || (i > 0 && g[i-1] != '/') {
			continue
		}
		rest := expandSuperDirs(g[i+3:])
		out := make([]string, 0, 2*len(rest))
		for _, r := range rest {
			out = append(out, g[:i+3]+r, g[:i]+r)
		}
		return out
	}
	return []string{g}
}

// CompilePatterns compiles every pattern, failing on the first invalid one.
func CompilePatterns(raw []string) ([]Pattern, error) {
	if len(raw) == 0 {
		return nil, ErrNoPatterns
	}
	out := make([]Pattern, 0, len(raw))
	for _, r := range raw {
		p, err := CompilePattern(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// String returns the pattern as written.
func (p Pattern) String() string {
	return p.raw
}

// Match reports whether a base-relative path matches.
func (p Pattern) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, m := range p.matchers {
		if m.Match(rel) {
			return true
		}
	}
	return false
}

// Dir returns the directory to monitor for this pattern: its literal prefix
// before the first wildcard, or "." when the pattern has no directory part.
func (p Pattern) Dir() string {
	base, _ := doublestar.SplitPattern(p.glob)
	if base == "" {
		return "."
	}
	return filepath.FromSlash(base)
}

// WatchDirs returns the distinct directories to monitor, in pattern order.
func WatchDirs(patterns []Pattern) []string {
	var dirs []string
	for _, p := range patterns {
		if d := p.Dir(); !slices.Contains(dirs, d) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// matchAny returns the first pattern matching rel.
func matchAny(patterns []Pattern, rel string) (Pattern, bool) {
	for _, p := range patterns {
		if p.Match(rel) {
			return p, true
		}
	}
	return Pattern{}, false
}

// relativePath makes an absolute event path relative to base. Paths outside
// base, and paths that are already relative, are returned unchanged.
func relativePath(path, base string) string {
	if !filepath.IsAbs(path) || base == "" {
		return filepath.Clean(path)
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

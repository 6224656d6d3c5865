// Package resolve expands path patterns into the files a batch converts.
package resolve

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
)

// Resolve returns the regular files matching pattern, lexically sorted.
//
// Patterns without "**" follow filepath.Match syntax. Patterns with "**"
// are matched against whole slash-separated paths below their static
// prefix, where "**/" may also match no directory at all.
//
// A pattern that matches nothing, or that is malformed, fails with a
// PatternNotFoundError carrying the pattern as given.
func Resolve(pattern string) ([]string, error) {
	var (
		files []string
		err   error
	)
	if strings.Contains(pattern, "**") {
		files, err = walkMatches(pattern)
	} else {
		files, err = globMatches(pattern)
	}
	if err != nil {
		if rterrors.KindOf(err) == rterrors.KindIO {
			return nil, err
		}
		return nil, &rterrors.PatternNotFoundError{Pattern: pattern, Err: err}
	}
	if len(files) == 0 {
		return nil, rterrors.NewPatternNotFound(pattern)
	}
	return files, nil
}

func globMatches(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, nil
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	files := matches[:0]
	for _, m := range matches {
		if isRegular(m) {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func walkMatches(pattern string) ([]string, error) {
	slashed := path.Clean(filepath.ToSlash(pattern))

	var globs []glob.Glob
	for _, variant := range expandDoubleStar(slashed) {
		g, err := glob.Compile(variant, '/')
		if err != nil {
			return nil, err
		}
		globs = append(globs, g)
	}

	root := staticPrefix(slashed)
	var files []string
	err := filepath.WalkDir(filepath.FromSlash(root), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == filepath.FromSlash(root) {
				return fs.SkipAll
			}
			return rterrors.NewIO("walk", p, err)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		candidate := filepath.ToSlash(p)
		for _, g := range globs {
			if g.Match(candidate) {
				files = append(files, p)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// staticPrefix returns the leading path components of pattern that contain
// no glob syntax, or "." when the first component already does.
func staticPrefix(pattern string) string {
	parts := strings.Split(pattern, "/")
	var static []string
	for _, part := range parts[:len(parts)-1] {
		if strings.ContainsAny(part, `*?[{\`) {
			break
		}
		static = append(static, part)
	}
	switch {
	case len(static) == 0:
		return "."
	case len(static) == 1 && static[0] == "":
		return "/"
	}
	return strings.Join(static, "/")
}

// expandDoubleStar returns pattern plus every variant in which some "**/"
// segments match zero directories.
func expandDoubleStar(pattern string) []string {
	i := strings.Index(pattern, "**/")
	if i < 0 {
		return []string{pattern}
	}
	head, tail := pattern[:i], pattern[i+3:]
	if i > 0 && pattern[i-1] != '/' {
		return prefixAll(pattern[:i+3], expandDoubleStar(tail))
	}
	out := prefixAll(head+"**/", expandDoubleStar(tail))
	return append(out, prefixAll(head, expandDoubleStar(tail))...)
}

func prefixAll(prefix string, rest []string) []string {
	out := make([]string, len(rest))
	for i, r := range rest {
		out[i] = prefix + r
	}
	return out
}

func isRegular(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

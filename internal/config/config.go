// Package config loads command-line defaults from TOML files.
//
// Keys are flag names, either as written on the command line with dashes
// replaced by underscores (out_dir) or in camel case (outDir). Flags of a
// command may also be set in a table named after the command:
//
//	log_level = "info"
//
//	[run]
//	out_dir = "out"
//	verbose = 1
package config

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"

	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
)

// DefaultFile is read from the working directory when present.
const DefaultFile = "roundtrip.toml"

// Resolver resolves flag values from a decoded TOML document.
type Resolver struct {
	values map[string]any
}

// TOML is a kong.ConfigurationLoader for TOML documents.
func TOML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if _, err := toml.NewDecoder(r).Decode(&values); err != nil {
		return nil, rterrors.Wrap(err, "failed to parse TOML configuration")
	}
	return &Resolver{values: values}, nil
}

// Validate rejects keys that name neither a flag nor a command.
func (r *Resolver) Validate(app *kong.Application) error {
	flags := map[string]bool{}
	commands := map[string]map[string]bool{}
	for _, f := range app.Flags {
		flags[normalize(f.Name)] = true
	}
	var walk func(n *kong.Node)
	walk = func(n *kong.Node) {
		for _, child := range n.Children {
			if child.Type != kong.CommandNode {
				continue
			}
			names := map[string]bool{}
			for _, f := range child.Flags {
				names[normalize(f.Name)] = true
				flags[normalize(f.Name)] = true
			}
			commands[child.Name] = names
			walk(child)
		}
	}
	walk(app.Node)

	var unknown []string
	for key, value := range r.values {
		if names, ok := commands[key]; ok {
			table, isTable := value.(map[string]any)
			if !isTable {
				unknown = append(unknown, key)
				continue
			}
			for sub := range table {
				if !names[normalize(sub)] {
					unknown = append(unknown, key+"."+sub)
				}
			}
			continue
		}
		if !flags[normalize(key)] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return rterrors.NewValidation("config", "unknown keys: "+strings.Join(unknown, ", "))
	}
	return nil
}

// Resolve returns the configured value of flag, preferring the table of
// the command that declares it.
func (r *Resolver) Resolve(ctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
	if parent != nil && parent.Command != nil {
		if table, ok := r.values[parent.Command.Name].(map[string]any); ok {
			if raw, found := lookup(table, flag.Name); found {
				return scalar(flag.Name, raw)
			}
		}
	}
	if raw, found := lookup(r.values, flag.Name); found {
		return scalar(flag.Name, raw)
	}
	return nil, nil
}

func lookup(values map[string]any, name string) (any, bool) {
	want := normalize(name)
	for key, raw := range values {
		if _, isTable := raw.(map[string]any); isTable {
			continue
		}
		if normalize(key) == want {
			return raw, true
		}
	}
	return nil, false
}

// scalar converts a TOML value into the string form kong's mappers parse.
func scalar(name string, raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	return nil, fmt.Errorf("config key %s: unsupported value %v (%T)", name, raw, raw)
}

// normalize folds dashes, underscores and case so that out-dir, out_dir
// and outDir compare equal.
func normalize(key string) string {
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, "_", "")
	return strings.ToLower(key)
}

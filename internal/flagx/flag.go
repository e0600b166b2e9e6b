// Package flagx narrows os.Args down to the flags a component owns, so
// several components can share one command line.
package flagx

import (
	"flag"
	"fmt"
	"strings"
)

// Filter keeps only the arguments naming one of the given flags, together
// with their values. Names are given without dashes; both "-n" and "--n"
// match, as do "-n=value" and "--n=value". A separate value is taken only
// when it does not itself start with a dash.
func Filter(args []string, names ...string) []string {
	owned := make(map[string]struct{}, len(names))
	for _, n := range names {
		owned[n] = struct{}{}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		name, hasValue, ok := flagName(args[i])
		if !ok {
			continue
		}
		if _, mine := owned[name]; !mine {
			continue
		}
		out = append(out, args[i])
		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// flagName splits "-n", "--n" or "--n=v" into its bare name.
func flagName(arg string) (name string, hasValue bool, ok bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return "", false, false
	}
	name = strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if name == "" {
		return "", false, false
	}
	if i := strings.IndexByte(name, '='); i >= 0 {
		return name[:i], true, true
	}
	return name, false, true
}

// ConfigPath returns the value of -c / -config in args, or "" when neither
// is present. The last occurrence wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(discard{})
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(Filter(args, "c", "config"))

	return path
}

// ApplyEnv sets flags in fs from environment variables before parsing, so
// values given on the command line still take precedence. bindings maps a
// flag name to a variable name; lookup is usually os.LookupEnv.
func ApplyEnv(fs *flag.FlagSet, bindings map[string]string, lookup func(string) (string, bool)) error {
	for name, env := range bindings {
		v, ok := lookup(env)
		if !ok || v == "" {
			continue
		}
		if fs.Lookup(name) == nil {
			return fmt.Errorf("flagx: no flag %q for %s", name, env)
		}
		if err := fs.Set(name, v); err != nil {
			return fmt.Errorf("flagx: %s: %w", env, err)
		}
	}
	return nil
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

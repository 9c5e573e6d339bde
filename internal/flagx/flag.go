// Package flagx lets several components share os.Args: each one picks out
// only the flags it owns, so config loading and CLI subcommands do not trip
// over each other's flags.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// split walks args and sends every owned flag (with its value, when the value
// is a separate argument) to keep, and everything else to rest.
//
// Recognised forms are "-f value" and "-f=value" / "--flag=value".
func split(args []string, owned []string) (keep, rest []string) {
	set := make(map[string]struct{}, len(owned))
	for _, f := range owned {
		set[f] = struct{}{}
	}

	keep = make([]string, 0, len(args))
	rest = make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := set[name]; ok {
				keep = append(keep, arg)
			} else {
				rest = append(rest, arg)
			}
			continue
		}

		if _, ok := set[arg]; !ok {
			rest = append(rest, arg)
			continue
		}

		keep = append(keep, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			keep = append(keep, args[i+1])
			i++
		}
	}

	return keep, rest
}

// FilterArgs returns only the allowed flags (and their values) from args,
// preserving order. The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	keep, _ := split(args, allowedFlags)
	return keep
}

// StripArgs is the complement of FilterArgs: it returns args with the given
// flags (and their values) removed. The CLI uses it to hand the remaining
// subcommand and its own flags to the dispatcher.
func StripArgs(args []string, flags []string) []string {
	_, rest := split(args, flags)
	return rest
}

// JsonConfigFlags returns the config file path given via -c or -config, or
// "" if neither is present. Other arguments are ignored.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}

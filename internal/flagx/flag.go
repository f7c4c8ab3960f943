package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns a slice of command-line arguments that only contains
// the allowed flags (and their values) specified in allowedFlags.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -b https://example.test
//  2. Flag and value combined with '=':      --backend=https://example.test
//
// This lets each component parse its own flags without tripping over flags
// owned by other components.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--flag=value" / "-f=value" form
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		// separate "-f value" form
		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// EnvFileFlags inspects command-line arguments and extracts the env-file
// path provided via the -e or -envfile flags.
//
// Only these flags are parsed; other arguments are ignored. If neither flag
// is present, an empty string is returned and no env file is loaded.
func EnvFileFlags() string {
	var envFile string

	args := FilterArgs(os.Args[1:], []string{"-e", "-envfile"})

	fs := flag.NewFlagSet("envfile", flag.ContinueOnError)
	fs.StringVar(&envFile, "envfile", "", "Path to env file")
	fs.StringVar(&envFile, "e", "", "Path to env file (short)")
	_ = fs.Parse(args)

	return envFile
}

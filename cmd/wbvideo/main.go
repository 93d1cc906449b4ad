package main

import (
	"os"
	"strings"
)

// legacyFlags are accepted with a single dash, e.g. -user_id 123
var legacyFlags = []string{"user_id", "output_path"}

func main() {
	os.Args = append(os.Args[:1], normalizeLegacyFlags(os.Args[1:])...)
	Execute()
}

// normalizeLegacyFlags rewrites -user_id and -output_path (with or without
// =value) to their double-dash form. Everything after "--" is left alone.
func normalizeLegacyFlags(args []string) []string {
	out := make([]string, 0, len(args))
	passthrough := false
	for _, arg := range args {
		if passthrough || arg == "--" {
			passthrough = true
			out = append(out, arg)
			continue
		}
		if strings.HasPrefix(arg, "-") && !strings.HasPrefix(arg, "--") {
			name := strings.TrimPrefix(arg, "-")
			if i := strings.IndexByte(name, '='); i >= 0 {
				name = name[:i]
			}
			for _, legacy := range legacyFlags {
				if name == legacy {
					arg = "-" + arg
					break
				}
			}
		}
		out = append(out, arg)
	}
	return out
}

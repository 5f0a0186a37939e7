package main

import (
	"os"
	"strings"

	"itask-cli/internal/cli"
)

func isRoutePath(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//")
}

// rewriteRouteArgs turns `itask /todo` into `itask open /todo`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
// before parsing. Persistent flags may come first (`itask --base-url ... /todo`),
// so this looks for the first positional token rather than argv[1].
func rewriteRouteArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without consuming a value so a path is never
	// mistaken for one.
	valueFlags := map[string]bool{
		"--config-dir": true,
		"--base-url":   true,
		"--timeout":    true,
		"--format":     true,
	}

	insertOpen := func(at int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:at]...)
		out = append(out, "open")
		out = append(out, argv[at:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isRoutePath(argv[i+1]) {
				return insertOpen(i)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isRoutePath(a) {
			return insertOpen(i)
		}
		return argv
	}
	return argv
}

func main() {
	args := rewriteRouteArgs(os.Args)
	if err := cli.Execute(args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// Package deps checks for the external helpers the TUI can use. None are
// required to browse a grid; copying a cell on Linux needs one of the
// clipboard tools.
package deps

import (
	"os/exec"
	"runtime"
	"slices"
)

type Dependency struct {
	Name string
	// Commands are alternatives; any one of them satisfies the dependency.
	Commands   []string
	Required   bool
	Platforms  []string
	Purpose    string
	InstallCmd map[string]string
}

type MissingDep struct {
	Dependency
}

var dependencies = []Dependency{
	{
		Name:      "clipboard",
		Commands:  []string{"xclip", "xsel", "wl-copy"},
		Platforms: []string{"linux", "freebsd", "netbsd", "openbsd"},
		Purpose:   "copy cells",
		InstallCmd: map[string]string{
			"linux": "sudo apt install xclip",
		},
	},
	{
		Name:      "clipboard",
		Commands:  []string{"pbcopy"},
		Platforms: []string{"darwin"},
		Purpose:   "copy cells",
	},
}

// lookPath is exec.LookPath, replaced in tests.
var lookPath = exec.LookPath

func applies(dep Dependency, goos string) bool {
	return len(dep.Platforms) == 0 || slices.Contains(dep.Platforms, goos)
}

func found(dep Dependency) bool {
	for _, c := range dep.Commands {
		if _, err := lookPath(c); err == nil {
			return true
		}
	}
	return false
}

// Check lists the dependencies for this platform that are not installed.
func Check() []MissingDep {
	return check(runtime.GOOS)
}

func check(goos string) []MissingDep {
	missing := []MissingDep{}
	for _, dep := range dependencies {
		if applies(dep, goos) && !found(dep) {
			missing = append(missing, MissingDep{dep})
		}
	}
	return missing
}

// MissingRequired filters the missing dependencies that block startup.
func MissingRequired(missing []MissingDep) []MissingDep {
	var out []MissingDep
	for _, m := range missing {
		if m.Required {
			out = append(out, m)
		}
	}
	return out
}

func InstallHint(dep MissingDep) string {
	goos := runtime.GOOS
	if cmd, ok := dep.InstallCmd[goos]; ok {
		return cmd
	}
	return "install one of " + joinCommands(dep.Commands) + " via your package manager"
}

func joinCommands(cmds []string) string {
	out := ""
	for i, c := range cmds {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

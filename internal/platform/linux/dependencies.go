//go:build linux

package linux

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Requirement is a missing tool or permission and how to fix it.
type Requirement struct {
	Name     string
	Purpose  string
	Fix      string
	Fallback string
	Optional bool
}

func (r Requirement) String() string {
	label := r.Name
	if r.Optional {
		label += " (optional)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", label, r.Purpose)
	fmt.Fprintf(&b, "    fix: %s\n", r.Fix)
	if r.Fallback != "" {
		fmt.Fprintf(&b, "    otherwise: %s\n", r.Fallback)
	}
	return b.String()
}

// packageFor names the package shipping tool; "" means tool is its own
// package name.
var packageFor = map[string]map[string]string{
	"gsettings": {"apt": "libglib2.0-bin", "": "glib2"},
}

var installCommand = map[string]string{
	"apt":    "sudo apt install %s",
	"dnf":    "sudo dnf install %s",
	"yum":    "sudo yum install %s",
	"pacman": "sudo pacman -S %s",
	"zypper": "sudo zypper install %s",
	"apk":    "sudo apk add %s",
}

// InstallHint returns the command that installs tool on d.
func InstallHint(tool string, d Distro) string {
	pkg := tool
	if byPM, ok := packageFor[tool]; ok {
		if p, ok := byPM[d.PkgManager]; ok {
			pkg = p
		} else {
			pkg = byPM[""]
		}
	}
	if tmpl, ok := installCommand[d.PkgManager]; ok {
		return fmt.Sprintf(tmpl, pkg)
	}
	return fmt.Sprintf("install the %q package with your package manager", pkg)
}

// MissingRequirements lists what env lacks for a full kiosk lock.
func MissingRequirements(env Environment, d Distro) []Requirement {
	var missing []Requirement

	if !env.Has("wmctrl") && !env.Has("xdotool") {
		purpose := "switches the kiosk window to fullscreen above the panels"
		if env.Display == DisplayServerWayland {
			purpose += "; XWayland windows only"
		}
		missing = append(missing, Requirement{
			Name:     "wmctrl",
			Purpose:  purpose,
			Fix:      InstallHint("wmctrl", d),
			Fallback: "xdotool works as well",
		})
	}

	if env.GnomeShell() && !env.Has("gsettings") {
		missing = append(missing, Requirement{
			Name:     "gsettings",
			Purpose:  "turns off log-out, user switching and hot corners while locked",
			Fix:      InstallHint("gsettings", d),
			Fallback: "power and suspend keys are still blocked through logind",
			Optional: true,
		})
	}

	if !env.InputAccess {
		missing = append(missing, Requirement{
			Name:     "input access",
			Purpose:  "reads touch and volume key events: " + env.InputProblem,
			Fix:      "sudo usermod -aG input $USER, then log in again",
			Fallback: "run with -headless and use commands only",
		})
	}

	return missing
}

// Report renders missing as a block for the log, or "" when nothing is
// missing.
func Report(missing []Requirement) string {
	if len(missing) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d requirement(s) missing:\n", len(missing))
	for _, r := range missing {
		b.WriteString("  - ")
		b.WriteString(r.String())
	}
	return b.String()
}

// inputProblem explains why evdev nodes are unreadable, or returns "".
func inputProblem() string {
	nodes, _ := filepath.Glob("/dev/input/event*")
	if len(nodes) == 0 {
		return "no evdev devices under /dev/input"
	}
	err := unix.Access(nodes[0], unix.R_OK)
	if err == nil {
		return ""
	}
	if !inInputGroup() {
		return "user is not in the input group"
	}
	return fmt.Sprintf("%s: %v", nodes[0], err)
}

func inInputGroup() bool {
	g, err := user.LookupGroup("input")
	if err != nil {
		return false
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return false
	}
	groups, err := os.Getgroups()
	return err == nil && slices.Contains(groups, gid)
}

//go:build linux

package linux

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// DependencyInfo contains information about a missing dependency and how to install it.
type DependencyInfo struct {
	Name        string
	WhyNeeded   string
	InstallCmd  string
	Optional    bool
	Alternative string
}

// getPackageName returns the package providing tool for a package manager.
func getPackageName(tool, pkgManager string) string {
	switch strings.ToLower(tool) {
	case "xdotool":
		return "xdotool"
	case "xrandr":
		switch pkgManager {
		case "apt":
			return "x11-xserver-utils"
		case "pacman":
			return "xorg-xrandr"
		default:
			return "xrandr"
		}
	default:
		return ""
	}
}

// GenerateInstallCommand generates a distro-specific installation command for the given tool.
func GenerateInstallCommand(tool string, distro DistroInfo) (cmd string, note string) {
	if tool == "" {
		return "", "Tool name is required"
	}

	pkgName := getPackageName(tool, distro.PkgManager)
	if pkgName == "" {
		return "", fmt.Sprintf("Package name not available for tool '%s'", tool)
	}

	switch distro.PkgManager {
	case "apt":
		cmd = fmt.Sprintf("sudo apt update && sudo apt install %s", pkgName)
	case "dnf", "yum":
		cmd = fmt.Sprintf("sudo %s install %s", distro.PkgManager, pkgName)
	case "pacman":
		cmd = fmt.Sprintf("sudo pacman -S %s", pkgName)
	case "zypper":
		cmd = fmt.Sprintf("sudo zypper install %s", pkgName)
	case "apk":
		cmd = fmt.Sprintf("sudo apk add %s", pkgName)
	default:
		cmd = fmt.Sprintf("Install %s using your distribution's package manager", pkgName)
		note = fmt.Sprintf("Package name: %s. Check your distribution's repositories.", pkgName)
	}
	return cmd, note
}

// CheckMissingDependencies lists what is missing for reading mice and
// moving the cursor on this host.
func CheckMissingDependencies(caps Capabilities, distro DistroInfo, inputAccess bool) []DependencyInfo {
	var missing []DependencyInfo

	if caps.DisplayServer == DisplayServerX11 && !caps.XdotoolAvailable {
		installCmd, note := GenerateInstallCommand("xdotool", distro)
		alt := "Use the uinput sink instead (--sink=uinput)"
		if note != "" {
			alt = note + "\n" + alt
		}
		missing = append(missing, DependencyInfo{
			Name:        "xdotool",
			WhyNeeded:   "Moves the X11 cursor to the fused position",
			InstallCmd:  installCmd,
			Optional:    caps.UinputAvailable,
			Alternative: alt,
		})
	}

	if !caps.XrandrAvailable {
		installCmd, _ := GenerateInstallCommand("xrandr", distro)
		missing = append(missing, DependencyInfo{
			Name:        "xrandr",
			WhyNeeded:   "Reports monitor layout so the cursor is clamped to the real desktop",
			InstallCmd:  installCmd,
			Optional:    true,
			Alternative: "Without it the desktop is assumed to be 1920x1080 at the origin",
		})
	}

	if !inputAccess {
		cmd := "sudo usermod -aG input $USER (then logout/login)"
		if caps.Crostini {
			cmd = "Enable USB device sharing for Linux in ChromeOS settings, then restart the container"
		}
		missing = append(missing, DependencyInfo{
			Name:        "input device access",
			WhyNeeded:   "Reads raw per-mouse motion from /dev/input/event*",
			InstallCmd:  cmd,
			Alternative: "Try the synthetic source (--source=synthetic) to see the engine work",
		})
	}

	return missing
}

// FormatDependencyMessages formats dependency information into user-friendly messages.
func FormatDependencyMessages(missing []DependencyInfo) string {
	if len(missing) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("═══════════════════════════════════════════════════════════\n")
	b.WriteString("  Missing Dependencies Detected\n")
	b.WriteString("═══════════════════════════════════════════════════════════\n\n")

	for i, dep := range missing {
		label := dep.Name
		if dep.Optional {
			label += " (optional)"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, label)
		fmt.Fprintf(&b, "   Why needed: %s\n", dep.WhyNeeded)
		fmt.Fprintf(&b, "   Install with: %s\n", dep.InstallCmd)
		if dep.Alternative != "" {
			fmt.Fprintf(&b, "   Alternative: %s\n", dep.Alternative)
		}
		b.WriteString("\n")
	}
	b.WriteString("═══════════════════════════════════════════════════════════\n")
	return b.String()
}

// getInputGroupGID looks up the "input" group GID by parsing /etc/group.
func getInputGroupGID() int {
	file, err := os.Open("/etc/group")
	if err != nil {
		return -1
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), ":")
		if len(parts) >= 3 && parts[0] == "input" {
			if gid, err := strconv.Atoi(parts[2]); err == nil {
				return gid
			}
		}
	}
	return -1
}

func inInputGroup() bool {
	gid := getInputGroupGID()
	if gid == -1 {
		return false
	}
	groups, err := os.Getgroups()
	if err != nil {
		return false
	}
	return slices.Contains(groups, gid)
}

// CheckInputAccess reports whether at least one event node under dir can be
// opened for reading.
func CheckInputAccess(dir string) (hasAccess bool, errorMessage string) {
	paths, _ := filepath.Glob(filepath.Join(dir, "event*"))
	if len(paths) == 0 {
		return false, ErrNoPointers.Error()
	}
	for _, p := range paths {
		f, err := os.Open(p)
		if err == nil {
			f.Close()
			return true, ""
		}
	}
	if !inInputGroup() {
		return false, "input device permission denied. Add your user to the 'input' group:\n  sudo usermod -aG input $USER\nThen log out and log back in for changes to take effect."
	}
	return false, fmt.Sprintf("cannot open any of %d event nodes under %s", len(paths), dir)
}

// CheckUinputPermissions checks if uinput is accessible and returns a user-friendly error message if not.
func CheckUinputPermissions() (hasAccess bool, errorMessage string) {
	if _, err := os.Stat(uinputDevicePath); os.IsNotExist(err) {
		return false, "uinput device not found: /dev/uinput does not exist. The uinput kernel module may not be loaded. Try: sudo modprobe uinput"
	}

	f, err := os.OpenFile(uinputDevicePath, os.O_WRONLY, 0)
	if err != nil {
		if !inInputGroup() {
			return false, "uinput permission denied. Add your user to the 'input' group:\n  sudo usermod -aG input $USER\nThen log out and log back in for changes to take effect.\n\nAlternatively, create a udev rule:\n  echo 'KERNEL==\"uinput\", MODE=\"0664\", GROUP=\"input\"' | sudo tee /etc/udev/rules.d/99-uinput.rules\n  sudo udevadm control --reload-rules\n  sudo udevadm trigger"
		}
		return false, fmt.Sprintf("uinput permission denied: %v", err)
	}
	f.Close()
	return true, ""
}

// DependencyReport returns the formatted dependency message, or "" when
// nothing is missing.
func DependencyReport() string {
	caps := DetectCapabilities()
	inputAccess, _ := CheckInputAccess(DefaultInputDir)
	return FormatDependencyMessages(CheckMissingDependencies(caps, DetectDistribution(), inputAccess))
}

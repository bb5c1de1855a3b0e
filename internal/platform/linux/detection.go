//go:build linux

// Package linux provides the Linux and ChromeOS/Crostini device source,
// bounds provider and cursor sinks.
package linux

import (
	"bufio"
	"os"
	"strings"
)

// Display server types.
const (
	DisplayServerWayland = "wayland"
	DisplayServerX11     = "x11"
	DisplayServerUnknown = "unknown"
)

// crosMilestonePath exists inside the Crostini container.
const crosMilestonePath = "/dev/.cros_milestone"

// Capabilities tracks available tools and system information for the Linux platform.
type Capabilities struct {
	XdotoolAvailable bool
	XrandrAvailable  bool
	UinputAvailable  bool
	DisplayServer    string
	Crostini         bool
}

// DetectCapabilities detects available tools and system configuration.
func DetectCapabilities() Capabilities {
	displayServer := DetectDisplayServer()
	uinput, _ := CheckUinputPermissions()
	return Capabilities{
		XdotoolAvailable: hasCommand("xdotool") && displayServer == DisplayServerX11,
		XrandrAvailable:  hasCommand("xrandr"),
		UinputAvailable:  uinput,
		DisplayServer:    displayServer,
		Crostini:         DetectCrostini(),
	}
}

// Session names the running session for diagnostics.
func (c Capabilities) Session() string {
	if c.Crostini {
		return "crostini/" + c.DisplayServer
	}
	return c.DisplayServer
}

// DetectDisplayServer detects whether running on Wayland or X11.
func DetectDisplayServer() string {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return DisplayServerWayland
	}
	if os.Getenv("XDG_SESSION_TYPE") == DisplayServerWayland {
		return DisplayServerWayland
	}
	if os.Getenv("DISPLAY") != "" {
		return DisplayServerX11
	}
	if os.Getenv("XDG_SESSION_TYPE") == DisplayServerX11 {
		return DisplayServerX11
	}
	return DisplayServerUnknown
}

// DetectCrostini reports whether we run inside the ChromeOS Linux container.
func DetectCrostini() bool {
	if os.Getenv("SOMMELIER_VERSION") != "" {
		return true
	}
	_, err := os.Stat(crosMilestonePath)
	return err == nil
}

// DistroInfo contains information about the detected Linux distribution.
type DistroInfo struct {
	Name       string
	PkgManager string
}

// DetectDistribution detects the Linux distribution and package manager.
func DetectDistribution() DistroInfo {
	file, err := os.Open("/etc/os-release")
	if err != nil {
		return DistroInfo{Name: "unknown", PkgManager: detectPackageManager()}
	}
	defer file.Close()
	return parseOSRelease(bufio.NewScanner(file))
}

func parseOSRelease(scanner *bufio.Scanner) DistroInfo {
	var id, idLike string
	for scanner.Scan() {
		line := scanner.Text()
		if v, ok := strings.CutPrefix(line, "ID="); ok {
			id = strings.Trim(v, "\"")
		}
		if v, ok := strings.CutPrefix(line, "ID_LIKE="); ok {
			idLike = strings.Trim(v, "\"")
		}
	}

	distro := strings.ToLower(id)
	if distro == "" {
		distro = "unknown"
	}
	return DistroInfo{Name: distro, PkgManager: detectPackageManagerForDistro(distro, idLike)}
}

func detectPackageManagerForDistro(distro, idLike string) string {
	switch {
	case distro == "debian" || distro == "ubuntu" || distro == "pop" ||
		strings.Contains(idLike, "debian") || strings.Contains(idLike, "ubuntu"):
		return "apt"
	case distro == "fedora" || distro == "rhel" || distro == "centos" ||
		strings.Contains(idLike, "fedora") || strings.Contains(idLike, "rhel"):
		if hasCommand("dnf") {
			return "dnf"
		}
		return "yum"
	case distro == "arch" || distro == "manjaro" || strings.Contains(idLike, "arch"):
		return "pacman"
	case strings.HasPrefix(distro, "opensuse") || strings.Contains(idLike, "suse"):
		return "zypper"
	case distro == "alpine":
		return "apk"
	default:
		return detectPackageManager()
	}
}

func detectPackageManager() string {
	for _, m := range []string{"apt", "dnf", "yum", "pacman", "zypper", "apk"} {
		if hasCommand(m) {
			return m
		}
	}
	return "unknown"
}

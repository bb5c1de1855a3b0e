package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppName names the config directory and the default config file.
const AppName = "multimouse"

// ConfigEnv points at an explicit config file.
const ConfigEnv = "MULTIMOUSE_CONFIG"

// DefaultConfigDir returns the platform-specific configuration directory.
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("AppData"); appdata != "" {
			return filepath.Join(appdata, AppName), nil
		}
		return "", errors.New("AppData not set")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".config", AppName), nil
		}
		return "", errors.New("HOME not set")
	}
}

// DefaultStateDir returns the per-user directory for data the program
// produces, such as the audit log.
func DefaultStateDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if local := os.Getenv("LocalAppData"); local != "" {
			return filepath.Join(local, AppName), nil
		}
		return "", errors.New("LocalAppData not set")
	default:
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".local", "state", AppName), nil
		}
		return "", errors.New("HOME not set")
	}
}

// DefaultAuditDir is where the audit log goes when no directory is given.
func DefaultAuditDir() (string, error) {
	dir, err := DefaultStateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audit"), nil
}

// DefaultConfigPath returns the config file path for the given format.
func DefaultConfigPath(format string) (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName+"."+extension(format)), nil
}

// EnsureDir creates the directory holding filePath.
func EnsureDir(filePath string) error {
	return os.MkdirAll(filepath.Dir(filePath), 0o755)
}

// FindUserConfig returns the file named by --config, or by the environment.
// It runs before flag parsing so the file can feed the parser.
func FindUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv(ConfigEnv)
}

// ConfigCandidatePaths lists config files per format, highest priority
// first. An explicit userPath is routed to the loader matching its
// extension.
func ConfigCandidatePaths(userPath string) (jsonPaths, yamlPaths, tomlPaths []string) {
	add := func(slice *[]string, p string) { *slice = append(*slice, p) }
	addAll := func(dir string) {
		add(&jsonPaths, filepath.Join(dir, AppName+".json"))
		add(&yamlPaths, filepath.Join(dir, AppName+".yaml"))
		add(&yamlPaths, filepath.Join(dir, AppName+".yml"))
		add(&tomlPaths, filepath.Join(dir, AppName+".toml"))
	}

	if userPath != "" {
		switch filepath.Ext(userPath) {
		case ".yaml", ".yml":
			add(&yamlPaths, userPath)
		case ".toml":
			add(&tomlPaths, userPath)
		default:
			add(&jsonPaths, userPath)
		}
	}

	if wd, err := os.Getwd(); err == nil {
		addAll(wd)
	}
	if dir, err := DefaultConfigDir(); err == nil {
		addAll(dir)
	}
	if runtime.GOOS != "windows" {
		addAll(filepath.Join("/etc", AppName))
	}
	return
}

func extension(format string) string {
	switch normalizeFormat(format) {
	case "yaml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return "json"
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stigoleg/multimouse/internal/config"
)

// This small tool generates shell completions and a man page from the
// option structs, so they stay in step with --help.

const (
	appName        = "multimouse"
	appDescription = "Steer one cursor with several mice at once."
)

var commands = []string{"run", "devices", "config", "audit"}

type flagDef struct {
	Short string
	Long  string
	Arg   string
	Desc  string
	Enum  []string
}

func main() {
	flags := collect()
	if err := writeCompletions(flags); err != nil {
		panic(err)
	}
	if err := writeMan(flags); err != nil {
		panic(err)
	}
}

func collect() []flagDef {
	flags := []flagDef{
		{Long: "--config", Arg: "<file>", Desc: "Config file (JSON, YAML or TOML)"},
	}
	for _, d := range config.Flags() {
		f := flagDef{Long: "--" + d.Name, Desc: d.Help, Enum: d.Enum}
		if !d.Bool {
			f.Arg = "<value>"
		}
		if d.Default != "" {
			f.Desc += " (default " + d.Default + ")"
		}
		flags = append(flags, f)
	}
	return append(flags,
		flagDef{Short: "-v", Long: "--version", Desc: "Show version information"},
		flagDef{Short: "-h", Long: "--help", Desc: "Show help message"},
	)
}

func writeCompletions(flags []flagDef) error {
	base := filepath.Join("docs", "completions")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return err
	}

	// Bash
	var bash strings.Builder
	bash.WriteString("_" + appName + "() {\n")
	bash.WriteString("  local cur prev opts\n")
	bash.WriteString("  COMPREPLY=()\n")
	bash.WriteString("  cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	bash.WriteString("  prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	var opts []string
	for _, f := range flags {
		if f.Short != "" {
			opts = append(opts, f.Short)
		}
		if f.Long != "" {
			opts = append(opts, f.Long)
		}
	}
	bash.WriteString("  opts=\"" + strings.Join(opts, " ") + "\"\n")
	bash.WriteString("  case \"${prev}\" in\n")
	for _, f := range flags {
		if len(f.Enum) > 0 {
			bash.WriteString("    " + f.Long + ")\n")
			bash.WriteString("      COMPREPLY=( $(compgen -W \"" + strings.Join(f.Enum, " ") + "\" -- ${cur}) )\n")
			bash.WriteString("      return 0 ;;\n")
		}
	}
	bash.WriteString("  esac\n")
	bash.WriteString("  if [[ ${cur} == -* ]] ; then\n")
	bash.WriteString("    COMPREPLY=( $(compgen -W \"${opts}\" -- ${cur}) )\n")
	bash.WriteString("    return 0\n")
	bash.WriteString("  fi\n")
	bash.WriteString("  COMPREPLY=( $(compgen -W \"" + strings.Join(commands, " ") + "\" -- ${cur}) )\n")
	bash.WriteString("}\n")
	bash.WriteString("complete -F _" + appName + " " + appName + "\n")
	if err := os.WriteFile(filepath.Join(base, appName+".bash"), []byte(bash.String()), 0o644); err != nil {
		return err
	}

	// Zsh
	var zsh strings.Builder
	zsh.WriteString("#compdef " + appName + "\n")
	zsh.WriteString("_arguments ")
	var parts []string
	for _, f := range flags {
		form := fmt.Sprintf("'%s[%s]%s'", zFlagName(f), zEscape(f.Desc), zArgSuffix(f))
		parts = append(parts, form)
	}
	parts = append(parts, "'1:command:("+strings.Join(commands, " ")+")'")
	zsh.WriteString(strings.Join(parts, " \\\n  ") + "\n")
	if err := os.WriteFile(filepath.Join(base, "_"+appName), []byte(zsh.String()), 0o644); err != nil {
		return err
	}

	// Fish
	var fish strings.Builder
	fish.WriteString("complete -c " + appName + " -f\n")
	fish.WriteString("complete -c " + appName + " -n __fish_use_subcommand -a \"" + strings.Join(commands, " ") + "\"\n")
	for _, f := range flags {
		fish.WriteString(fishFlagLine(f))
	}
	return os.WriteFile(filepath.Join(base, appName+".fish"), []byte(fish.String()), 0o644)
}

func zFlagName(f flagDef) string {
	if f.Arg != "" {
		// zsh requires = for options with arguments
		if f.Long != "" {
			return f.Long + "="
		}
		return f.Short + "="
	}
	if f.Long != "" {
		return f.Long
	}
	return f.Short
}

func zArgSuffix(f flagDef) string {
	if f.Arg == "" {
		return ""
	}
	if len(f.Enum) > 0 {
		return ":value:(" + strings.Join(f.Enum, " ") + ")"
	}
	return ":value:" + strings.Trim(f.Arg, "<>")
}

func zEscape(s string) string {
	r := strings.NewReplacer("[", "\\[", "]", "\\]", "'", "'\\''")
	return r.Replace(s)
}

func fishFlagLine(f flagDef) string {
	var b strings.Builder
	b.WriteString("complete -c ")
	b.WriteString(appName)
	if f.Short != "" {
		b.WriteString(" -s ")
		b.WriteString(strings.TrimPrefix(f.Short, "-"))
	}
	if f.Long != "" {
		b.WriteString(" -l ")
		b.WriteString(strings.TrimPrefix(f.Long, "--"))
	}
	switch {
	case len(f.Enum) > 0:
		b.WriteString(" -x -a \"" + strings.Join(f.Enum, " ") + "\"")
	case f.Arg != "":
		b.WriteString(" -r")
	default:
		b.WriteString(" -f")
	}
	b.WriteString(" -d \"")
	b.WriteString(escapeDoubleQuotes(f.Desc))
	b.WriteString("\"\n")
	return b.String()
}

func escapeDoubleQuotes(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

func manEscape(s string) string {
	return strings.ReplaceAll(s, "-", "\\-")
}

func writeMan(flags []flagDef) error {
	if err := os.MkdirAll("man", 0o755); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString(".TH \"" + strings.ToUpper(appName) + "\" \"1\" \"\" \"multimouse\" \"User Commands\"\n")
	b.WriteString(".SH NAME\n" + appName + " \\- " + appDescription + "\n")
	b.WriteString(".SH SYNOPSIS\n.B " + appName + "\n[run|devices|config init|audit export|audit decrypt] [OPTIONS]\n")
	b.WriteString(".SH DESCRIPTION\n" + appDescription + "\n")
	b.WriteString("Every connected mouse keeps its own position. In fused mode the cursor follows the weighted average of all mice; ")
	b.WriteString("in individual mode the most recently moved mouse steers alone.\n")
	b.WriteString(".SH OPTIONS\n")
	for _, f := range flags {
		names := f.Short
		if f.Long != "" {
			if names != "" {
				names += ", "
			}
			names += f.Long
		}
		if f.Arg != "" {
			names += " " + f.Arg
		}
		desc := f.Desc
		if len(f.Enum) > 0 {
			desc += " One of: " + strings.Join(f.Enum, ", ") + "."
		}
		b.WriteString(".TP\n\\fB" + manEscape(names) + "\\fR\n" + desc + "\n")
	}
	b.WriteString(".SH EXAMPLES\n")
	b.WriteString(".TP\n\\fB" + appName + "\\fR\nFuse all mice and show the console.\n")
	b.WriteString(".TP\n\\fB" + appName + " \\-\\-mode individual\\fR\nLet the last moved mouse steer.\n")
	b.WriteString(".TP\n\\fB" + appName + " \\-\\-source synthetic \\-\\-sink none\\fR\nWatch three virtual mice without moving the real cursor.\n")
	b.WriteString(".TP\n\\fB" + appName + " devices\\fR\nList pointer devices and permission hints.\n")
	b.WriteString(".TP\n\\fB" + appName + " audit export \\-\\-out audit.enc\\fR\nWrite a passphrase-encrypted copy of the audit log; \\-\\-all adds rotated logs.\n")
	b.WriteString(".TP\n\\fB" + appName + " audit decrypt audit.enc\\fR\nPrint a decrypted export.\n")
	b.WriteString(".SH FILES\nConfig files named multimouse.json, multimouse.yaml or multimouse.toml are read from the working directory, the user config directory and /etc/multimouse.\n")
	b.WriteString("The audit log is written to $XDG_STATE_HOME/multimouse/audit (~/.local/state/multimouse/audit) unless \\-\\-audit.dir or \\-\\-audit.disable is given.\n")
	b.WriteString(".SH SEE ALSO\nProject homepage: https://github.com/stigoleg/multimouse\n")
	return os.WriteFile(filepath.Join("man", appName+".1"), []byte(b.String()), 0o644)
}

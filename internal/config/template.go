package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// ErrDestinationExists is returned when InitCommand would overwrite a file.
var ErrDestinationExists = errors.New("destination exists; use --force to overwrite")

// InitCommand writes a config file populated with every option's default.
type InitCommand struct {
	Format string `help:"Output format" enum:"json,yaml,toml" default:"yaml"`
	Output string `help:"Destination file path (defaults to multimouse.<format> in the current directory)"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

// Run is called by Kong for "config init".
func (c *InitCommand) Run() error {
	path, err := c.Write()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// Write renders the template and returns the path it was written to.
func (c *InitCommand) Write() (string, error) {
	format := normalizeFormat(c.Format)
	if format == "" {
		return "", fmt.Errorf("unsupported format: %s", c.Format)
	}

	dest := c.Output
	if dest == "" {
		dest = AppName + "." + extension(format)
	}
	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return "", ErrDestinationExists
		}
	}

	data, err := Render(format)
	if err != nil {
		return "", err
	}
	if err := EnsureDir(dest); err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", err
	}
	return dest, nil
}

// Render encodes the option defaults in the given format. Keys follow the
// flag names with dashes turned into underscores and prefixes into tables,
// which is how the config loaders look them up.
func Render(format string) ([]byte, error) {
	root := Template()
	switch normalizeFormat(format) {
	case "json":
		data, err := json.MarshalIndent(root, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml":
		return yaml.Marshal(root)
	case "toml":
		return toml.Marshal(root)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Template returns the config file tree for the run options and logging.
func Template() map[string]any {
	root := buildMapFromStruct(reflect.TypeOf(Session{}))
	root["log"] = buildMapFromStruct(reflect.TypeOf(Log{}))
	return root
}

func normalizeFormat(f string) string {
	switch strings.ToLower(f) {
	case "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return ""
	}
}

// flagName derives the flag name of a field the way the parser does:
// MaxBytes becomes max-bytes.
func flagName(f reflect.StructField) string {
	if name := f.Tag.Get("name"); name != "" {
		return name
	}
	var b strings.Builder
	runes := []rune(f.Name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// configKey is the config file key of a field: MaxBytes becomes max_bytes.
func configKey(f reflect.StructField) string {
	return strings.ReplaceAll(flagName(f), "-", "_")
}

// FlagDoc describes one command line flag for generated documentation.
type FlagDoc struct {
	Name    string
	Help    string
	Default string
	Enum    []string
	Bool    bool
}

// Flags lists the logging and run flags in declaration order.
func Flags() []FlagDoc {
	docs := collectFlags(reflect.TypeOf(Log{}), "log.")
	return append(docs, collectFlags(reflect.TypeOf(Session{}), "")...)
}

func collectFlags(t reflect.Type, prefix string) []FlagDoc {
	var docs []FlagDoc
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("kong") == "-" {
			continue
		}
		if _, ok := f.Tag.Lookup("embed"); ok {
			docs = append(docs, collectFlags(f.Type, prefix+f.Tag.Get("prefix"))...)
			continue
		}
		doc := FlagDoc{
			Name:    prefix + flagName(f),
			Help:    f.Tag.Get("help"),
			Default: f.Tag.Get("default"),
			Bool:    f.Type.Kind() == reflect.Bool,
		}
		if enum := f.Tag.Get("enum"); enum != "" {
			doc.Enum = strings.Split(enum, ",")
		}
		docs = append(docs, doc)
	}
	return docs
}

func buildMapFromStruct(t reflect.Type) map[string]any {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := map[string]any{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("kong") == "-" {
			continue
		}

		if _, ok := f.Tag.Lookup("embed"); ok {
			name := strings.TrimSuffix(f.Tag.Get("prefix"), ".")
			sub := buildMapFromStruct(f.Type)
			if name != "" {
				out[strings.ReplaceAll(name, "-", "_")] = sub
			} else {
				for k, v := range sub {
					out[k] = v
				}
			}
			continue
		}

		if val := defaultValueForField(f.Type, f.Tag.Get("default")); val != nil {
			out[configKey(f)] = val
		}
	}
	return out
}

func defaultValueForField(t reflect.Type, def string) any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "time" && t.Name() == "Duration" {
		if def != "" {
			return def
		}
		return "0s"
	}
	switch t.Kind() {
	case reflect.String:
		return def
	case reflect.Bool:
		b, _ := strconv.ParseBool(def)
		return b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := strconv.ParseInt(def, 10, 64)
		return n
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _ := strconv.ParseUint(def, 10, 64)
		return n
	case reflect.Float32, reflect.Float64:
		f, _ := strconv.ParseFloat(def, 64)
		return f
	case reflect.Struct:
		return buildMapFromStruct(t)
	default:
		return nil
	}
}

package lang

// This file defines the built-in names available to every expression
// evaluated by [ExprEvaluator]. The static portion is built once per process
// and cloned on every evaluation, so callers may mutate the returned map
// without affecting the shared copy.
//
// Bindings shadow builtins of the same name.

import (
	"bufio"
	"maps"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/mung"
	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var builtinCache = sync.OnceValue(func() map[string]any {
	return map[string]any{
		// System information.
		"target":   getTarget(),
		"platform": getPlatform(),
		"hostname": getHostname(),
		"username": getUsername(),
		"shell":    getShell(),

		// Working directory.
		"cwd": getCwd,

		// Case conversion.
		"title": titleCase,

		// Filesystem functions.
		"file": map[string]any{
			"exists":    fileExists,
			"isDir":     fileIsDir,
			"isRegular": fileIsRegular,
			"isSymlink": fileIsSymlink,
			"read":      fileRead,
		},

		// Path manipulation functions.
		"path": map[string]any{
			"abs":  pathAbs,
			"cat":  pathCat,
			"rel":  pathRel,
			"base": filepath.Base,
			"dir":  filepath.Dir,
			"ext":  filepath.Ext,
		},

		// PATH-like string manipulation via mung.
		"mung": map[string]any{
			"prefix":   mungPrefix,
			"prefixif": mungPrefixIf,
		},

		// Identifier inflection.
		"inflect": map[string]any{
			"camelize":    inflect.Camelize,
			"camelLower":  inflect.CamelizeDownFirst,
			"underscore":  inflect.Underscore,
			"dasherize":   inflect.Dasherize,
			"humanize":    inflect.Humanize,
			"capitalize":  inflect.Capitalize,
			"pluralize":   inflect.Pluralize,
			"singularize": inflect.Singularize,
		},
	}
})

// Builtins returns a copy of the static built-in names.
func Builtins() map[string]any {
	return maps.Clone(builtinCache())
}

// BuiltinKeys returns the sorted top-level built-in names, including the
// binding functions added per evaluation.
func BuiltinKeys() []string {
	keys := slices.AppendSeq(
		[]string{"env", "set", "defined", "lookup"},
		maps.Keys(builtinCache()),
	)

	slices.Sort(keys)

	return keys
}

// BuiltinLookup returns the sorted member names of the built-in namespace at
// the dot-separated path, or nil when path does not name a namespace.
//
// The "env" namespace lists process environment variable names.
func BuiltinLookup(path string) []string {
	if path == "" {
		return BuiltinKeys()
	}

	if path == "env" {
		return slices.Sorted(maps.Keys(buildProcessEnvMap(nil)))
	}

	var current any = builtinCache()

	for seg := range strings.SplitSeq(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		if current, ok = m[seg]; !ok {
			return nil
		}
	}

	if m, ok := current.(map[string]any); ok {
		return slices.Sorted(maps.Keys(m))
	}

	return nil
}

// bindingFuncs returns the functions that read and write env. They are
// rebuilt per evaluation since they close over the live environment.
func bindingFuncs(env Env) map[string]any {
	return map[string]any{
		"set": func(name string, v any) any {
			env.Set(name, ValueOf(v))

			return v
		},
		"defined": func(name string) bool {
			_, ok := env.Lookup(name)

			return ok
		},
		"lookup": func(name string, fallback ...any) any {
			if v, ok := env.Lookup(name); ok {
				return v.Any()
			}

			if len(fallback) > 0 {
				return fallback[0]
			}

			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// System information helpers
// ---------------------------------------------------------------------------

// target contains string identifiers for a target operating system and
// instruction set architecture.
type target struct {
	OS   string
	Arch string
}

// getTarget returns the host target using GNU GCC/LLVM naming conventions.
func getTarget() target {
	t := getPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// getPlatform returns the host target using Go conventions, preferring
// GOOS/GOARCH from the environment when set.
func getPlatform() target {
	o, ok := os.LookupEnv("GOOS")
	if !ok {
		o = runtime.GOOS
	}

	a, ok := os.LookupEnv("GOARCH")
	if !ok {
		a = runtime.GOARCH
	}

	return target{OS: o, Arch: a}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func getUsername() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}

	return u.Username
}

func getShell() string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	name := getUsername()
	if name == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}

	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		e := strings.Split(s.Text(), ":")
		if len(e) > 6 && e[0] == name {
			return e[6]
		}
	}

	return ""
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

// titleCase upper-cases the first letter of each word using English rules.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// ---------------------------------------------------------------------------
// Filesystem functions
// ---------------------------------------------------------------------------

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// fileRead returns the content of the named file, or an error that the
// evaluator surfaces to the template.
func fileRead(path string) (string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(buf), nil
}

// ---------------------------------------------------------------------------
// Path manipulation functions
// ---------------------------------------------------------------------------

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// ---------------------------------------------------------------------------
// PATH-like string manipulation (mung)
// ---------------------------------------------------------------------------

func mungPrefix(key string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

func mungPrefixIf(
	key string,
	predicate func(string) bool,
	prefix ...string,
) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(predicate),
	).String()
}

// ---------------------------------------------------------------------------
// Process environment
// ---------------------------------------------------------------------------

// buildProcessEnvMap converts a "KEY=VALUE" string slice to a map.
// If envList is nil, os.Environ() is used.
func buildProcessEnvMap(envList []string) map[string]string {
	if envList == nil {
		envList = os.Environ()
	}

	result := make(map[string]string, len(envList))

	for _, entry := range envList {
		if key, value, ok := strings.Cut(entry, "="); ok {
			result[key] = value
		}
	}

	return result
}

// envFunc returns the built-in env() function that provides
// process environment access to expressions.
func envFunc(processEnv map[string]string) func(string) string {
	return func(key string) string {
		return processEnv[key]
	}
}

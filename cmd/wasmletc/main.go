// Command wasmletc drives one wasmlet package through the full
// lex -> parse -> build -> resolve -> typecheck -> codegen pipeline and
// writes the resulting WebAssembly text format module to disk. Grounded on
// the teacher's cmd/ailang/main.go: a flag.FlagSet of top-level options, a
// handful of color.New(...).SprintFunc() helpers for diagnostic output, and
// one driver function per major action.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/wasmlet/wasmlet/internal/codegen"
	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/loader"
	"github.com/wasmlet/wasmlet/internal/manifest"
	"github.com/wasmlet/wasmlet/internal/printer"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// debugFlags accumulates repeated -debug=STAGE flags, matching
// flag.FlagSet's support for a Value implementing flag.Value.
type debugFlags map[string]bool

func (d debugFlags) String() string {
	var stages []string
	for s := range d {
		stages = append(stages, s)
	}
	return strings.Join(stages, ",")
}

func (d debugFlags) Set(value string) error {
	for _, stage := range strings.Split(value, ",") {
		stage = strings.TrimSpace(stage)
		if stage == "" {
			continue
		}
		switch stage {
		case "tokens", "ast", "resolved", "typecked", "wat", "wasm-validate":
			d[stage] = true
		default:
			return fmt.Errorf("unknown -debug stage %q", stage)
		}
	}
	return nil
}

func main() {
	var (
		nameFlag       string
		outFlag        string
		manifestFlag   string
		noStdlib       bool
		searchPathsRaw stringsFlag
		debug          = make(debugFlags)
	)

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&nameFlag, "name", "", "package name (default: the root file's base name)")
	fs.StringVar(&outFlag, "o", "out.wat", "output path for the generated WebAssembly text module")
	fs.StringVar(&manifestFlag, "manifest", "", "path to a wasmlet.yaml project manifest (overrides other flags)")
	fs.BoolVar(&noStdlib, "no-stdlib", false, "do not prepend an implicit stdlib search path")
	fs.Var(&searchPathsRaw, "search", "extern module search path (repeatable)")
	fs.Var(debug, "debug", "dump an intermediate stage: tokens|ast|resolved|typecked|wat|wasm-validate (repeatable, comma-separated)")

	fs.Parse(os.Args[1:])

	rootPath, name, searchPaths, err := resolveInputs(fs.Arg(0), nameFlag, manifestFlag, []string(searchPathsRaw), noStdlib)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	if err := compile(rootPath, name, searchPaths, outFlag, debug); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}
}

// stringsFlag accumulates every occurrence of a repeated string flag.
type stringsFlag []string

func (s *stringsFlag) String() string { return strings.Join(*s, ",") }
func (s *stringsFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// resolveInputs figures out the root source file, package name, and extern
// search paths to compile with, preferring an explicit -manifest over the
// positional argument plus flags.
func resolveInputs(arg, nameFlag, manifestPath string, searchPaths []string, noStdlib bool) (root, name string, paths []string, err error) {
	if manifestPath != "" {
		m, err := manifest.Load(manifestPath)
		if err != nil {
			return "", "", nil, err
		}
		return m.RootPath(), m.Name, m.ResolvedSearchPaths(), nil
	}
	if arg == "" {
		return "", "", nil, fmt.Errorf("usage: wasmletc [flags] <file.wl>")
	}
	if m, err := manifest.LoadDir(filepath.Dir(arg)); err == nil {
		return m.RootPath(), m.Name, m.ResolvedSearchPaths(), nil
	}

	name = nameFlag
	if name == "" {
		base := filepath.Base(arg)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	dirs := []string{filepath.Dir(arg)}
	dirs = append(dirs, searchPaths...)
	_ = noStdlib // no bundled stdlib directory exists yet to prepend
	return arg, name, dirs, nil
}

// compile drives rootPath through the full pipeline, honoring debug and
// writing the generated module to outPath.
func compile(rootPath, name string, searchPaths []string, outPath string, debug debugFlags) error {
	sink := errors.NewSink()

	if debug["tokens"] {
		if err := dumpTokens(rootPath); err != nil {
			return err
		}
	}

	l := loader.NewPackageLoader(sink, searchPaths)
	pkg, loadErr := l.CompileRoot(name, rootPath)
	if sink.HasErrors() {
		printDiagnostics(sink)
		return fmt.Errorf("compilation failed")
	}
	if loadErr != nil {
		return loadErr
	}

	// loader.CompileRoot drives build, resolve, and typecheck as one
	// uninterrupted pass with no checkpoint in between, so -debug=ast,
	// -debug=resolved, and -debug=typecked all dump the same final,
	// fully Typecked tree rather than three distinct snapshots.
	if debug["ast"] || debug["resolved"] || debug["typecked"] {
		fmt.Fprintln(os.Stderr, cyan("→")+" "+bold("AST")+":")
		fmt.Fprint(os.Stderr, printer.Print(pkg.Root))
	}

	genSink := errors.NewSink()
	wat := codegen.Generate(genSink, pkg, l.ResolveContext().PackagesByPkgID)
	if genSink.HasErrors() {
		printDiagnostics(genSink)
		return fmt.Errorf("codegen failed")
	}

	if debug["wat"] {
		fmt.Fprintln(os.Stderr, cyan("→")+" "+bold("WAT")+":")
		fmt.Fprint(os.Stderr, wat)
	}

	if err := os.WriteFile(outPath, []byte(wat), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Printf("%s wrote %s\n", green("✓"), outPath)

	if debug["wasm-validate"] {
		if err := validateWat(outPath); err != nil {
			return err
		}
		fmt.Printf("%s %s validated\n", green("✓"), outPath)
	}

	return nil
}

// validateWat shells out to wasm-tools validate, the same external
// validator the teacher's cmd/wasm package documents as the expected
// consumer of its own WAT output.
func validateWat(path string) error {
	cmd := exec.Command("wasm-tools", "validate", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("wasm-tools validate failed:\n%s", out)
	}
	return nil
}

func printDiagnostics(sink *errors.Sink) {
	fmt.Fprintf(os.Stderr, "%s %d diagnostic(s):\n", red("Error"), len(sink.Reports()))
	for _, r := range sink.Reports() {
		pos := ""
		if r.Span != nil {
			pos = r.Span.String() + ": "
		}
		fmt.Fprintf(os.Stderr, "  %s %s%s %s\n", red("•"), pos, yellow(r.Code), r.Message)
	}
}

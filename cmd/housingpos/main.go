// housingpos works with housing furniture layouts offline: it decodes
// captured housing buffers, synthesises preview pages from a stored
// layout, converts to and from the layout editor's JSON document, and
// keeps named presets in a local database.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/banshee-data/housing.layout/internal/catalog"
	catalogsqlite "github.com/banshee-data/housing.layout/internal/catalog/sqlite"
	"github.com/banshee-data/housing.layout/internal/config"
	"github.com/banshee-data/housing.layout/internal/housing/preview"
	"github.com/banshee-data/housing.layout/internal/housing/wire"
	"github.com/banshee-data/housing.layout/internal/interchange"
	"github.com/banshee-data/housing.layout/internal/placement"
	"github.com/banshee-data/housing.layout/internal/presets"
	"github.com/banshee-data/housing.layout/internal/session"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

const usage = `housingpos - housing furniture layout tool

Usage: housingpos <command> [options]

Commands:
  decode <buffer.bin>              Decode a captured housing buffer to a layout list
  preview <buffer.bin> <list.json> Write one preview buffer per page of a layout
  export <list.json>               Convert a layout list to an editor document
  import <document.json>           Convert an editor document to a layout list
  tally <list.json>                Print the shopping list for a layout
  preset save <name> <list.json>   Store a layout under a name
  preset load <name>               Print a stored layout
  preset list                      List stored layouts
  preset delete <name>             Remove a stored layout
  catalog import <in.yaml> <out.db> Seed a catalog database from a YAML fixture
  version                          Show version
  help                             Show this help message

Common Flags:
  --config <file>    JSON config file (HOUSING_* variables override it)
  --catalog <path>   Catalog YAML fixture or SQLite database
  --remap <file>     YAML remap overrides
  -v, --verbose      Log summaries; repeat for per-slot detail
`

// commonFlags are accepted by every command that touches layouts.
type commonFlags struct {
	configPath  string
	catalogPath string
	remapPath   string
	verbose     int
}

func (c *commonFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "JSON config file")
	fs.StringVar(&c.catalogPath, "catalog", "", "catalog YAML fixture or SQLite database")
	fs.StringVar(&c.remapPath, "remap", "", "YAML remap overrides")
	fs.CountVarP(&c.verbose, "verbose", "v", "log summaries (-v) or per-slot detail (-vv)")
}

// app is the loaded environment a command runs in.
type app struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	cat    *catalog.Memory
	remap  *wire.RemapTable
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "decode":
		return handleDecode(rest, stdout, stderr)
	case "preview":
		return handlePreview(rest, stdout, stderr)
	case "export":
		return handleExport(rest, stdout, stderr)
	case "import":
		return handleImport(rest, stdout, stderr)
	case "tally":
		return handleTally(rest, stdout, stderr)
	case "preset":
		return handlePreset(rest, stdout, stderr)
	case "catalog":
		return handleCatalog(rest, stdout, stderr)
	case "version":
		return handleVersion(stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		fmt.Fprint(stderr, usage)
		return errUsage
	}
}

// newFlagSet creates a command flag set that reports errors instead of
// exiting.
func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// setup loads config, wires logging and opens the catalog and remap
// table.
func setup(c commonFlags, stdout, stderr io.Writer) (*app, error) {
	setLogWriters(stderr, c.verbose)

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.catalogPath != "" {
		cfg.CatalogPath = &c.catalogPath
	}
	if c.remapPath != "" {
		cfg.RemapPath = &c.remapPath
	}

	cat, err := loadCatalog(cfg.GetCatalogPath())
	if err != nil {
		return nil, err
	}

	remap := wire.DefaultRemapTable()
	if p := cfg.GetRemapPath(); p != "" {
		if remap, err = wire.LoadRemapTable(p); err != nil {
			return nil, err
		}
	}
	return &app{stdout: stdout, stderr: stderr, cfg: cfg, cat: cat, remap: remap}, nil
}

// setLogWriters routes ops logs to w always, diag logs at -v and trace
// logs at -vv.
func setLogWriters(w io.Writer, verbose int) {
	var diag, trace io.Writer
	if verbose >= 1 {
		diag = w
	}
	if verbose >= 2 {
		trace = w
	}
	wire.SetLogWriters(w, diag, trace)
	preview.SetLogWriters(w, diag, trace)
	interchange.SetLogWriters(w, diag, trace)
	session.SetLogWriters(w, diag, trace)
	presets.SetLogWriters(w, diag, trace)
}

func loadCatalog(path string) (*catalog.Memory, error) {
	if path == "" {
		return nil, errors.New("no catalog: set --catalog, catalog_path or HOUSING_CATALOG_PATH")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		store, err := catalogsqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening catalog database: %w", err)
		}
		defer store.Close()
		return store.Load()
	default:
		return catalog.LoadYAML(path)
	}
}

// readList reads a native layout list and resolves it against the
// catalog. Records the catalog does not know are dropped.
func (a *app) readList(path string) ([]*placement.Record, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	records, err := placement.UnmarshalList(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return placement.ResolveNames(records, a.cat), nil
}

// readInput reads path, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to path, or to stdout when path is "" or "-".
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		if _, err := a.stdout.Write(data); err != nil {
			return err
		}
		_, err := io.WriteString(a.stdout, "\n")
		return err
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

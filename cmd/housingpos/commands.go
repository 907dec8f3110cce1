package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/banshee-data/housing.layout/internal/catalog"
	catalogsqlite "github.com/banshee-data/housing.layout/internal/catalog/sqlite"
	"github.com/banshee-data/housing.layout/internal/housing/preview"
	"github.com/banshee-data/housing.layout/internal/housing/wire"
	"github.com/banshee-data/housing.layout/internal/interchange"
	"github.com/banshee-data/housing.layout/internal/placement"
	"github.com/banshee-data/housing.layout/internal/presets"
	"github.com/banshee-data/housing.layout/internal/session"
	"github.com/banshee-data/housing.layout/internal/version"
)

// parse parses args and checks the positional count.
func parse(fs *pflag.FlagSet, args []string, positional int) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errUsage
		}
		return err
	}
	if fs.NArg() != positional {
		return fmt.Errorf("%s: expected %d arguments, got %d", fs.Name(), positional, fs.NArg())
	}
	return nil
}

func handleDecode(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := newFlagSet("decode", stderr)
	common.add(fs)
	out := fs.StringP("out", "o", "", "write the layout list here instead of stdout")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	a, err := setup(common, stdout, stderr)
	if err != nil {
		return err
	}

	buf, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	capture, err := wire.NewCodec(a.cat, a.remap).Decode(buf)
	if err != nil {
		return err
	}
	if capture.Sentinel {
		fmt.Fprintln(a.stderr, "buffer carries the no-layout sentinel")
		return nil
	}
	data, err := placement.MarshalList(capture.Records)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "decoded %d furnishings\n", len(capture.Records))
	return a.writeOutput(*out, data)
}

func handlePreview(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := newFlagSet("preview", stderr)
	common.add(fs)
	outDir := fs.String("out-dir", ".", "directory for page-N.bin files")
	if err := parse(fs, args, 2); err != nil {
		return err
	}
	a, err := setup(common, stdout, stderr)
	if err != nil {
		return err
	}

	template, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := wire.CheckSize(template); err != nil {
		return err
	}
	if wire.IsSentinel(template) {
		return errors.New("preview needs a captured buffer, not the no-layout sentinel")
	}
	records, err := a.readList(fs.Arg(1))
	if err != nil {
		return err
	}

	s, err := a.newSession()
	if err != nil {
		return err
	}
	s.Replace(records)
	if err := s.SetPreviewing(true); err != nil {
		return err
	}

	pages := max(preview.PageCount(len(s.Stored().Flatten())), 1)
	for page := 0; page < pages; page++ {
		buf := make([]byte, len(template))
		copy(buf, template)
		out, err := s.HandleBuffer(buf)
		if err != nil {
			return err
		}
		path := filepath.Join(*outDir, fmt.Sprintf("page-%d.bin", out.Preview.Page))
		if err := os.WriteFile(path, buf, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(a.stdout, "page %d: %d furnishings [%d, %d) -> %s\n",
			out.Preview.Page, out.Preview.Count, out.Preview.Start, out.Preview.End, path)
	}
	return nil
}

func handleExport(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := newFlagSet("export", stderr)
	common.add(fs)
	out := fs.StringP("out", "o", "", "write the document here instead of stdout")
	houseSize := fs.String("house-size", "", "house size name or host size code")
	houseName := fs.String("house-name", "", "district name written to the fixture list")
	district := fs.Uint32("district", 0, "territory place-name id; overrides --house-name")
	scale := fs.Float64("scale", 0, "location scale; overrides interior_scale")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	a, err := setup(common, stdout, stderr)
	if err != nil {
		return err
	}

	records, err := a.readList(fs.Arg(0))
	if err != nil {
		return err
	}

	size := a.cfg.GetHouseSize()
	if *houseSize != "" {
		size = houseSizeArg(*houseSize)
	}
	name := a.cfg.GetHouseName()
	if *houseName != "" {
		name = *houseName
	}
	if *district != 0 {
		name = interchange.DistrictName(*district)
	}
	factor := a.cfg.GetInteriorScale()
	if *scale > 0 {
		factor = *scale
	}

	doc, err := interchange.NewConverter(a.cat, a.cat, factor).Export(records, size, name)
	if err != nil {
		return err
	}
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	return a.writeOutput(*out, data)
}

// houseSizeArg accepts either a size name or the host's numeric size code.
func houseSizeArg(v string) string {
	code, err := strconv.ParseUint(v, 10, 8)
	if err != nil {
		return v
	}
	return interchange.HouseSizeName(uint8(code))
}

func handleImport(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := newFlagSet("import", stderr)
	common.add(fs)
	out := fs.StringP("out", "o", "", "write the layout list here instead of stdout")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	a, err := setup(common, stdout, stderr)
	if err != nil {
		return err
	}

	data, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	s, err := a.newSession()
	if err != nil {
		return err
	}
	if err := s.Import(data); err != nil {
		return err
	}
	list, err := s.ExportList()
	if err != nil {
		return err
	}
	return a.writeOutput(*out, list)
}

func handleTally(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := newFlagSet("tally", stderr)
	common.add(fs)
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	a, err := setup(common, stdout, stderr)
	if err != nil {
		return err
	}
	records, err := a.readList(fs.Arg(0))
	if err != nil {
		return err
	}
	list := &placement.List{Items: records}
	_, err = io.WriteString(a.stdout, placement.FormatTally(placement.Tally(list, a.cfg.GetLanguage())))
	return err
}

func handlePreset(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "usage: housingpos preset save|load|list|delete ...")
		return errUsage
	}
	action, rest := args[0], args[1:]

	var common commonFlags
	fs := newFlagSet("preset "+action, stderr)
	common.add(fs)
	dbPath := fs.String("db", "", "preset database; overrides preset_db")
	out := fs.StringP("out", "o", "", "write the layout list here instead of stdout")
	location := fs.Uint32("location", 0, "territory the layout belongs to")
	houseSize := fs.String("house-size", "", "house size name or host size code")

	positional := map[string]int{"save": 2, "load": 1, "list": 0, "delete": 1}
	n, ok := positional[action]
	if !ok {
		fmt.Fprintf(stderr, "Unknown preset action: %s\n", action)
		return errUsage
	}
	if err := parse(fs, rest, n); err != nil {
		return err
	}
	a, err := setup(common, stdout, stderr)
	if err != nil {
		return err
	}
	path := a.cfg.GetPresetDB()
	if *dbPath != "" {
		path = *dbPath
	}
	store, err := presets.Open(path, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	switch action {
	case "save":
		records, err := a.readList(fs.Arg(1))
		if err != nil {
			return err
		}
		sum, err := store.Save(fs.Arg(0), *location, houseSizeArg(*houseSize), records)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "saved %q (%s): %d furnishings\n", sum.Name, sum.ID, sum.Count)
	case "load":
		p, err := store.Load(fs.Arg(0))
		if err != nil {
			return err
		}
		data, err := placement.MarshalList(p.Records)
		if err != nil {
			return err
		}
		return a.writeOutput(*out, data)
	case "list":
		list, err := store.List()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tID\tCOUNT\tSIZE\tUPDATED")
		for _, sum := range list {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
				sum.Name, sum.ID, sum.Count, sum.HouseSize, sum.UpdatedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	case "delete":
		return store.Delete(fs.Arg(0))
	}
	return nil
}

func handleCatalog(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 || args[0] != "import" {
		fmt.Fprintln(stderr, "usage: housingpos catalog import <in.yaml> <out.db>")
		return errUsage
	}
	fs := newFlagSet("catalog import", stderr)
	if err := parse(fs, args[1:], 2); err != nil {
		return err
	}

	m, err := catalog.LoadYAML(fs.Arg(0))
	if err != nil {
		return err
	}
	store, err := catalogsqlite.Open(fs.Arg(1))
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Replace(m); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s to %s\n", m, fs.Arg(1))
	return nil
}

func handleVersion(stdout io.Writer) error {
	_, err := fmt.Fprintln(stdout, version.String())
	return err
}

func (a *app) newSession() (*session.Session, error) {
	return session.New(session.Options{
		Furniture:     a.cat,
		Stains:        a.cat,
		Remap:         a.remap,
		PageWindow:    a.cfg.GetPageWindow(),
		InteriorScale: a.cfg.GetInteriorScale(),
		Language:      a.cfg.GetLanguage(),
	})
}

// modinfo lists, extracts and inspects the entries of a module archive.
//
// Usage:
//
//	modinfo list    [flags] <module>
//	modinfo extract [flags] <module> <dir>
//	modinfo tag     [flags] <module> <index>
//
// Kraken-compressed entries cannot be read because no decoder is built in;
// they are reported and skipped.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"

	"github.com/meigma/infinite"
	"github.com/meigma/infinite/internal/pathutil"
	"github.com/meigma/infinite/tag"
)

type config struct {
	companion   string
	noCompanion bool
	entryMethod string
	group       string
	tagMagic    string
	tagVersions []uint
	sums        bool
	verbose     bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr, nil)
		return errors.New("missing command")
	}
	command, args := args[0], args[1:]

	var cfg config
	flagSet := pflag.NewFlagSet("modinfo "+command, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&cfg.companion, "companion", "", "companion file (default: <module>_hd1)")
	flagSet.BoolVar(&cfg.noCompanion, "no-companion", false, "do not load a companion file")
	flagSet.StringVar(&cfg.entryMethod, "entry-method", "kraken", "method for unblocked compressed entries: stored, kraken, zstd, lz4")
	flagSet.StringVarP(&cfg.group, "group", "g", "", "only entries of this tag group")
	flagSet.StringVar(&cfg.tagMagic, "tag-magic", tag.DefaultMagic, "expected tag signature")
	flagSet.UintSliceVar(&cfg.tagVersions, "tag-version", []uint{tag.DefaultVersion}, "accepted tag versions")
	flagSet.BoolVar(&cfg.sums, "sums", false, "extract: write BLAKE3 checksums of extracted entries to <dir>/"+sumsFile)
	flagSet.BoolVarP(&cfg.verbose, "verbose", "v", false, "log debug output to stderr")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	args = flagSet.Args()

	switch command {
	case "list":
		if len(args) != 1 {
			return errors.New("usage: modinfo list [flags] <module>")
		}
		m, err := open(args[0], &cfg, stderr)
		if err != nil {
			return err
		}
		return list(stdout, m, cfg.group)
	case "extract":
		if len(args) != 2 {
			return errors.New("usage: modinfo extract [flags] <module> <dir>")
		}
		m, err := open(args[0], &cfg, stderr)
		if err != nil {
			return err
		}
		return extract(stdout, stderr, m, args[1], &cfg)
	case "tag":
		if len(args) != 2 {
			return errors.New("usage: modinfo tag [flags] <module> <index>")
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("parse index: %w", err)
		}
		m, err := open(args[0], &cfg, stderr)
		if err != nil {
			return err
		}
		return dumpTag(stdout, m, index)
	case "help", "-h", "--help":
		printUsage(stdout, flagSet)
		return nil
	default:
		printUsage(stderr, nil)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: modinfo <list|extract|tag> [flags] <module> [args]")
	if flagSet != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		fmt.Fprint(w, flagSet.FlagUsages())
	}
}

func parseMethod(s string) (infinite.Method, error) {
	for _, m := range []infinite.Method{
		infinite.MethodStored, infinite.MethodKraken, infinite.MethodZstd, infinite.MethodLZ4,
	} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown method %q", s)
}

func open(path string, cfg *config, stderr io.Writer) (*infinite.Module, error) {
	method, err := parseMethod(cfg.entryMethod)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	versions := make([]uint32, 0, len(cfg.tagVersions))
	for _, v := range cfg.tagVersions {
		versions = append(versions, uint32(v)) //nolint:gosec // flag values are small
	}

	opts := []infinite.Option{
		infinite.WithLogger(logger),
		infinite.WithEntryMethod(method),
		infinite.WithTagOptions(tag.WithMagic(cfg.tagMagic), tag.WithVersions(versions...)),
	}
	if cfg.companion != "" {
		opts = append(opts, infinite.WithCompanionPath(cfg.companion))
	}
	if cfg.noCompanion {
		opts = append(opts, infinite.WithoutCompanion())
	}
	return infinite.Open(path, opts...)
}

func list(w io.Writer, m *infinite.Module, group string) error {
	fmt.Fprintf(w, "version %s, %d entries, %d blocks, digest %s\n",
		m.Header.Version, m.Len(), len(m.Blocks()), m.Digest())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tGROUP\tID\tBLOCKS\tCOMPRESSED\tSIZE\tPATH")
	for i, e := range m.Entries() {
		if group != "" && e.Group != group {
			continue
		}
		path, err := m.Path(i)
		if err != nil {
			path = "?"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%s\n",
			i, e.Group, e.GlobalID, e.BlockCount, e.TotalCompressed, e.TotalUncompressed, path)
	}
	return tw.Flush()
}

// sumsFile is written next to extracted entries when --sums is set, in the
// two-space "<hex>  <path>" layout b3sum reads.
const sumsFile = "B3SUMS"

func extract(stdout, stderr io.Writer, m *infinite.Module, dir string, cfg *config) error {
	var (
		written, failed int
		sums            strings.Builder
	)
	for i, e := range m.Entries() {
		if cfg.group != "" && e.Group != cfg.group {
			continue
		}
		rel, data, err := extractEntry(m, i, dir)
		if err != nil {
			fmt.Fprintf(stderr, "entry %d: %v\n", i, err)
			failed++
			continue
		}
		written++
		if cfg.sums {
			fmt.Fprintf(&sums, "%x  %s\n", blake3.Sum256(data), filepath.ToSlash(rel))
		}
	}
	if cfg.sums && written > 0 {
		if err := os.WriteFile(filepath.Join(dir, sumsFile), []byte(sums.String()), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", sumsFile, err)
		}
	}
	fmt.Fprintf(stdout, "extracted %d entries, %d failed\n", written, failed)
	if written == 0 && failed > 0 {
		return errors.New("no entries extracted")
	}
	return nil
}

// extractEntry writes entry i under dir and returns its relative path and
// payload.
func extractEntry(m *infinite.Module, i int, dir string) (string, []byte, error) {
	if err := m.ReadTag(i); err != nil {
		return "", nil, err
	}
	e, err := m.Entry(i)
	if err != nil {
		return "", nil, err
	}
	data, err := e.Data()
	if err != nil {
		return "", nil, err
	}

	name, err := m.Path(i)
	if err != nil {
		name = strconv.Itoa(i)
	}
	rel, ok := pathutil.Local(name)
	if !ok {
		return "", nil, fmt.Errorf("unsafe entry path %q", name)
	}
	dst := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return "", nil, err
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return "", nil, err
	}
	return rel, data, nil
}

func dumpTag(w io.Writer, m *infinite.Module, index int) error {
	if err := m.ReadTag(index); err != nil {
		return err
	}
	e, err := m.Entry(index)
	if err != nil {
		return err
	}
	f, err := e.Tag()
	if err != nil {
		return err
	}

	h := f.Header
	fmt.Fprintf(w, "magic %q version %d root %s checksum %#016x\n", h.Magic[:], h.Version, h.RootStruct, h.Checksum)
	fmt.Fprintf(w, "structs %d, fields %d, data blocks %d, resources %d, dependencies %d\n",
		len(f.Structs), len(f.Fields), len(f.DataBlocks), len(f.Resources), len(f.Dependencies))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, s := range f.Structs {
		fmt.Fprintf(tw, "struct %d\t%s\tsize %d\n", i, s.GUID, s.Size)
		for j, fb := range f.FieldsOf(i) {
			target := ""
			if fb.Target != tag.NoTarget {
				target = fmt.Sprintf("-> struct %d", fb.Target)
			}
			fmt.Fprintf(tw, "  field %d\t%s\t@%d\t%d bytes\t%s\n", j, fb.Kind, fb.Offset, fb.Size, target)
		}
	}
	for i, b := range f.DataBlocks {
		fmt.Fprintf(tw, "block %d\t%s\t@%d\t%d bytes\n", i, b.Section, b.Offset, b.Size)
	}
	for i, d := range f.Dependencies {
		fmt.Fprintf(tw, "dependency %d\t%s\t%d\tasset %#x\n", i, d.Group, d.GlobalID, d.AssetID)
	}
	return tw.Flush()
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/modelconv/internal/config"
	"github.com/Faultbox/modelconv/pkg/mesh"
	"github.com/Faultbox/modelconv/pkg/render"
	"github.com/Faultbox/modelconv/pkg/stl"
)

// usageError reports bad command-line input. full asks for the command list.
type usageError struct {
	msg  string
	full bool
}

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

type app struct {
	cfg *config.Config
	log *zap.Logger
	out io.Writer
}

func (a *app) run(args []string) error {
	if len(args) < 1 {
		return usageError{msg: "missing command", full: true}
	}

	command, rest := args[0], args[1:]
	switch command {
	case "info":
		return a.cmdInfo(context.Background(), rest)
	case "faces":
		return a.cmdFaces(rest)
	case "check":
		return a.cmdCheck(rest)
	case "convert", "cp":
		return a.cmdConvert(rest)
	case "svg":
		return a.cmdSVG(rest)
	case "config":
		return a.cmdConfig(rest)
	case "help", "-h", "--help":
		printUsage(a.out)
		return nil
	default:
		return usageError{msg: "Unknown command: " + command, full: true}
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `modelconv - binary STL mesh utility

Usage:
  modelconv [global options] <command> [options]

Global options:
  -config <file>   Config file (default ./modelconv.yaml, then the user config dir)
  -debug           Enable debug logging
  -epsilon <eps>   Per-component normal tolerance for faces (0 = exact)
  -single-loop     Reject faces whose boundary has holes
  -log-file <file> Also write logs to this file

Commands:
  info <file>...                          Show mesh statistics
  faces <file>                            List faces and their boundary loops
  check <file>                            Verify adjacency invariants
  convert [-header text] [-faces 0,2] <in> <out>
                                          Re-export (compression by .gz/.zst extension)
  svg [-labels] [-scale n] <in> <out.svg> Draw face outlines ("-" writes to stdout)
  config [path]                           Write the effective config

Examples:
  modelconv info part.stl other.stl.gz
  modelconv -epsilon 0.001 faces part.stl
  modelconv convert -header "cleaned" part.stl part.stl.zst
  modelconv svg -labels part.stl part.svg`)
}

func (a *app) importFile(path string) (*mesh.Mesh, error) {
	opts := a.cfg.MeshOptions()
	opts.Logger = a.log.Named("mesh").With(zap.String("file", path))
	return mesh.ImportFile(path, opts)
}

func (a *app) cmdInfo(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usagef("Usage: modelconv info <file>...")
	}

	// Files load concurrently; results print in argument order.
	meshes := make([]*mesh.Mesh, len(args))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range args {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := a.importFile(path)
			if err != nil {
				return err
			}
			meshes[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, m := range meshes {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		s := m.Stats()
		fmt.Fprintf(a.out, "File:      %s\n", args[i])
		fmt.Fprintf(a.out, "Header:    %q\n", (&stl.STL{Header: m.Header}).HeaderText())
		fmt.Fprintf(a.out, "Vertices:  %d\n", s.Vertices)
		fmt.Fprintf(a.out, "Triangles: %d\n", s.Triangles)
		fmt.Fprintf(a.out, "Faces:     %d\n", s.Faces)
		fmt.Fprintf(a.out, "Holes:     %d\n", s.Holes)
		fmt.Fprintf(a.out, "Open:      %d edges\n", s.OpenEdges)
		fmt.Fprintf(a.out, "Bounds:    (%g, %g, %g) - (%g, %g, %g)\n",
			s.Min.X, s.Min.Y, s.Min.Z, s.Max.X, s.Max.Y, s.Max.Z)
	}
	return nil
}

func (a *app) cmdFaces(args []string) error {
	if len(args) != 1 {
		return usagef("Usage: modelconv faces <file>")
	}

	m, err := a.importFile(args[0])
	if err != nil {
		return err
	}

	vs := m.Graph.Vertices
	for i := range m.Faces {
		f := &m.Faces[i]
		fmt.Fprintf(a.out, "face %d: normal (%g, %g, %g), %d triangles, area %.4g\n",
			i, f.Normal.X, f.Normal.Y, f.Normal.Z, f.Len(), f.Area(vs))
		fmt.Fprintf(a.out, "  boundary: %s\n", formatLoop(f.Boundary))
		for _, h := range f.Holes {
			fmt.Fprintf(a.out, "  hole:     %s\n", formatLoop(h))
		}
	}
	return nil
}

func formatLoop(l mesh.Loop) string {
	parts := make([]string, len(l))
	for i, id := range l {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, " ")
}

func (a *app) cmdCheck(args []string) error {
	if len(args) != 1 {
		return usagef("Usage: modelconv check <file>")
	}

	m, err := a.importFile(args[0])
	if err != nil {
		return err
	}
	if err := m.Graph.Validate(); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	s := m.Stats()
	closed := "closed"
	if s.OpenEdges > 0 {
		closed = fmt.Sprintf("open (%d boundary edges)", s.OpenEdges)
	}
	fmt.Fprintf(a.out, "%s: ok, %d triangles, %d faces, %s\n", args[0], s.Triangles, s.Faces, closed)
	return nil
}

func (a *app) cmdConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	header := fs.String("header", "", "Replace the 80-byte header")
	faces := fs.String("faces", "", "Comma-separated face indices to export (default all)")
	if err := fs.Parse(args); err != nil {
		return usagef("convert: %v", err)
	}
	if fs.NArg() != 2 {
		return usagef("Usage: modelconv convert [-header text] [-faces 0,2] <in> <out>")
	}
	in, out := fs.Arg(0), fs.Arg(1)

	text := a.cfg.Export.Header
	if *header != "" {
		text = *header
	}
	if len(text) > stl.HeaderSize {
		return usagef("convert: header is %d bytes, at most %d fit", len(text), stl.HeaderSize)
	}

	m, err := a.importFile(in)
	if err != nil {
		return err
	}

	result := m.Export()
	if text != "" {
		result.SetHeaderText(text)
	}
	if *faces != "" {
		indices, err := parseIndices(*faces)
		if err != nil {
			return usagef("convert: -faces: %v", err)
		}
		if result.Triangles, err = m.ExportFaces(indices...); err != nil {
			return err
		}
	}

	start := time.Now()
	if err := result.WriteFile(out); err != nil {
		return err
	}
	a.log.Info("converted",
		zap.String("in", in),
		zap.String("out", out),
		zap.Stringer("compression", stl.CompressionFor(out)),
		zap.Int("triangles", len(result.Triangles)),
		zap.Duration("elapsed", time.Since(start)))

	fmt.Fprintf(a.out, "%s -> %s (%d triangles)\n", in, out, len(result.Triangles))
	return nil
}

func parseIndices(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (a *app) cmdSVG(args []string) error {
	opts := a.cfg.SVGOptions()

	fs := flag.NewFlagSet("svg", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&opts.Labels, "labels", opts.Labels, "Write face indices")
	fs.Float64Var(&opts.Scale, "scale", opts.Scale, "Pixels per model unit")
	if err := fs.Parse(args); err != nil {
		return usagef("svg: %v", err)
	}
	if fs.NArg() != 2 {
		return usagef("Usage: modelconv svg [-labels] [-scale n] <in> <out.svg>")
	}

	m, err := a.importFile(fs.Arg(0))
	if err != nil {
		return err
	}

	if fs.Arg(1) == "-" {
		return render.WriteSVG(a.out, m, opts)
	}

	f, err := os.Create(fs.Arg(1))
	if err != nil {
		return err
	}
	if err := render.WriteSVG(f, m, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.log.Info("svg written", zap.String("out", fs.Arg(1)), zap.Int("faces", len(m.Faces)))
	return nil
}

func (a *app) cmdConfig(args []string) error {
	if len(args) > 1 {
		return usagef("Usage: modelconv config [path]")
	}

	var (
		path string
		err  error
	)
	if len(args) == 1 {
		path = args[0]
		err = a.cfg.SaveTo(path)
	} else {
		path, err = a.cfg.Save()
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "config written to %s\n", path)
	return nil
}

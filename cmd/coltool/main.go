// coltool is a CLI utility for inspecting and rewriting GTA COL
// collision files.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/X-Seti/Col-Workshop/internal/config"
	"github.com/X-Seti/Col-Workshop/internal/logger"
	"github.com/X-Seti/Col-Workshop/pkg/col"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	defer log.Sync()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	opts := col.Options{
		Strict:    cfg.Load.Strict,
		MaxModels: cfg.Load.MaxModels,
		Log:       log,
	}

	switch args[0] {
	case "info":
		cmdInfo(args[1:], opts)
	case "list", "ls":
		cmdList(args[1:], opts)
	case "validate":
		cmdValidate(args[1:], opts)
	case "rewrite":
		cmdRewrite(args[1:], opts, cfg.Output.Backup, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`coltool - GTA collision file utility

Usage:
  coltool [flags] <command> [arguments]

Commands:
  info <file.col>              Show per-model summary
  list <file.col>              List model names, one per line
  validate <file.col>          Check every model's invariants
  rewrite <file.col> [output]  Decode and re-encode (in place by default)

Flags:
  -config <path>   Config file (default: colworkshop.yaml)
  -debug           Debug logging
  -strict          Abort loads at the first malformed chunk
  -no-backup       Skip .bak copies when overwriting
  -max-models <n>  Cap models per file

Examples:
  coltool info props.col
  coltool -strict validate countn2.col
  coltool rewrite old.col fixed.col`)
}

func loadOrDie(path string, opts col.Options) *col.File {
	f, err := col.LoadFile(path, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return f
}

func cmdInfo(args []string, opts col.Options) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: coltool info <file.col>")
		os.Exit(1)
	}

	f := loadOrDie(args[0], opts)

	fmt.Printf("File:   %s\n", f.Path)
	fmt.Printf("Models: %d\n", f.ModelCount())
	if len(f.Errors) > 0 {
		fmt.Printf("Errors: %d (first: %s)\n", len(f.Errors), f.LoadError)
	}
	fmt.Println()

	for i, m := range f.Models {
		fmt.Printf("[%d] %-22s %s id=%d\n", i, m.Name, m.Version, m.ID)
		fmt.Printf("    spheres=%d boxes=%d vertices=%d faces=%d",
			len(m.Spheres), len(m.Boxes), len(m.Vertices), len(m.Faces))
		if m.HasFaceGroups() {
			fmt.Printf(" groups=%d", len(m.FaceGroups))
		}
		if m.HasShadowMesh() {
			fmt.Printf(" shadow=%dv/%df", len(m.ShadowVertices), len(m.ShadowFaces))
		}
		fmt.Println()
		fmt.Printf("    bounds min=%s max=%s radius=%.2f\n",
			m.Bounds.Min, m.Bounds.Max, m.Bounds.Radius)
	}
}

func cmdList(args []string, opts col.Options) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: coltool list <file.col>")
		os.Exit(1)
	}

	f := loadOrDie(args[0], opts)
	for _, m := range f.Models {
		fmt.Println(m.Name)
	}
}

func cmdValidate(args []string, opts col.Options) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: coltool validate <file.col>")
		os.Exit(1)
	}

	f := loadOrDie(args[0], opts)

	bad := len(f.Errors)
	for _, err := range f.Errors {
		fmt.Printf("LOAD  %v\n", err)
	}
	for i, m := range f.Models {
		if err := m.Validate(); err != nil {
			fmt.Printf("MODEL %d (%q): %v\n", i, m.Name, err)
			bad++
		}
	}

	if bad > 0 {
		fmt.Printf("%d problem(s) in %d model(s)\n", bad, f.ModelCount())
		os.Exit(1)
	}
	fmt.Printf("OK: %d model(s)\n", f.ModelCount())
}

func cmdRewrite(args []string, opts col.Options, backup bool, log *zap.Logger) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: coltool rewrite <file.col> [output]")
		os.Exit(1)
	}

	f := loadOrDie(args[0], opts)

	out := args[0]
	if len(args) > 1 {
		out = args[1]
	}

	if backup && out == args[0] {
		if err := os.Rename(out, out+".bak"); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error: backing up %s: %v\n", out, err)
			os.Exit(1)
		}
	}

	if err := f.SaveFile(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log.Info("rewrote file", zap.String("path", out), zap.Int("models", f.ModelCount()))
	fmt.Printf("Wrote %d model(s) to %s\n", f.ModelCount(), out)
}

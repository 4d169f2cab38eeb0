// Command sicasm is a two-pass SIC assembler: it reads one source file and
// writes a SCOFF object file named after the source file's base name (its
// directory and extension stripped) into the current directory.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/houmank/sicassembler/assembler"
	"github.com/houmank/sicassembler/config"
	"github.com/houmank/sicassembler/directive"
	"github.com/houmank/sicassembler/opcode"
	"github.com/houmank/sicassembler/scoff"
)

// Version can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("sicasm", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		showVersion     = fs.Bool("version", false, "Show version information")
		debugMode       = fs.Bool("debug", false, "Dump the symbol table to stderr after pass 1")
		extendedEdition = fs.Bool("xe", false, "Enable XE-only and floating-point instructions")
		opcodeFile      = fs.String("opcodes", "", "Path to the opcode descriptor file (default: from config)")
		configPath      = fs.String("config", "", "Path to a config.toml (default: platform config directory)")
	)

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Printf("sicasm %s\n", Version)
		return 0
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: sicasm [flags] <source-file>\n")
		fs.PrintDefaults()
		return 1
	}
	sourcePath := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sicasm: %v\n", err)
		return 1
	}
	if *extendedEdition {
		cfg.Assembler.ExtendedEdition = true
	}
	if *debugMode {
		cfg.Assembler.Debug = true
	}
	if *opcodeFile != "" {
		cfg.Assembler.OpcodeFile = *opcodeFile
	}

	opTab, err := loadOpcodeTable(cfg.Assembler.OpcodeFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sicasm: %v\n", err)
		return 1
	}

	srcFile, err := os.Open(sourcePath) // #nosec G304 -- user-supplied source path
	if err != nil {
		fmt.Fprintf(os.Stderr, "sicasm: %v\n", err)
		return 1
	}
	defer srcFile.Close()

	opts := assembler.Options{
		ExtendedEdition: cfg.Assembler.ExtendedEdition,
		Debug:           cfg.Assembler.Debug,
		DebugWriter:     os.Stderr,
	}

	records, err := assembler.Assemble(sourcePath, srcFile, opTab, directive.New(), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sicasm: %v\n", err)
		return 1
	}

	objectPath := scoff.ObjectFileName(sourcePath, cfg.Assembler.ObjectExtension)
	if err := scoff.Write(objectPath, records); err != nil {
		fmt.Fprintf(os.Stderr, "sicasm: failed to write object file: %v\n", err)
		return 1
	}

	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func loadOpcodeTable(path string) (*opcode.Table, error) {
	f, err := os.Open(path) // #nosec G304 -- configured opcode descriptor path
	if err != nil {
		return nil, fmt.Errorf("opening opcode file: %w", err)
	}
	defer f.Close()

	tab, err := opcode.Load(f)
	if err != nil {
		return nil, fmt.Errorf("parsing opcode file: %w", err)
	}
	return tab, nil
}

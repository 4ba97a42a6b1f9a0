// shmregctl is an interactive CLI for exercising a shmreg registry against
// the example vector/set containers.
//
// Usage:
//
//	shmregctl [flags]
//
// Flags:
//
//	-c, --config <path>       Explicit config file (JSONC)
//	-d, --segment-dir <dir>   Directory for example containers' segment files
//	-g, --group <name>        Manager group name (default "shmregctl")
//	-a, --app-id <id>         App ID tag for registry/segment operations
//
// Commands (in REPL):
//
//	register-vec <snapshot>        Register a uint64-record vector
//	register-set <snapshot>        Register a 4-byte-key set
//	get-vec <path>                 Print a previously registered vector
//	get-set <path>                 Print a previously registered set
//	verify <path> <md5>            Verify path against an expected digest
//	release <path>                 Drop this session's local reference
//	clear-unregistered             Reclaim orphaned on-disk segments
//	info                           Show process configuration
//	help                           Show this help
//	exit / quit / q                Exit
package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/shmreg/internal/config"
	"github.com/calvinalkan/shmreg/internal/container"
	"github.com/calvinalkan/shmreg/pkg/shmreg"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("shmregctl", flag.ExitOnError)

	configPath := fs.StringP("config", "c", "", "explicit config file (JSONC)")
	segmentDir := fs.StringP("segment-dir", "d", "", "directory for example containers' segment files")
	group := fs.StringP("group", "g", "shmregctl", "manager group name")
	appID := fs.IntP("app-id", "a", 0, "app ID tag for registry/segment operations")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: shmregctl [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cfg, _, err := config.Load(workDir, *configPath, config.Config{SegmentDir: *segmentDir}, os.Environ())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	shmreg.Configure(shmreg.Config{
		WorkerCount:   cfg.WorkerCount,
		SweepInterval: cfg.SweepIntervalDuration(),
	})

	segDir := cfg.SegmentDir
	if !filepath.IsAbs(segDir) {
		segDir = filepath.Join(workDir, segDir)
	}

	shmreg.SetSegmentReclaimer(container.DirLister(segDir), container.DirDestroyer(segDir))

	verifiedCachePath := filepath.Join(segDir, ".verified-cache.json")
	if err := shmreg.LoadVerifiedCache(verifiedCachePath); err != nil {
		return fmt.Errorf("loading verified cache: %w", err)
	}

	mgr := shmreg.NewManager(*group, *appID)
	defer mgr.Close()

	repl := &REPL{mgr: mgr, segDir: segDir, appID: *appID, cfg: cfg, verifiedCachePath: verifiedCachePath}

	return repl.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	mgr               *shmreg.Manager
	segDir            string
	appID             int
	cfg               config.Config
	verifiedCachePath string
	liner             *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".shmregctl_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("shmregctl - shared container registry CLI (group=%s app_id=%d)\n", r.mgr.GroupName(), r.appID)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("shmregctl> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "register-vec":
			r.cmdRegisterVec(args)

		case "register-set":
			r.cmdRegisterSet(args)

		case "get-vec":
			r.cmdGetVec(args)

		case "get-set":
			r.cmdGetSet(args)

		case "verify":
			r.cmdVerify(args)

		case "release":
			r.cmdRelease(args)

		case "clear-unregistered":
			r.cmdClearUnregistered()

		case "info":
			r.cmdInfo()

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			_, _ = r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"register-vec", "register-set", "get-vec", "get-set",
		"verify", "release", "clear-unregistered", "info",
		"help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  register-vec <snapshot>   Register a uint64-record vector")
	fmt.Println("  register-set <snapshot>   Register a 4-byte-key set")
	fmt.Println("  get-vec <path>            Print a previously registered vector")
	fmt.Println("  get-set <path>            Print a previously registered set")
	fmt.Println("  verify <path> <md5>       Verify path against an expected digest")
	fmt.Println("  release <path>            Drop this session's local reference")
	fmt.Println("  clear-unregistered        Reclaim orphaned on-disk segments")
	fmt.Println("  info                      Show process configuration")
	fmt.Println("  help                      Show this help")
	fmt.Println("  exit / quit / q           Exit")
}

func (r *REPL) vectorFactory() shmreg.ContainerFactory[*container.Vector[uint64]] {
	return container.New(
		filepath.Join(r.segDir, "vectors"),
		8,
		func(v uint64) []byte {
			b := make([]byte, 8)
			binary.LittleEndian.PutUint64(b, v)

			return b
		},
		func(b []byte) uint64 { return binary.LittleEndian.Uint64(b) },
	)
}

func (r *REPL) setFactory() shmreg.ContainerFactory[*container.Set] {
	return container.NewSet(filepath.Join(r.segDir, "sets"), 4)
}

func (r *REPL) cmdRegisterVec(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: register-vec <snapshot>")

		return
	}

	vec, err := shmreg.Register(r.mgr, args[0], r.vectorFactory())
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: registered vector with %d records\n", vec.Size())
}

func (r *REPL) cmdRegisterSet(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: register-set <snapshot>")

		return
	}

	set, err := shmreg.Register(r.mgr, args[0], r.setFactory())
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: registered set with %d members\n", set.Size())
}

func (r *REPL) cmdGetVec(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: get-vec <path>")

		return
	}

	vec, err := shmreg.GetContainerPtr[*container.Vector[uint64]](args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	n := vec.Size()

	fmt.Printf("Vector: %d records\n", n)

	for i := int64(0); i < n && i < 20; i++ {
		fmt.Printf("  [%d] %d\n", i, vec.At(i))
	}

	if n > 20 {
		fmt.Printf("  ... (%d more)\n", n-20)
	}
}

func (r *REPL) cmdGetSet(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: get-set <path>")

		return
	}

	set, err := shmreg.GetContainerPtr[*container.Set](args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("Set: %d members\n", set.Size())
}

func (r *REPL) cmdVerify(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: verify <path> <md5>")

		return
	}

	expected := map[string]string{args[0]: args[1]}

	err := shmreg.VerifyFiles(expected, nil, r.appID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if err := shmreg.SaveVerifiedCache(r.verifiedCachePath); err != nil {
		fmt.Printf("Warning: could not persist verified cache: %v\n", err)
	}

	fmt.Println("OK: digest matches")
}

func (r *REPL) cmdRelease(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: release <path>")

		return
	}

	if err := r.mgr.ReleasePath(args[0]); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: released local reference (path=%s)\n", args[0])
}

func (r *REPL) cmdClearUnregistered() {
	if err := shmreg.ClearUnregistered(r.appID); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println("OK: cleared unregistered segments")
}

func (r *REPL) cmdInfo() {
	fmt.Printf("Config:\n")
	fmt.Printf("  Worker count:    %d\n", r.cfg.WorkerCount)
	fmt.Printf("  Sweep interval:  %s\n", r.cfg.SweepIntervalDuration())
	fmt.Printf("  Segment dir:     %s\n", r.segDir)
	fmt.Printf("  Group:           %s\n", r.mgr.GroupName())
	fmt.Printf("  App ID:          %d\n", r.appID)
}

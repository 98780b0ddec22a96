// Command slopos boots a host: it loads configuration, wires the
// console/block-device/scheduler platform, constructs the boot thread's
// Runtime, and evaluates the boot program. There is no third-party CLI
// framework in the dependency pool this module draws from, so flag
// parsing here is the standard library's flag package — see DESIGN.md.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/arjunguha/slopos/boot"
	"github.com/arjunguha/slopos/config"
	"github.com/arjunguha/slopos/internal/klog"
	"github.com/arjunguha/slopos/internal/sched"
	"github.com/arjunguha/slopos/platform"
	"github.com/arjunguha/slopos/scheme"
)

func main() {
	configPath := flag.String("config", "", "path to a boot.toml configuration file")
	diskPath := flag.String("disk", "", "path to a RAM-disk image (overrides the config file's disk_path)")
	bootPath := flag.String("boot", "", "path to a boot program (defaults to the embedded boot.scm)")
	logLevel := flag.String("log-level", "info", "debug, info, warn, error, or fatal")
	flag.Parse()

	logger := klog.New(os.Stderr, parseLevel(*logLevel))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Str("err", err.Error()).Log("failed to load configuration")
	}
	if *diskPath != "" {
		cfg.DiskPath = *diskPath
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Str("err", err.Error()).Log("invalid configuration")
	}

	image, backing := loadDisk(cfg.DiskPath, logger)
	disk := platform.NewBlockDevice(image, backing)
	console := platform.NewConsole(os.Stdout)
	scheduler := sched.New(cfg.ThreadTableSize)

	limits := scheme.Limits{
		HeapCells:        cfg.HeapCells,
		SymbolArenaBytes: cfg.SymbolArenaBytes,
		StringArenaBytes: cfg.StringArenaBytes,
		RootStackDepth:   cfg.RootStackDepth,
	}

	hostPort := &platform.HostPort{
		Console:   console,
		Disk:      disk,
		Scheduler: scheduler,
		Log:       logger,
	}
	hostPort.OnShutdown = func() {
		logger.Info().Log("shutdown requested via foreign-call")
		os.Exit(0)
	}
	hostPort.Spawn = func(code []byte) (int, error) {
		rt := scheme.New(limits, hostPort)
		return scheduler.Spawn(func() { rt.EvalString(code) })
	}

	go feedConsoleFromStdin(console)
	go driveTicker(scheduler, time.Duration(cfg.TickMillis)*time.Millisecond)

	bootProgram := boot.DefaultProgram
	if *bootPath != "" {
		b, err := os.ReadFile(*bootPath)
		if err != nil {
			logger.Fatal().Str("err", err.Error()).Log("failed to read boot program")
		}
		bootProgram = b
	}

	logger.Info().Int("heap_cells", cfg.HeapCells).Int("thread_table_size", cfg.ThreadTableSize).Log("booting")

	bootRuntime := scheme.New(limits, hostPort)
	bootRuntime.EvalString(bootProgram)
}

func parseLevel(s string) klog.Level {
	switch s {
	case "debug":
		return klog.LevelDebug
	case "warn":
		return klog.LevelWarn
	case "error":
		return klog.LevelError
	case "fatal":
		return klog.LevelFatal
	default:
		return klog.LevelInfo
	}
}

// fileBacking commits per-sector writes back to the on-disk image file, per
// spec §6's "copy the overlapping portion of each affected sector and issue
// a full-sector write" contract.
type fileBacking struct {
	f *os.File
}

func (b *fileBacking) WriteSector(sectorIndex int, sector []byte) error {
	_, err := b.f.WriteAt(sector, int64(sectorIndex)*platform.SectorSize)
	return err
}

// loadDisk reads an existing image file if path is set (opening it
// read-write so fileBacking can persist writes back), or falls back to a
// zeroed in-memory image with no backing store (write_bytes then succeeds
// but never persists, matching the "no-op on hosts without persistent
// storage" allowance in §4.1).
func loadDisk(path string, logger *klog.Logger) ([]byte, platform.Backing) {
	const defaultImageSize = 1 << 20 // 1 MiB

	if path == "" {
		return make([]byte, defaultImageSize), nil
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		logger.Warning().Str("path", path).Str("err", err.Error()).Log("could not open disk image, using an empty in-memory disk")
		return make([]byte, defaultImageSize), nil
	}
	info, err := f.Stat()
	if err != nil {
		logger.Warning().Str("path", path).Str("err", err.Error()).Log("could not stat disk image, using an empty in-memory disk")
		return make([]byte, defaultImageSize), nil
	}
	image := make([]byte, info.Size())
	if _, err := f.ReadAt(image, 0); err != nil {
		logger.Warning().Str("path", path).Str("err", err.Error()).Log("could not read disk image, using a zeroed copy")
	}
	return image, &fileBacking{f: f}
}

// feedConsoleFromStdin copies bytes from the process's stdin into the
// shared console's input buffer, simulating the host side of the UART's
// data-ready status bit for a terminal-attached boot.
func feedConsoleFromStdin(console *platform.Console) {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			console.Feed(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// driveTicker calls Scheduler.Tick on a fixed period, standing in for the
// timer ISR of spec §5: it only ever touches the thread table, never the
// Scheme heap.
func driveTicker(scheduler *sched.Scheduler, period time.Duration) {
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for range t.C {
		scheduler.Tick()
	}
}

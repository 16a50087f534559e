package main

import (
	crand "crypto/rand"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/mit-pdos/go-flatfs/disk"
	"github.com/mit-pdos/go-flatfs/hostdir"
	"github.com/mit-pdos/go-flatfs/mkfs"
	"github.com/mit-pdos/go-flatfs/util"
)

type config struct {
	input    string
	output   string
	compress bool
	seed     int64
}

func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// without drops the image being written from the names to pack when the
// output lives in the input directory, so a rebuild never packs the previous
// image.
func without(names []string, input, output string) ([]string, error) {
	in, err := filepath.Abs(input)
	if err != nil {
		return nil, err
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return nil, err
	}
	if filepath.Dir(out) != in {
		return names, nil
	}
	base := filepath.Base(out)
	kept := names[:0]
	for _, name := range names {
		if name != base {
			kept = append(kept, name)
		}
	}
	return kept, nil
}

func run(cfg config) error {
	dir, err := hostdir.Open(cfg.input)
	if err != nil {
		return err
	}
	if err := dir.Prepare(time.Now()); err != nil {
		dir.Cleanup()
		return err
	}
	defer dir.Cleanup()

	names, err := dir.List()
	if err != nil {
		return err
	}
	names, err = without(names, cfg.input, cfg.output)
	if err != nil {
		return err
	}
	util.DPrintf(1, "createfs: %d files, seed %d\n", len(names), cfg.seed)

	img, err := mkfs.Build(names, dir, rand.New(rand.NewSource(cfg.seed)))
	if err != nil {
		return err
	}
	sz := img.Sizes()
	fmt.Println("size of boot block (in bytes):", sz.Boot)
	fmt.Println("size of inode blocks (in bytes):", sz.Inodes)
	fmt.Println("size of data blocks (in bytes):", sz.Data)

	return disk.Save(cfg.output, img.Disk, disk.SaveOptions{Compress: cfg.compress})
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s -i <dir> -o <image> [options]\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	var cfg config
	flag.StringVar(&cfg.input, "i", "", "Path to input directory")
	flag.StringVar(&cfg.output, "o", "", "Path to output file")
	flag.BoolVar(&cfg.compress, "z", false, "Write the image as a zstd stream")
	flag.Int64Var(&cfg.seed, "seed", 0, "Random seed for placement (0 picks a fresh one)")
	debug := flag.Uint64("debug", 0, "Debug print level")
	flag.Parse()

	if cfg.input == "" || cfg.output == "" || flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "error: missing options\n\n")
		flag.Usage()
		os.Exit(1)
	}
	util.SetDebug(*debug)
	if cfg.seed == 0 {
		cfg.seed = newSeed()
	}
	if err := run(cfg); err != nil {
		log.Fatalf("error: %v", err)
	}
}

package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/minio/sha256-simd"

	"github.com/mit-pdos/go-flatfs/common"
	"github.com/mit-pdos/go-flatfs/disk"
	"github.com/mit-pdos/go-flatfs/fsimage"
	"github.com/mit-pdos/go-flatfs/hostdir"
	"github.com/mit-pdos/go-flatfs/layout"
	"github.com/mit-pdos/go-flatfs/util"
)

func ls(w io.Writer, fs *fsimage.FS) error {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "SLOT\tNAME\tTYPE\tINODE\tSIZE\tPAGES\tSHA256\n")
	for i, de := range fs.Dentries() {
		var size, pages string
		var sum string
		if de.Type == common.TypeFile {
			ino, err := fs.Inode(de.Inum)
			if err != nil {
				return err
			}
			b, err := fs.ReadFile(de.Inum)
			if err != nil {
				return err
			}
			size = fmt.Sprint(ino.Size)
			pages = fmt.Sprint(ino.Pages)
			sum = fmt.Sprintf("%x", sha256.Sum256(b))[:16]
		}
		fmt.Fprintf(tw, "%d\t%s\t%v\t%d\t%s\t%s\t%s\n",
			i, layout.NameString(de.Name), de.Type, de.Inum, size, pages, sum)
	}
	return tw.Flush()
}

// verify compares every regular file in the image with the file of the same
// name in dir.
func verify(w io.Writer, fs *fsimage.FS, dir *hostdir.Dir) error {
	// dentry names are truncated host names
	names, err := dir.List()
	if err != nil {
		return err
	}
	hosts := make(map[layout.Name]string, len(names))
	for _, h := range names {
		hosts[layout.MkName(h)] = h
	}
	bad := 0
	for _, de := range fs.Dentries() {
		if de.Type != common.TypeFile {
			continue
		}
		name := layout.NameString(de.Name)
		b, err := fs.ReadFile(de.Inum)
		if err != nil {
			return err
		}
		host, ok := hosts[de.Name]
		if !ok {
			fmt.Fprintf(w, "%s: missing from %s\n", name, dir.Path())
			bad++
			continue
		}
		want, err := dir.Digest(host)
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", name, err)
			bad++
			continue
		}
		if sha256.Sum256(b) != want {
			fmt.Fprintf(w, "%s: contents differ\n", name)
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d files differ from %s", bad, dir.Path())
	}
	return nil
}

func run(w io.Writer, path string, args []string) error {
	d, err := disk.Load(path)
	if err != nil {
		return err
	}
	fs, err := fsimage.Open(d)
	if err != nil {
		return err
	}
	switch args[0] {
	case "ls":
		return ls(w, fs)
	case "cat":
		if len(args) != 2 {
			return fmt.Errorf("usage: cat NAME")
		}
		b, err := fs.Lookup(args[1])
		if err != nil {
			return err
		}
		_, err = io.Copy(w, bytes.NewReader(b))
		return err
	case "check":
		if err := fs.Check(); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %d entries, %d inodes, %d pages, ok\n",
			path, fs.NumDentries(), fs.NumInodes(), fs.NumPages())
		return nil
	case "verify":
		if len(args) != 2 {
			return fmt.Errorf("usage: verify DIR")
		}
		dir, err := hostdir.Open(args[1])
		if err != nil {
			return err
		}
		return verify(w, fs, dir)
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [options] IMAGE ls|cat NAME|check|verify DIR\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	debug := flag.Uint64("debug", 0, "Debug print level")
	flag.Parse()
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}
	util.SetDebug(*debug)
	if err := run(os.Stdout, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatalf("error: %v", err)
	}
}

// Package main provides the raug CLI.
package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/peuBouzon/raug/internal/serialization"
)

const version = "v0.3.0"

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return
	}

	switch args[0] {
	case "version":
		fmt.Printf("raug %s\n", version)
	case "inspect":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: raug inspect <snapshot.raug>")
			os.Exit(2)
		}
		if err := inspect(args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "raug: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "raug: unknown command %q\n", args[0])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf("raug - training checkpoints and ONNX export for Go\n")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version              Show version")
	fmt.Println("  inspect <snapshot>   Print snapshot header and tensor table")
}

func inspect(path string) error {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	header := reader.Header()
	fmt.Printf("snapshot:  %s\n", path)
	fmt.Printf("format:    v%d (raug %s)\n", header.FormatVersion, header.RaugVersion)
	fmt.Printf("id:        %s\n", header.SnapshotID)
	fmt.Printf("created:   %s\n", header.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("checksum:  %s\n", header.Checksum)
	if cp := header.Checkpoint; cp != nil && cp.IsCheckpoint {
		fmt.Printf("epoch:     %d\n", cp.Epoch)
		fmt.Printf("loss:      %g\n", cp.Loss)
		if cp.OptimizerType != "" {
			fmt.Printf("optimizer: %s %v\n", cp.OptimizerType, cp.OptimizerConfig)
		}
	}

	fmt.Printf("\n%-40s %-10s %-20s %s\n", "NAME", "DTYPE", "SHAPE", "BYTES")
	for _, name := range reader.TensorNames() {
		info, err := reader.TensorInfo(name)
		if err != nil {
			return err
		}
		fmt.Printf("%-40s %-10s %-20v %d\n", info.Name, info.DType, info.Shape, info.Size)
	}
	return nil
}

// toon - TOON codec CLI tool
//
// Usage:
//
//	toon encode [--zstd] [-o out] [file]     Encode a JSON array of events as TOON
//	toon decode [--zstd] [--strict-count] [file]  Decode TOON events to JSON
//	toon validate [file]                     Round-trip a JSON file or a generated dataset
//	toon generate [--seed N] [--count N]     Generate a synthetic event dataset
//	toon parse --format json|toon [file]     Parse model output and classify failures
//	toon version                             Print version info
//
// If no file is given (or the file is "-"), input is read from stdin.
// Defaults come from TOON_* environment variables and an optional .env file.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/Neumenon/toon/internal/config"
)

const libVersion = "0.1.0"

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "toon",
	Short: "toon - TOON codec CLI tool",
	Long: `toon encodes, decodes and validates TOON documents: a compact
line-oriented format for collections of fixed-shape event records.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger = cfg.Logger()
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(encodeCmd, decodeCmd, validateCmd, generateCmd, parseCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "toon %s\n", libVersion)
	},
}

// readInput reads the named file, or stdin for "" and "-". With
// compressed set the input is zstd-decoded.
func readInput(cmd *cobra.Command, args []string, compressed bool) ([]byte, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		r = f
	}

	if compressed {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// writeOutput writes data to path, or stdout for "" and "-". With
// compressed set the output is zstd-encoded.
func writeOutput(cmd *cobra.Command, path string, data []byte, compressed bool) (err error) {
	var w io.Writer = cmd.OutOrStdout()
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if !compressed {
		_, err = w.Write(data)
		return err
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

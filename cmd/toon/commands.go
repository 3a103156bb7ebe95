package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Neumenon/toon/dataset"
	"github.com/Neumenon/toon/output"
	"github.com/Neumenon/toon/toon"
)

var (
	flagZstd        bool
	flagOut         string
	flagStrictCount bool
	flagSeed        uint64
	flagCount       int
	flagFormat      string
	flagNow         string
)

var encodeCmd = &cobra.Command{
	Use:   "encode [file]",
	Short: "Encode a JSON array of events as TOON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args, false)
		if err != nil {
			return err
		}

		schema := toon.EventSchema()
		recs, err := jsonRecords(schema, string(data))
		if err != nil {
			return err
		}

		text, err := toon.NewEncoder(schema).Encode(recs)
		if err != nil {
			return err
		}
		logger.Debug("encoded", "records", len(recs), "bytes", len(text))
		return writeOutput(cmd, flagOut, []byte(text+"\n"), flagZstd)
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode TOON events to JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args, flagZstd)
		if err != nil {
			return err
		}

		d := toon.NewDecoderWithOptions(toon.EventSchema(), toon.DecodeOptions{
			StrictCount: flagStrictCount || cfg.StrictCount,
			Logger:      logger,
		})
		recs, err := d.Decode(string(data))
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		return writeOutput(cmd, flagOut, append(out, '\n'), false)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Round-trip a JSON file of events (or a generated dataset) through TOON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema := toon.EventSchema()

		var recs []toon.Record
		if len(args) > 0 {
			data, err := readInput(cmd, args, false)
			if err != nil {
				return err
			}
			if recs, err = jsonRecords(schema, string(data)); err != nil {
				return err
			}
		} else {
			opts, err := generatorOptions(cmd)
			if err != nil {
				return err
			}
			events, err := dataset.NewGenerator(opts).Generate()
			if err != nil {
				return err
			}
			recs = dataset.Records(events)
		}

		start := time.Now()
		if err := toon.ValidateRoundTrip(schema, recs); err != nil {
			logger.Error("round trip failed", "records", len(recs), "error", err)
			return err
		}
		logger.Info("round trip validated", "records", len(recs), "elapsed", time.Since(start))
		fmt.Fprintf(cmd.OutOrStdout(), "SUCCESS: round trip validated (%d records)\n", len(recs))
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic event dataset as JSON or TOON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := output.ParseFormat(flagFormat)
		if err != nil {
			return err
		}

		opts, err := generatorOptions(cmd)
		if err != nil {
			return err
		}
		events, err := dataset.NewGenerator(opts).Generate()
		if err != nil {
			return err
		}

		var data []byte
		switch f {
		case output.FormatTOON:
			text, err := toon.Marshal(dataset.Records(events))
			if err != nil {
				return err
			}
			data = []byte(text + "\n")
		default:
			if data, err = json.MarshalIndent(events, "", "  "); err != nil {
				return fmt.Errorf("marshal JSON: %w", err)
			}
			data = append(data, '\n')
		}

		logger.Debug("generated", "records", len(events), "format", f)
		return writeOutput(cmd, flagOut, data, flagZstd)
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse model output and report its failure category",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args, false)
		if err != nil {
			return err
		}

		p := output.NewParser(toon.EventSchema(), toon.DecodeOptions{
			StrictCount: flagStrictCount || cfg.StrictCount,
			Logger:      logger,
		})
		list, err := p.Parse(flagFormat, string(data))

		category := output.Classify(err)
		if err != nil {
			logger.Warn("parse failed", "format", flagFormat, "category", category, "error", err)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", category, err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records\n", category, len(list))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{encodeCmd, decodeCmd, generateCmd} {
		c.Flags().StringVarP(&flagOut, "output", "o", "", "write output to file instead of stdout")
	}
	encodeCmd.Flags().BoolVar(&flagZstd, "zstd", false, "zstd-compress the TOON output")
	generateCmd.Flags().BoolVar(&flagZstd, "zstd", false, "zstd-compress the output")
	decodeCmd.Flags().BoolVar(&flagZstd, "zstd", false, "input is zstd-compressed")

	decodeCmd.Flags().BoolVar(&flagStrictCount, "strict-count", false, "fail when header count disagrees with row count")
	parseCmd.Flags().BoolVar(&flagStrictCount, "strict-count", false, "fail when header count disagrees with row count")

	for _, c := range []*cobra.Command{validateCmd, generateCmd} {
		c.Flags().Uint64Var(&flagSeed, "seed", 42, "random seed (default from TOON_SEED)")
		c.Flags().IntVar(&flagCount, "count", 200, "number of records (default from TOON_COUNT)")
		c.Flags().StringVar(&flagNow, "now", "", "RFC 3339 end of the timestamp window (default: current time)")
	}

	generateCmd.Flags().StringVar(&flagFormat, "format", "json", "output format: json or toon")
	parseCmd.Flags().StringVar(&flagFormat, "format", "toon", "input format: json or toon")
}

// generatorOptions applies config, then any flags set explicitly.
func generatorOptions(cmd *cobra.Command) (dataset.Options, error) {
	opts := dataset.Options{Seed: cfg.Seed, Count: cfg.Count}
	if cmd.Flags().Changed("seed") {
		opts.Seed = flagSeed
	}
	if cmd.Flags().Changed("count") {
		opts.Count = flagCount
	}
	if flagNow != "" {
		now, err := time.Parse(time.RFC3339, flagNow)
		if err != nil {
			return opts, fmt.Errorf("--now: %w", err)
		}
		opts.Now = now
	}
	return opts, nil
}

// jsonRecords parses a JSON array of objects and normalizes each record to
// the schema's field types.
func jsonRecords(schema *toon.Schema, text string) ([]toon.Record, error) {
	raw, err := output.NewParser(schema, toon.DecodeOptions{}).ParseRecords("json", text)
	if err != nil {
		return nil, err
	}
	recs := make([]toon.Record, len(raw))
	for i, r := range raw {
		if recs[i], err = schema.Normalize(r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return recs, nil
}

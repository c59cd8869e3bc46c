package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-cfest/burst"
	"github.com/cwbudde/algo-cfest/internal/burstio"
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Estimate bursts read from a complex float32 capture",
	Long: `Read an interleaved float32 I/Q capture (.cf32, optionally .gz or .zst),
split it into bursts of --burst-len samples and write one result record per
burst. Corrected samples can be written to a second capture.`,
	Example: `  cfestimate file --input hop.cf32.zst --sample-rate 200e3 --center-freq 1e6
  cfestimate file --input hop.cf32 --sample-rate 200e3 --center-freq 1.004e6 \
    --method coerce --channels 1e6,1.01e6,1.02e6 --format yaml`,
	RunE: runFile,
}

func init() {
	rootCmd.AddCommand(fileCmd)

	fs := fileCmd.Flags()
	fs.StringP("input", "i", "", "input capture path, - for stdin")
	fs.Float64("sample-rate", 0, "capture sample rate in Hz")
	fs.Float64("center-freq", 0, "nominal center frequency of the capture in Hz")
	fs.Int("burst-len", 1024, "samples per burst")
	fs.StringP("output", "o", "-", "result record path, - for stdout")
	fs.String("format", burstio.FormatJSON, "record format (json, yaml)")
	fs.String("corrected", "", "write corrected samples to this capture path")
	estimatorFlags(fs)

	_ = fileCmd.MarkFlagRequired("input")
	_ = fileCmd.MarkFlagRequired("sample-rate")
}

func runFile(cmd *cobra.Command, args []string) error {
	cfg, logger, err := prepare(cmd, estimatorBindings)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fs := cmd.Flags()
	input, _ := fs.GetString("input")
	sampleRate, _ := fs.GetFloat64("sample-rate")
	centerFreq, _ := fs.GetFloat64("center-freq")
	burstLen, _ := fs.GetInt("burst-len")
	output, _ := fs.GetString("output")
	format, _ := fs.GetString("format")
	correctedPath, _ := fs.GetString("corrected")

	opts, err := cfg.HandlerOptions()
	if err != nil {
		return err
	}
	h, err := burst.NewHandler(append(opts, burst.WithLogger(logger))...)
	if err != nil {
		return err
	}
	defer h.Close()

	samples, err := readCapture(input)
	if err != nil {
		return err
	}

	chunks, err := burstio.Split(samples, burstLen)
	if err != nil {
		return err
	}

	out, err := burstio.Create(output)
	if err != nil {
		return err
	}
	records, err := burstio.NewRecordWriter(out, format)
	if err != nil {
		_ = out.Close()
		return err
	}

	var corrected io.WriteCloser
	if correctedPath != "" {
		corrected, err = burstio.Create(correctedPath)
		if err != nil {
			_ = out.Close()
			return err
		}
	}

	logger.Info("processing capture",
		zap.String("input", input),
		zap.Int("samples", len(samples)),
		zap.Int("bursts", len(chunks)),
		zap.Stringer("method", h.Method()),
	)

	var processed, dropped int
	var errs []error
	for i, chunk := range chunks {
		res, perr := h.Process(burst.New(chunk, sampleRate, centerFreq))
		if perr != nil {
			dropped++
		} else {
			processed++
		}

		rec := burstio.NewRecord(i, i*burstLen, len(chunk), h.Method().String(), res, perr)
		if err := records.Write(rec); err != nil {
			errs = append(errs, fmt.Errorf("write record %d: %w", i, err))
			break
		}

		if corrected != nil {
			// Dropped bursts are passed through so the capture stays aligned.
			block := chunk
			if perr == nil {
				block = res.Samples
			}
			if err := burstio.WriteCF32(corrected, block); err != nil {
				errs = append(errs, fmt.Errorf("write corrected burst %d: %w", i, err))
				break
			}
		}
	}

	if err := records.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := out.Close(); err != nil {
		errs = append(errs, err)
	}
	if corrected != nil {
		if err := corrected.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	logger.Info("capture done", zap.Int("processed", processed), zap.Int("dropped", dropped))

	return errors.Join(errs...)
}

func readCapture(path string) ([]complex128, error) {
	r, err := burstio.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	samples, err := burstio.ReadCF32(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return samples, nil
}

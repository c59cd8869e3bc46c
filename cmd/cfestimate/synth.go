package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-cfest/dsp/core"
	"github.com/cwbudde/algo-cfest/dsp/signal"
	"github.com/cwbudde/algo-cfest/internal/burstio"
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Write a synthetic burst capture",
	Long: `Generate bursts of a complex tone plus Gaussian noise and write them as an
interleaved float32 capture. Successive bursts can step in frequency to mimic
a hopping transmitter.`,
	Example: `  cfestimate synth --output trial.cf32 --offset 5e3 --snr 20 --bursts 8
  cfestimate synth --output hop.cf32.zst --offset -40e3 --hop 10e3 --bursts 9`,
	RunE: runSynth,
}

func init() {
	rootCmd.AddCommand(synthCmd)

	fs := synthCmd.Flags()
	fs.StringP("output", "o", "", "capture path (.cf32, .gz, .zst), - for stdout")
	fs.Float64("sample-rate", 200e3, "sample rate in Hz")
	fs.Float64("offset", 5e3, "carrier offset of the first burst in Hz")
	fs.Float64("hop", 0, "offset increment between bursts in Hz")
	fs.Float64("amplitude", 1, "carrier amplitude")
	fs.Float64("snr", 30, "carrier-to-noise ratio in dB")
	fs.Bool("noiseless", false, "omit noise")
	fs.Int("samples", 1024, "samples per burst")
	fs.Int("bursts", 1, "number of bursts")
	fs.Int64("seed", 1, "noise seed")

	_ = synthCmd.MarkFlagRequired("output")
}

func runSynth(cmd *cobra.Command, args []string) error {
	_, logger, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fs := cmd.Flags()

	output, _ := fs.GetString("output")
	sampleRate, _ := fs.GetFloat64("sample-rate")
	offset, _ := fs.GetFloat64("offset")
	hop, _ := fs.GetFloat64("hop")
	amplitude, _ := fs.GetFloat64("amplitude")
	snr, _ := fs.GetFloat64("snr")
	noiseless, _ := fs.GetBool("noiseless")
	samples, _ := fs.GetInt("samples")
	bursts, _ := fs.GetInt("bursts")
	seed, _ := fs.GetInt64("seed")

	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be > 0: %v", sampleRate)
	}
	if bursts <= 0 {
		return fmt.Errorf("bursts must be > 0: %d", bursts)
	}

	g := signal.NewGeneratorWithOptions([]core.ProcessorOption{core.WithSampleRate(sampleRate)})

	w, err := burstio.Create(output)
	if err != nil {
		return err
	}

	var errs []error
	for i := range bursts {
		g.SetSeed(seed + int64(i))
		x, err := g.Burst(signal.BurstConfig{
			OffsetHz:  offset + float64(i)*hop,
			Amplitude: amplitude,
			Samples:   samples,
			SNRDB:     snr,
			Noiseless: noiseless,
		})
		if err != nil {
			errs = append(errs, err)
			break
		}
		if err := burstio.WriteCF32(w, x); err != nil {
			errs = append(errs, err)
			break
		}
	}
	if err := w.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	logger.Info("capture written",
		zap.String("output", output),
		zap.Int("bursts", bursts),
		zap.Int("samples_per_burst", samples),
		zap.Float64("sample_rate", sampleRate),
	)
	return nil
}

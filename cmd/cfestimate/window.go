package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-cfest/dsp/window"
)

var windowCmd = &cobra.Command{
	Use:   "window [name ...]",
	Short: "Print spectral properties of the analysis windows",
	Long: `Print coherent gain and equivalent noise bandwidth of the windows available
for burst analysis. The Gaussian window uses --gauss-sigma, the same parameter
the estimator uses. Without arguments all windows are listed.`,
	Example: `  cfestimate window
  cfestimate window gauss --size 4096 --gauss-sigma 0.25 --sample-rate 2.4e6`,
	RunE: runWindow,
}

type windowRow struct {
	name string
	typ  window.Type
}

var windowTable = []windowRow{
	{"rectangular", window.TypeRectangular},
	{"hann", window.TypeHann},
	{"gauss", window.TypeGauss},
}

func init() {
	rootCmd.AddCommand(windowCmd)

	fs := windowCmd.Flags()
	fs.Int("size", 1024, "window length in samples")
	fs.Float64("gauss-sigma", 0.3, "Gaussian window sigma relative to the half window")
	fs.Float64("sample-rate", 200e3, "sample rate in Hz used for the ENBW in Hz column")
	fs.Bool("periodic", false, "use the periodic form instead of the symmetric form")
}

func runWindow(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()
	size, _ := fs.GetInt("size")
	sigma, _ := fs.GetFloat64("gauss-sigma")
	sampleRate, _ := fs.GetFloat64("sample-rate")
	periodic, _ := fs.GetBool("periodic")

	if size <= 0 {
		return fmt.Errorf("size must be > 0: %d", size)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be > 0: %v", sampleRate)
	}

	rows, err := selectWindows(args)
	if err != nil {
		return err
	}

	var opts []window.Option
	if periodic {
		opts = append(opts, window.WithPeriodic())
	}

	return printWindows(cmd.OutOrStdout(), rows, size, sigma, sampleRate, opts)
}

func selectWindows(names []string) ([]windowRow, error) {
	if len(names) == 0 {
		return windowTable, nil
	}

	out := make([]windowRow, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		found := false
		for _, row := range windowTable {
			if row.name == name {
				out = append(out, row)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown window %q (rectangular, hann, gauss)", name)
		}
	}
	return out, nil
}

func windowCoeffs(row windowRow, size int, sigma float64, opts []window.Option) ([]float64, error) {
	switch row.typ {
	case window.TypeGauss:
		return window.GaussianSigma(size, sigma, opts...)
	case window.TypeHann:
		return window.Hann(size, opts...)
	default:
		return window.Generate(row.typ, size, opts...), nil
	}
}

func printWindows(w io.Writer, rows []windowRow, size int, sigma, sampleRate float64, opts []window.Option) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Window\tSize\tCoherent Gain\tENBW [bins]\tENBW [Hz]\n")
	fmt.Fprintf(tw, "------\t----\t-------------\t-----------\t---------\n")

	binHz := sampleRate / float64(size)
	for _, row := range rows {
		coeffs, err := windowCoeffs(row, size, sigma, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", row.name, err)
		}
		enbw, err := window.EquivalentNoiseBandwidth(coeffs)
		if err != nil {
			return fmt.Errorf("%s: %w", row.name, err)
		}

		label := row.name
		if row.typ == window.TypeGauss {
			label = fmt.Sprintf("%s (sigma=%.2f)", row.name, sigma)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.6f\t%.4f\t%.2f\n",
			label, size, window.CoherentGain(coeffs), enbw, enbw*binHz)
	}

	return tw.Flush()
}

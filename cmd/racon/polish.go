package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/SHuang-Broad/racon/align"
	"github.com/SHuang-Broad/racon/bioio"
	"github.com/SHuang-Broad/racon/gpu"
	"github.com/SHuang-Broad/racon/polisher"
)

var (
	profilePath       string
	outputPath        string
	tracePath         string
	devices           int
	batches           int
	windowLength      uint32
	qualityThreshold  float64
	errorThreshold    float64
	matchScore        int8
	mismatchScore     int8
	gapScore          int8
	banded            bool
	fallbackWorkers   int
	includeUnpolished bool
	fragmentMode      bool
	quietProgress     bool
)

var polishCmd = &cobra.Command{
	Use:   "polish READS OVERLAPS TARGETS",
	Short: "Polish target sequences from read overlaps",
	Args:  cobra.ExactArgs(3),
	Run:   polishCommand,
}

func init() {
	f := polishCmd.Flags()
	f.StringVar(&profilePath, "profile", "", "TOML profile with polishing parameters")
	f.StringVarP(&outputPath, "output", "o", "-", "Output FASTA file ('-' for stdout)")
	f.StringVar(&tracePath, "trace", "", "Write a scheduling trace to this file")
	f.IntVar(&devices, "devices", 1, "Number of accelerated devices to use")
	f.IntVar(&batches, "batches", 0, "Total accelerated batch executors (round-robin across devices)")
	f.Uint32VarP(&windowLength, "window-length", "w", 0, "Window length for consensus")
	f.Float64VarP(&qualityThreshold, "quality-threshold", "q", -1, "Minimum mean layer quality")
	f.Float64VarP(&errorThreshold, "error-threshold", "e", -1, "Maximum overlap error rate")
	f.Int8VarP(&matchScore, "match", "m", 0, "Match score")
	f.Int8VarP(&mismatchScore, "mismatch", "x", 0, "Mismatch penalty")
	f.Int8VarP(&gapScore, "gap", "g", 0, "Gap penalty")
	f.BoolVar(&banded, "banded", false, "Use banded alignment in the executors")
	f.IntVarP(&fallbackWorkers, "threads", "t", 0, "CPU fallback pool size")
	f.BoolVarP(&includeUnpolished, "include-unpolished", "u", false, "Keep sequences with no polished window")
	f.BoolVarP(&fragmentMode, "fragment-correction", "f", false, "Correct fragments instead of contigs")
	f.BoolVar(&quietProgress, "no-progress", false, "Disable the progress bar")
}

func buildConfig() polisher.Config {
	cfg := polisher.DefaultConfig()
	if profilePath != "" {
		loaded, err := polisher.LoadProfile(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load profile")
		}
		cfg = loaded
	}
	if windowLength > 0 {
		cfg.WindowLength = windowLength
	}
	if qualityThreshold >= 0 {
		cfg.QualityThreshold = qualityThreshold
	}
	if errorThreshold >= 0 {
		cfg.ErrorThreshold = errorThreshold
	}
	if matchScore != 0 || mismatchScore != 0 || gapScore != 0 {
		cfg.Match, cfg.Mismatch, cfg.Gap = matchScore, mismatchScore, gapScore
	}
	if batches > 0 {
		cfg.BatchCount = batches
	}
	if fallbackWorkers > 0 {
		cfg.FallbackWorkers = fallbackWorkers
	}
	cfg.BandedAlignment = banded
	if fragmentMode {
		cfg.Type = polisher.TypeFragment
	}
	return cfg
}

// barReporter drives an mpb bar from the polisher's progress ticks.
type barReporter struct {
	bar *mpb.Bar
}

func (r *barReporter) Tick() { r.bar.Increment() }

func polishCommand(cmd *cobra.Command, args []string) {
	cfg := buildConfig()

	reads, err := bioio.LoadSequences(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load reads")
	}
	targets, err := bioio.LoadSequences(args[2])
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load targets")
	}
	overlaps, err := bioio.LoadOverlaps(args[1], reads, targets)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load overlaps")
	}

	backend, err := gpu.Detect(gpu.Config{
		Devices: devices,
		Scoring: align.Scoring{Match: cfg.Match, Mismatch: cfg.Mismatch, Gap: cfg.Gap},
		Banded:  cfg.BandedAlignment,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("No accelerated devices")
	}

	p, err := polisher.New(cfg, backend)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't construct polisher")
	}

	var traceFile *os.File
	if tracePath != "" {
		traceFile, err = os.Create(tracePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't create trace file")
		}
		defer traceFile.Close()
		p.SetTraceOutput(traceFile)
	}

	if err := p.Initialize(targets, reads, overlaps); err != nil {
		log.Fatal().Err(err).Msg("Couldn't initialize polisher")
	}

	var progress *mpb.Progress
	var bar *mpb.Bar
	if !quietProgress {
		progress = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = progress.AddBar(int64(polisher.ProgressBins),
			mpb.PrependDecorators(
				decor.Name("generating consensus: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
		p.SetReporter(&barReporter{bar: bar})
	}

	fmt.Fprintln(os.Stderr, color.Cyan.Sprint("Polishing..."))

	var polished []*polisher.Sequence
	if err := p.Polish(&polished, !includeUnpolished); err != nil {
		log.Fatal().Err(err).Msg("Polishing run aborted")
	}
	if progress != nil {
		// the final bin may never be crossed; force completion
		bar.SetTotal(-1, true)
		progress.Wait()
	}
	if err := p.Close(); err != nil {
		log.Fatal().Err(err).Msg("Couldn't release devices")
	}

	out := os.Stdout
	if outputPath != "-" {
		out, err = os.Create(outputPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't create output file")
		}
		defer out.Close()
	}
	w := bufio.NewWriter(out)
	for _, s := range polished {
		fmt.Fprintf(w, ">%s\n%s\n", s.Name, s.Data)
	}
	if err := w.Flush(); err != nil {
		log.Fatal().Err(err).Msg("Couldn't write output")
	}

	fmt.Fprintln(os.Stderr, color.Green.Sprintf("✓ Polished %d sequence(s)", len(polished)))
}

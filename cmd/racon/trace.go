package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/SHuang-Broad/racon/polisher"
)

var traceCmd = &cobra.Command{
	Use:   "trace FILE",
	Short: "Pretty-print a scheduling trace written by polish --trace",
	Args:  cobra.ExactArgs(1),
	Run:   traceCommand,
}

func traceCommand(cmd *cobra.Command, args []string) {
	f, err := os.Open(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't open trace file")
	}
	defer f.Close()

	header, events, err := polisher.ReadTrace(f)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't decode trace")
	}

	fmt.Printf("run %s (targets: %d, input digest: %016x)\n",
		color.Cyan.Sprint(header.RunID), header.Targets, header.InputDigest)
	for _, ev := range events {
		fmt.Printf("%-9s device %d  [%6d, %6d)  %s\n",
			ev.Phase, ev.Device, ev.Start, ev.End, ev.Duration)
	}
	fmt.Printf("%d events\n", len(events))
}

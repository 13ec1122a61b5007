package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbowen42/gohid/hidreport"
)

func newWatchCommand() *cobra.Command {
	var vendor, product uint16
	var raw bool
	var timeoutMs uint32

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream and decode input reports from a HID device",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := selectDevice(vendor, product)
			if err != nil {
				return err
			}
			defer dev.Close()

			for {
				report, err := dev.ReadReport(timeoutMs)
				if err != nil {
					return fmt.Errorf("hidmon: reading report: %w", err)
				}
				if raw {
					fmt.Println(hex.EncodeToString(report))
					continue
				}

				decoded, err := dev.DecodeReport(report)
				if err != nil {
					if errors.Is(err, hidreport.ErrReportIDMismatch) {
						slog.Warn("ignoring report with unknown report id", "bytes", hex.EncodeToString(report))
						continue
					}
					return fmt.Errorf("hidmon: decoding report: %w", err)
				}
				printDecoded(decoded)
			}
		},
	}
	cmd.Flags().Uint16Var(&vendor, "vendor", 0, "match device by USB vendor ID")
	cmd.Flags().Uint16Var(&product, "product", 0, "match device by USB product ID")
	cmd.Flags().BoolVar(&raw, "raw", false, "print raw report bytes instead of decoding them")
	cmd.Flags().Uint32Var(&timeoutMs, "timeout", 1000, "read timeout in milliseconds")
	return cmd
}

func printDecoded(tree *hidreport.Node[[]hidreport.Input]) {
	var parts []string
	for _, inputs := range hidreport.Fields(tree) {
		for _, in := range *inputs {
			parts = append(parts, formatInput(in))
		}
	}
	fmt.Println(strings.Join(parts, " "))
}

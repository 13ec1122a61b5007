package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newDescriptorCommand() *cobra.Command {
	var vendor, product uint16

	cmd := &cobra.Command{
		Use:   "descriptor",
		Short: "Fetch and print a HID device's report descriptor",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := selectDevice(vendor, product)
			if err != nil {
				return err
			}
			defer dev.Close()

			tree, err := dev.Tree()
			if err != nil {
				return fmt.Errorf("hidmon: parsing report descriptor: %w", err)
			}
			for _, f := range tree.Fields() {
				fmt.Println(formatField(f))
			}
			slog.Info("descriptor parsed", "fields", len(tree.Fields()))
			return nil
		},
	}
	cmd.Flags().Uint16Var(&vendor, "vendor", 0, "match device by USB vendor ID")
	cmd.Flags().Uint16Var(&product, "product", 0, "match device by USB product ID")
	return cmd
}

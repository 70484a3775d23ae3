package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petems/secretary/internal/audio"
)

type deviceListing struct {
	Devices  []audio.DeviceCapability `json:"devices"`
	Defaults *audio.DefaultDevicePair `json:"defaults,omitempty"`
	Error    string                   `json:"defaults_error,omitempty"`
}

func newDevicesCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List audio devices and the current defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := loadConfig(opts)
			if err != nil {
				return err
			}

			catalog := audio.NewCatalog(audio.NewPortAudioHost(), log)
			devices, err := catalog.Devices()
			if err != nil {
				return err
			}

			listing := deviceListing{Devices: devices}
			if pair, err := catalog.Defaults(); err != nil {
				listing.Error = err.Error()
			} else {
				listing.Defaults = &pair
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(listing)
			}
			printDevices(os.Stdout, listing)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

func printDevices(w io.Writer, l deviceListing) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tINDEX\tNAME\tAPI\tIN\tOUT\tRATE\tLOW IN\tLOW OUT")
	for _, d := range l.Devices {
		marker := ""
		if l.Defaults != nil && (d.Index == l.Defaults.Input.Index || d.Index == l.Defaults.Output.Index) {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%d\t%d\t%.1fms\t%.1fms\n", marker,
			d.Index, d.Name, d.HostAPIID, d.MaxInputChannels, d.MaxOutputChannels,
			d.DefaultSampleRate, d.LowLatencyInput*1000, d.LowLatencyOutput*1000)
	}
	tw.Flush()

	fmt.Fprintln(w)
	if l.Defaults == nil {
		fmt.Fprintln(w, errorStyle.Render("✗"), l.Error)
		return
	}
	fmt.Fprintln(w, successStyle.Render("✓"), "default input:", l.Defaults.Input.Name)
	fmt.Fprintln(w, successStyle.Render("✓"), "default output:", l.Defaults.Output.Name)
}

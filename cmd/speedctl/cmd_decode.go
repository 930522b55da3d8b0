package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/uptime-industries/ccvs-speed/internal/monitor"
	"github.com/uptime-industries/ccvs-speed/pkg/j1939/ccvs"
	"github.com/uptime-industries/ccvs-speed/pkg/j1939/payload"
	"github.com/uptime-industries/ccvs-speed/pkg/log"
	"go.uber.org/zap"
)

// demoPayload is decoded when no payload is given
var demoPayload = []byte("12345678")

func init() {
	cmdDecode.Flags().Bool("explain", false, "print the reason when no speed can be decoded")
	rootCmd.AddCommand(cmdDecode)
}

var cmdDecode = &cobra.Command{
	Use:     "decode [hex-payload]...",
	Example: "speedctl decode \"00 00 78 00 00 00 00 00\"",
	Short:   "Decode the vehicle speed of one or more payloads",
	RunE:    runDecode,
}

func runDecode(cmd *cobra.Command, args []string) error {
	explain, err := cmd.Flags().GetBool("explain")
	if err != nil {
		return err
	}

	if len(args) == 0 {
		writeDecoded(cmd.OutOrStdout(), demoPayload, explain)
		return nil
	}

	logger := log.FromContext(cmd.Context())
	for _, arg := range args {
		msg, err := payload.ParseHex(arg)
		if err != nil {
			logger.Error("Invalid payload", zap.String("payload", arg), zap.Error(err))
			return err
		}
		writeDecoded(cmd.OutOrStdout(), msg, explain)
	}
	return nil
}

func writeDecoded(w io.Writer, msg []byte, explain bool) {
	if !explain {
		if mph, ok := ccvs.Decode(msg); ok {
			fmt.Fprintf(w, "%s -> %.3f mph\n", payload.FormatHex(msg), mph)
		} else {
			fmt.Fprintf(w, "%s -> n/a\n", payload.FormatHex(msg))
		}
		return
	}

	mph, err := ccvs.Parse(msg)
	if err != nil {
		fmt.Fprintf(w, "%s -> n/a (%s: %v)\n", payload.FormatHex(msg), monitor.ResultOf(err), err)
		return
	}
	fmt.Fprintf(w, "%s -> %.3f mph\n", payload.FormatHex(msg), mph)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/openpv/icsrgen/internal/output"
	"github.com/openpv/icsrgen/internal/server"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ICSR generator over HTTP",
	Long: `Serve exposes POST /convert, which accepts a case record as the
request body and responds with the generated ICSR XML. Generated documents
are archived under the configured output directory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (default: ICSR_LISTEN_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	mapper, err := loadMappingTable()
	if err != nil {
		return err
	}

	out, err := output.NewManager(cfg.OutputDir, log)
	if err != nil {
		return err
	}
	log = out.GetLogger()

	addr := listenAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	return server.New(mapper, out, log).ListenAndServe(addr)
}

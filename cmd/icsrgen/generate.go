package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/openpv/icsrgen/internal/casedata"
	"github.com/openpv/icsrgen/internal/icsr"
	"github.com/openpv/icsrgen/internal/mapping"
	"github.com/openpv/icsrgen/internal/util"
)

var (
	inputPath  string
	outputPath string
	messageID  string
	noPretty   bool
	validate   bool
	dbQuery    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an ICSR XML document from a case record",
	Example: `  icsrgen generate -i input.json -o output.xml
  icsrgen generate -i input.json -o output.xml -m custom_mapping.csv
  icsrgen generate -i input.json -o output.xml --no-pretty`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&inputPath, "input", "i", "", "path or URL of the input case JSON")
	f.StringVarP(&outputPath, "output", "o", "", "path of the output XML file")
	f.StringVar(&messageID, "message-id", "", "custom message ID (default: auto-generated UUID)")
	f.BoolVar(&noPretty, "no-pretty", false, "disable pretty printing of the XML")
	f.BoolVar(&validate, "validate", false, "validate against the XSD schema (requires schema files)")
	f.StringVar(&dbQuery, "db-query", "", "read the case record from the configured database with this query")
	_ = generateCmd.MarkFlagRequired("output")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	mapper, err := loadMappingTable()
	if err != nil {
		return err
	}
	log.Debug().Msgf("Loaded %s", mapper)

	source, cleanup, err := openCaseSource()
	if err != nil {
		return err
	}
	defer cleanup()

	record, err := source.Read()
	if err != nil {
		return err
	}

	assembler := icsr.NewAssembler(mapper, casedata.NewEvaluator(record), log)
	doc := assembler.Assemble(messageID)

	if err := icsr.WriteFile(doc, outputPath, !noPretty); err != nil {
		return err
	}
	log.Info().Str("file", outputPath).Msg("Successfully generated E2B R3 ICSR XML")

	if validate {
		// TODO: implement XSD validation once the MCCI_IN200100UV01 schema
		// files are bundled.
		log.Warn().Msg("Schema validation not yet implemented")
	}
	return nil
}

// loadMappingTable resolves the mapping file from the --mapping flag or the
// configured default and loads it.
func loadMappingTable() (*mapping.Table, error) {
	path := mappingPath
	if path == "" {
		path = util.GetAbsolutePath(cfg.MappingPath)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("mapping file not found: %s", path)
	}
	return mapping.LoadFile(path, log)
}

// openCaseSource picks the case-record source: a database query, a URL, or a
// local file. The returned cleanup closes any held connection.
func openCaseSource() (casedata.Source, func(), error) {
	noop := func() {}

	if dbQuery != "" {
		if cfg.DatabaseURL == "" {
			return nil, noop, fmt.Errorf("--db-query requires ICSR_DATABASE_URL to be set")
		}
		db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to the database: %w", err)
		}
		return casedata.NewSQLSource(db, dbQuery, log), func() { db.Close() }, nil
	}

	if inputPath == "" {
		return nil, noop, fmt.Errorf("either --input or --db-query is required")
	}
	if !strings.HasPrefix(inputPath, "http://") && !strings.HasPrefix(inputPath, "https://") {
		if _, err := os.Stat(inputPath); err != nil {
			return nil, noop, fmt.Errorf("input file not found: %s", inputPath)
		}
	}
	return casedata.Open(inputPath, log), noop, nil
}

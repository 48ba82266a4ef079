package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/phageatlas/internal/config"
	"github.com/yumyai/phageatlas/logger"
	"github.com/yumyai/phageatlas/pkg/db"
)

type importOptions struct {
	file          string
	normalization string
	phage         db.Phage
	host          db.Host
	study         db.Study
}

func newImportCmd(root *rootOptions) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load one expression matrix (TSV) into the database",
		Example: "  phageatlas import --file T4_TPM_means.tsv --normalization TPM_means \\\n" +
			"    --study Wolfram-Schauerte_2022 --phage-name 'T4 phage' --phage-ncbi NC_000866.4 \\\n" +
			"    --host-name 'Escherichia coli' --host-group Enterobacteria --host-ncbi U00096.3",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), root.cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.file, "file", "", "matrix file (tab separated)")
	f.StringVar(&opts.normalization, "normalization", "", "fractional, TPM, TPM_means or TPM_std")

	f.StringVar(&opts.study.Name, "study", "", "study name, e.g. Wolfram-Schauerte_2022")
	f.StringVar(&opts.study.Journal, "journal", "", "journal")
	f.IntVar(&opts.study.Year, "year", 0, "publication year")
	f.StringVar(&opts.study.FirstAuthor, "first-author", "", "first author")
	f.StringVar(&opts.study.PubmedID, "pubmed", "", "PubMed id")
	f.StringVar(&opts.study.DOI, "doi", "", "DOI")
	f.StringVar(&opts.study.Description, "description", "", "free text description of the experiment")

	f.StringVar(&opts.phage.Name, "phage-name", "", "phage name")
	f.StringVar(&opts.phage.NCBIID, "phage-ncbi", "", "phage NCBI accession")
	f.StringVar(&opts.phage.PhageType, "phage-type", "", "virulent or temperate")
	f.StringVar(&opts.phage.Description, "phage-description", "", "phage description")

	f.StringVar(&opts.host.Name, "host-name", "", "host name")
	f.StringVar(&opts.host.Group, "host-group", "", "host group")
	f.StringVar(&opts.host.NCBIID, "host-ncbi", "", "host NCBI accession")
	f.StringVar(&opts.host.Description, "host-description", "", "host description")

	for _, name := range []string{"file", "normalization", "study", "phage-name", "phage-ncbi", "host-name", "host-group", "host-ncbi"} {
		cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runImport(ctx context.Context, cfg config.Config, opts *importOptions) error {

	normalization, err := db.ParseNormalization(opts.normalization)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := db.ReadMatrixTSV(f)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.file, err)
	}

	atlas, err := openAtlas(ctx, cfg)
	if err != nil {
		return err
	}
	defer atlas.Close()

	phageID, err := atlas.InsertPhage(ctx, opts.phage)
	if err != nil {
		return err
	}
	hostID, err := atlas.InsertHost(ctx, opts.host)
	if err != nil {
		return err
	}

	id, err := atlas.InsertDataset(ctx, phageID, hostID, opts.study, normalization, m)
	if err != nil {
		return err
	}

	logger.Info("Imported",
		zap.String("file", opts.file),
		zap.Int64("dataset", id),
		zap.Strings("columns", m.Labels()),
	)

	return nil
}

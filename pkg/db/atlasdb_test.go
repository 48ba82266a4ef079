package db

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/phageatlas/pkg/model"
)

const sampleTSV = "Geneid\tEntity\tSymbol\t20\tCtrl\t0\t5\tClassThreshold\tClassMax\tVariance\n" +
	"gp1\tphage\tmotA\t10\t0\t1\t4\tearly\tlate\t2.5\n" +
	"gp2\tphage\t\t1\tNA\t0\t\tmiddle\tmiddle\tnan\n" +
	"b0001\thost\tthrL\t3\t5\t4\t4\t\t\t0.1\n"

func openTestDB(t *testing.T, cacheSize int) *AtlasDB {
	t.Helper()

	atlas, err := Open(filepath.Join(t.TempDir(), "atlas.db"), cacheSize)
	require.NoError(t, err)
	t.Cleanup(func() { atlas.Close() })

	require.NoError(t, atlas.Migrate(context.Background()))
	return atlas
}

func seedStudy(t *testing.T, atlas *AtlasDB, name string, norms ...Normalization) {
	t.Helper()

	ctx := context.Background()

	phageID, err := atlas.InsertPhage(ctx, Phage{Name: "T4 phage", NCBIID: "NC_000866.4", PhageType: "virulent"})
	require.NoError(t, err)
	hostID, err := atlas.InsertHost(ctx, Host{Name: "Escherichia coli", Group: "Enterobacteria", NCBIID: "U00096.3"})
	require.NoError(t, err)

	m, err := ReadMatrixTSV(strings.NewReader(sampleTSV))
	require.NoError(t, err)

	for _, n := range norms {
		_, err := atlas.InsertDataset(ctx, phageID, hostID, Study{Name: name, Year: 2022, Journal: "Viruses"}, n, m)
		require.NoError(t, err)
	}
}

func TestReadMatrixTSV(t *testing.T) {

	m, err := ReadMatrixTSV(strings.NewReader(sampleTSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Ctrl", "0", "5", "20"}, m.Labels())
	require.Equal(t, 3, m.Len())

	g, ok := m.Lookup("gp1")
	require.True(t, ok)
	assert.Equal(t, "motA", g.Symbol)
	assert.Equal(t, model.EntityPhage, g.Entity)
	assert.Equal(t, model.Series{0, 1, 4, 10}, g.Values)
	assert.Equal(t, "early", g.ClassThreshold)
	assert.Equal(t, 2.5, g.Variance)

	g, ok = m.Lookup("gp2")
	require.True(t, ok)
	assert.Equal(t, "gp2", g.Symbol)
	assert.True(t, math.IsNaN(g.Values[0]))
	assert.True(t, math.IsNaN(g.Values[2]))
	assert.True(t, math.IsNaN(g.Variance))
}

func TestReadMatrixTSVComputesVariance(t *testing.T) {

	tsv := "Geneid\tEntity\t0\t5\t10\n" +
		"g\tphage\t1\t2\t3\n"

	m, err := ReadMatrixTSV(strings.NewReader(tsv))
	require.NoError(t, err)

	g, _ := m.Lookup("g")
	assert.InDelta(t, 1.0/3.0, g.Variance, 1e-12)
}

func TestReadMatrixTSVErrors(t *testing.T) {

	tests := []struct {
		name string
		tsv  string
	}{
		{"empty", ""},
		{"no entity", "Geneid\t0\t5\ng\t1\t2\n"},
		{"bad time column", "Geneid\tEntity\tlate\ng\tphage\t1\n"},
		{"bad entity", "Geneid\tEntity\t0\ng\tplasmid\t1\n"},
		{"bad value", "Geneid\tEntity\t0\ng\tphage\tabc\n"},
		{"short row", "Geneid\tEntity\t0\t5\ng\tphage\t1\n"},
		{"duplicate gene", "Geneid\tEntity\t0\ng\tphage\t1\ng\thost\t2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMatrixTSV(strings.NewReader(tt.tsv))
			assert.Error(t, err)
		})
	}
}

func TestParseNormalization(t *testing.T) {

	for _, n := range []Normalization{Fractional, TPM, TPMMeans, TPMStd} {
		parsed, err := ParseNormalization(n.String())
		require.NoError(t, err)
		assert.Equal(t, n, parsed)
	}

	n, err := ParseNormalization("tpm_means")
	require.NoError(t, err)
	assert.Equal(t, TPMMeans, n)

	_, err = ParseNormalization("raw")
	assert.Error(t, err)
}

func TestLoadMatrix(t *testing.T) {

	atlas := openTestDB(t, 4)
	seedStudy(t, atlas, "Wolfram-Schauerte_2022", Fractional, TPMMeans)

	ctx := context.Background()

	m, err := atlas.LoadMatrix(ctx, "Wolfram-Schauerte_2022", TPMMeans)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"Ctrl", "0", "5", "20"}, m.Labels())

	g, _ := m.Lookup("gp2")
	assert.True(t, math.IsNaN(g.Values[0]))
	assert.True(t, math.IsNaN(g.Variance))

	again, err := atlas.LoadMatrix(ctx, "Wolfram-Schauerte_2022", TPMMeans)
	require.NoError(t, err)
	assert.Same(t, m, again)

	_, err = atlas.LoadMatrix(ctx, "Wolfram-Schauerte_2022", TPMStd)
	assert.True(t, errors.Is(err, ErrDatasetNotFound))

	_, err = atlas.LoadMatrix(ctx, "Guegler_2021", TPMMeans)
	assert.True(t, errors.Is(err, ErrDatasetNotFound))
}

func TestInsertDatasetReplacesCachedMatrix(t *testing.T) {

	atlas := openTestDB(t, 4)
	seedStudy(t, atlas, "S", TPMMeans)

	ctx := context.Background()

	before, err := atlas.LoadMatrix(ctx, "S", TPMMeans)
	require.NoError(t, err)

	smaller, err := ReadMatrixTSV(strings.NewReader("Geneid\tEntity\t0\t5\ng\tphage\t1\t2\n"))
	require.NoError(t, err)

	_, err = atlas.InsertDataset(ctx, 1, 1, Study{Name: "S"}, TPMMeans, smaller)
	require.NoError(t, err)

	after, err := atlas.LoadMatrix(ctx, "S", TPMMeans)
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Equal(t, 1, after.Len())

	n, err := atlas.StudyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLoadMatrixSeesImportFromOtherConnection(t *testing.T) {

	path := filepath.Join(t.TempDir(), "atlas.db")
	ctx := context.Background()

	server, err := Open(path, 4)
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	require.NoError(t, server.Migrate(ctx))
	seedStudy(t, server, "S", TPMMeans)

	before, err := server.LoadMatrix(ctx, "S", TPMMeans)
	require.NoError(t, err)
	require.Equal(t, 3, before.Len())

	importer, err := Open(path, 0)
	require.NoError(t, err)
	t.Cleanup(func() { importer.Close() })

	smaller, err := ReadMatrixTSV(strings.NewReader("Geneid\tEntity\t0\t5\ng\tphage\t1\t2\n"))
	require.NoError(t, err)
	_, err = importer.InsertDataset(ctx, 1, 1, Study{Name: "S"}, TPMMeans, smaller)
	require.NoError(t, err)

	after, err := server.LoadMatrix(ctx, "S", TPMMeans)
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Equal(t, 1, after.Len())

	again, err := server.LoadMatrix(ctx, "S", TPMMeans)
	require.NoError(t, err)
	assert.Same(t, after, again)
}

func TestListings(t *testing.T) {

	atlas := openTestDB(t, 0)
	ctx := context.Background()

	phages, err := atlas.ListPhages(ctx)
	require.NoError(t, err)
	assert.Empty(t, phages)

	seedStudy(t, atlas, "Wolfram-Schauerte_2022", Fractional, TPM, TPMMeans, TPMStd)
	seedStudy(t, atlas, "Guegler_2021", Fractional, TPMMeans)

	phages, err = atlas.ListPhages(ctx)
	require.NoError(t, err)
	require.Len(t, phages, 1)
	assert.Equal(t, "T4 phage", phages[0].Name)

	hosts, err := atlas.ListHosts(ctx)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, "Enterobacteria", hosts[0].Group)

	datasets, err := atlas.DatasetsOverview(ctx)
	require.NoError(t, err)
	require.Len(t, datasets, 2)
	assert.Equal(t, "Wolfram-Schauerte_2022", datasets[0].Name)
	assert.Equal(t, TPMMeans, datasets[0].Normalization)
	assert.Equal(t, "T4 phage", datasets[0].PhageName)
	assert.Equal(t, "Escherichia coli", datasets[1].HostName)
	assert.Equal(t, 2022, datasets[1].Year)

	n, err := atlas.StudyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, atlas.Ping(ctx))
}

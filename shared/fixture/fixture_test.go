package fixture

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadReturnsOneRowPerDataLine(t *testing.T) {
	path := writeFixture(t, "Salutation,Lead Source,Industry\nMr.,Web,Agriculture\nMs.,Phone Inquiry,Apparel\n")

	table, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, table.Path)
	assert.Equal(t, []string{"Salutation", "Lead Source", "Industry"}, table.Headers())
	require.Equal(t, 2, table.Len())

	rows := table.Rows()
	assert.Equal(t, []string{"Salutation", "Lead Source", "Industry"}, rows[0].Keys())
	assert.Equal(t, []string{"Mr.", "Web", "Agriculture"}, rows[0].Values())
	assert.Equal(t, "Phone Inquiry", rows[1].Value("Lead Source"))
}

func TestParseShortRowPadsMissingColumns(t *testing.T) {
	table, err := Parse("A,B,C\nx,y\n")
	require.NoError(t, err)

	row := table.Rows()[0]
	assert.Equal(t, 3, row.Len())
	assert.Equal(t, map[string]string{"A": "x", "B": "y", "C": ""}, row.Map())

	v, ok := row.Get("C")
	assert.True(t, ok, "missing trailing cell must still be a key")
	assert.Equal(t, "", v)
}

func TestParseLongRowDropsExtraCells(t *testing.T) {
	table, err := Parse("A,B\n1,2,3\n")
	require.NoError(t, err)

	row := table.Rows()[0]
	assert.Equal(t, []string{"A", "B"}, row.Keys())
	assert.Equal(t, []string{"1", "2"}, row.Values())
}

func TestParseIgnoresBlankLinesAndTrims(t *testing.T) {
	text := "\n\n  A , B  \r\n\n   \n a1 ,b1\r\n\n\na2,  b2 \n\n"

	table, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, table.Headers())
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"a1", "b1"}, table.Rows()[0].Values())
	assert.Equal(t, []string{"a2", "b2"}, table.Rows()[1].Values())
}

func TestParseRejectsMissingDataRows(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"whitespace":   " \n\n\t\n",
		"header only":  "A,B,C\n",
		"header blank": "A,B,C\n\n   \n",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(text)
			assert.ErrorIs(t, err, ErrNoDataRows)
		})
	}
}

func TestParseRejectsDuplicateHeaders(t *testing.T) {
	_, err := Parse("A,B,A\n1,2,3\n")
	assert.ErrorIs(t, err, ErrDuplicateHeader)
}

func TestParseKeepsQuotesLiteral(t *testing.T) {
	table, err := Parse("Street,City\n\"12 Main St\",\"Springfield\"\n")
	require.NoError(t, err)
	assert.Equal(t, `"12 Main St"`, table.Rows()[0].Value("Street"))
}

func TestLoadMissingFileNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), path)
}

func TestLoadHeaderOnlyNamesPath(t *testing.T) {
	path := writeFixture(t, "A,B\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrNoDataRows)
	assert.Contains(t, err.Error(), path)
}

func TestLoaderResolvesAgainstBaseDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.csv"), []byte("A\n1\n"), 0644))

	table, err := Loader{BaseDir: dir}.Load("data.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data.csv"), table.Path)

	abs := filepath.Join(dir, "data.csv")
	assert.Equal(t, abs, Loader{BaseDir: "/elsewhere"}.Resolve(abs))
}

func TestLoadRereadsFile(t *testing.T) {
	path := writeFixture(t, "A\n1\n")

	first, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, first.Len())

	require.NoError(t, os.WriteFile(path, []byte("A\n1\n2\n"), 0644))
	second, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Len())
}

func TestRowAccessorsReturnCopies(t *testing.T) {
	table, err := Parse("A,B\n1,2\n")
	require.NoError(t, err)

	row := table.Rows()[0]
	keys := row.Keys()
	keys[0] = "changed"
	values := row.Values()
	values[0] = "changed"

	assert.Equal(t, []string{"A", "B"}, row.Keys())
	assert.Equal(t, []string{"1", "2"}, row.Values())
	assert.Equal(t, []string{"A", "B"}, table.Headers())
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []string{"A", "B"}, [][]string{{"1", "2"}, {"3"}})
	require.NoError(t, err)
	assert.Equal(t, "A,B\n1,2\n3\n", buf.String())

	table, err := Parse(buf.String())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "3", "B": ""}, table.Rows()[1].Map())
}

func TestWriteRejectsDelimiterInCell(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []string{"Street"}, [][]string{{"1 Main St, Apt 2"}})
	assert.ErrorIs(t, err, ErrUnencodable)
	assert.True(t, strings.HasPrefix(err.Error(), "row 0"))
}

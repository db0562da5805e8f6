package geo

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const countryCSV = `iso2,iso3,name,lat,lon,population
US,USA,United States,39.8,-98.6,331000000
MX,MEX,México,23.6,-102.5,126000000
GB,GBR,United Kingdom,54.0,-2.0,67000000
ZZ,ZZZ,Broken Land,not-a-number,0,0
AE,ARE,United Arab Emirates,23.4,53.8,9900000
`

const admin1CSV = `country_iso2,admin1_name,lat,lon
US,California,36.5,-119.5
US,Illinois,40.0,-89.0
MX,Yucatán,20.7,-89.0
`

const cityCSV = `country_iso2,admin1_name,city,lat,lon,pop
US,California,Los Angeles,34.05,-118.24,3900000
US,Illinois,Springfield,39.78,-89.65,114000
US,Massachusetts,Springfield,42.10,-72.59,155000
US,Oregon,Portland,45.52,-122.68,650000
US,Maine,Portland,43.66,-70.25,68000
MX,Yucatán,Mérida,20.97,-89.62,890000
US,Texas,Badville,29.0,bad-lon,100
`

// writeGazetteerDir lays down the three reference tables in a temp directory.
func writeGazetteerDir(t *testing.T, countries, admins, cities string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		countryFile: countries,
		admin1File:  admins,
		cityFile:    cities,
	}
	for name, body := range files {
		if body == "" {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func loadTestGazetteer(t *testing.T) *Gazetteer {
	t.Helper()
	return Load(writeGazetteerDir(t, countryCSV, admin1CSV, cityCSV), discardLogger())
}

func TestFindCountry_Codes(t *testing.T) {
	gaz := loadTestGazetteer(t)

	us, ok := gaz.FindCountry("US")
	require.True(t, ok)
	assert.Equal(t, "United States", us.Name)

	byISO3, ok := gaz.FindCountry("usa")
	require.True(t, ok)
	assert.Same(t, us, byISO3, "ISO3 and ISO2 must hit the same entry")

	lower, ok := gaz.FindCountry(" us ")
	require.True(t, ok)
	assert.Same(t, us, lower)
}

func TestFindCountry_NameAccentAndCaseInsensitive(t *testing.T) {
	gaz := loadTestGazetteer(t)

	want, ok := gaz.FindCountry("MX")
	require.True(t, ok)

	for _, name := range []string{"México", "MEXICO", "mexico", "méxico"} {
		got, ok := gaz.FindCountry(name)
		require.True(t, ok, "lookup %q", name)
		assert.Same(t, want, got, "lookup %q", name)
	}
}

func TestFindCountry_Aliases(t *testing.T) {
	gaz := loadTestGazetteer(t)

	cases := map[string]string{
		"USA":      "US",
		"U.S.":     "US",
		"America":  "US",
		"UK":       "GB",
		"Britain":  "GB",
		"England":  "GB",
		"UAE":      "AE",
		"Emirates": "AE",
	}
	for alias, iso2 := range cases {
		c, ok := gaz.FindCountry(alias)
		require.True(t, ok, "alias %q", alias)
		assert.Equal(t, iso2, c.ISO2, "alias %q", alias)
	}

	// Aliases for countries missing from the table are simply not seeded.
	_, ok := gaz.FindCountry("DRC")
	assert.False(t, ok)
}

func TestFindCountry_Misses(t *testing.T) {
	gaz := loadTestGazetteer(t)

	for _, input := range []string{"", "  ", "Ruritania", "XQ", "XQZ"} {
		_, ok := gaz.FindCountry(input)
		assert.False(t, ok, "input %q", input)
	}
}

func TestLoad_SkipsMalformedRows(t *testing.T) {
	gaz := loadTestGazetteer(t)
	stats := gaz.Stats()

	// Broken Land has a non-numeric latitude; Badville a non-numeric longitude.
	assert.Equal(t, 4, stats.Countries)
	assert.Equal(t, 1, stats.SkippedRows[countryFile])
	assert.Equal(t, 1, stats.SkippedRows[cityFile])
	_, ok := gaz.FindCountry("ZZ")
	assert.False(t, ok)
	_, ok = gaz.FindCity("US", "Texas", "Badville")
	assert.False(t, ok)
}

func TestLoad_MissingTableDegradesToMiss(t *testing.T) {
	dir := writeGazetteerDir(t, countryCSV, admin1CSV, "") // no city table
	gaz := Load(dir, discardLogger())

	_, ok := gaz.FindCity("US", "", "Los Angeles")
	assert.False(t, ok)

	// The other tiers still serve.
	_, ok = gaz.FindCountry("US")
	assert.True(t, ok)
	_, ok = gaz.FindAdmin1("US", "California")
	assert.True(t, ok)
}

func TestLoad_EmptyDirServesNothing(t *testing.T) {
	gaz := Load(t.TempDir(), discardLogger())

	_, ok := gaz.FindCountry("US")
	assert.False(t, ok)
	assert.Equal(t, 0, gaz.Stats().Countries)
}

func TestFindAdmin1(t *testing.T) {
	gaz := loadTestGazetteer(t)

	ca, ok := gaz.FindAdmin1("us", "california")
	require.True(t, ok)
	assert.Equal(t, 36.5, ca.Lat)

	yuc, ok := gaz.FindAdmin1("MX", "Yucatan")
	require.True(t, ok, "accent-folded admin lookup")
	assert.Equal(t, "Yucatán", yuc.Name)

	_, ok = gaz.FindAdmin1("", "California")
	assert.False(t, ok)
	_, ok = gaz.FindAdmin1("US", "")
	assert.False(t, ok)
	_, ok = gaz.FindAdmin1("US", "Atlantis")
	assert.False(t, ok)
}

func TestFindCity_PreciseKeyPreferred(t *testing.T) {
	gaz := loadTestGazetteer(t)

	// With the admin name, the precise key wins even though the admin-agnostic
	// slot for Springfield holds the Massachusetts entry.
	il, ok := gaz.FindCity("US", "Illinois", "Springfield")
	require.True(t, ok)
	assert.Equal(t, 39.78, il.Lat)

	ma, ok := gaz.FindCity("US", "Massachusetts", "Springfield")
	require.True(t, ok)
	assert.Equal(t, 42.10, ma.Lat)
	assert.NotEqual(t, il.Lat, ma.Lat)
}

func TestFindCity_AdminAgnosticKeepsHighestPopulation(t *testing.T) {
	gaz := loadTestGazetteer(t)

	// Massachusetts Springfield (155k) loaded after Illinois (114k): higher
	// population replaces.
	city, ok := gaz.FindCity("US", "", "Springfield")
	require.True(t, ok)
	assert.Equal(t, "Massachusetts", city.Admin1)

	// Oregon Portland (650k) loaded before Maine (68k): higher population is
	// retained.
	city, ok = gaz.FindCity("US", "", "Portland")
	require.True(t, ok)
	assert.Equal(t, "Oregon", city.Admin1)
}

func TestFindCity_UnknownAdminFallsBack(t *testing.T) {
	gaz := loadTestGazetteer(t)

	city, ok := gaz.FindCity("US", "Narnia", "Springfield")
	require.True(t, ok)
	assert.Equal(t, "Massachusetts", city.Admin1)
}

func TestFindCity_AccentInsensitive(t *testing.T) {
	gaz := loadTestGazetteer(t)

	city, ok := gaz.FindCity("MX", "Yucatan", "Merida")
	require.True(t, ok)
	assert.Equal(t, "Mérida", city.Name)
}

func TestFindCity_Misses(t *testing.T) {
	gaz := loadTestGazetteer(t)

	_, ok := gaz.FindCity("", "", "Springfield")
	assert.False(t, ok)
	_, ok = gaz.FindCity("US", "", "")
	assert.False(t, ok)
	_, ok = gaz.FindCity("US", "", "Gotham")
	assert.False(t, ok)
	_, ok = gaz.FindCity("GB", "", "Springfield")
	assert.False(t, ok, "city index is scoped by country")
}

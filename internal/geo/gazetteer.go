package geo

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Reference table file names inside the gazetteer data directory.
const (
	countryFile = "country_centroids.csv"
	admin1File  = "admin1_centroids.csv"
	cityFile    = "cities_light.csv"
)

// Country is a gazetteer entry keyed by ISO 3166 code or normalized name.
type Country struct {
	ISO2       string
	ISO3       string
	Name       string
	Lat        float64
	Lon        float64
	Population int64
}

// AdminRegion is a first-level administrative division (state, province).
type AdminRegion struct {
	CountryISO2 string
	Name        string
	Lat         float64
	Lon         float64
}

// City is a populated-place gazetteer entry.
type City struct {
	CountryISO2 string
	Admin1      string
	Name        string
	Lat         float64
	Lon         float64
	Population  int64
}

// LoadStats reports what each table load produced, for startup logging and
// gauge export.
type LoadStats struct {
	Countries    int
	AdminRegions int
	Cities       int
	SkippedRows  map[string]int // table name → malformed rows skipped
}

// countryAliases seeds common synonyms into the country name index. An alias
// never overwrites an already-present canonical name key.
var countryAliases = map[string]string{
	"usa":                              "US",
	"u.s.":                             "US",
	"united states of america":         "US",
	"america":                          "US",
	"uk":                               "GB",
	"united kingdom":                   "GB",
	"britain":                          "GB",
	"england":                          "GB",
	"drc":                              "CD",
	"democratic republic of the congo": "CD",
	"uae":                              "AE",
	"emirates":                         "AE",
}

// Gazetteer holds the three layered lookup tables. It is built exactly once by
// Load and never mutated afterward, so the finders are safe for unlimited
// concurrent callers without locking.
type Gazetteer struct {
	countryByISO2 map[string]*Country
	countryByISO3 map[string]*Country
	countryByName map[string]*Country
	admin1ByKey   map[string]*AdminRegion
	cityByFullKey map[string]*City // iso2:admin1:city
	cityByCountry map[string]*City // iso2:city, highest population wins
	stats         LoadStats
}

// Load builds a Gazetteer from the CSV tables in dataDir. A missing or
// unreadable table degrades that tier to always-miss; malformed rows are
// skipped. Load itself never fails; the warnings land in the logger and the
// returned stats.
//
// The three tables write disjoint indices, so they load concurrently; the
// gazetteer is not returned until all three have finished.
func Load(dataDir string, logger *slog.Logger) *Gazetteer {
	g := &Gazetteer{
		countryByISO2: make(map[string]*Country),
		countryByISO3: make(map[string]*Country),
		countryByName: make(map[string]*Country),
		admin1ByKey:   make(map[string]*AdminRegion),
		cityByFullKey: make(map[string]*City),
		cityByCountry: make(map[string]*City),
		stats:         LoadStats{SkippedRows: make(map[string]int)},
	}

	var wg sync.WaitGroup
	skipped := make([]int, 3)
	wg.Add(3)
	go func() {
		defer wg.Done()
		skipped[0] = g.loadCountries(filepath.Join(dataDir, countryFile), logger)
	}()
	go func() {
		defer wg.Done()
		skipped[1] = g.loadAdmin1(filepath.Join(dataDir, admin1File), logger)
	}()
	go func() {
		defer wg.Done()
		skipped[2] = g.loadCities(filepath.Join(dataDir, cityFile), logger)
	}()
	wg.Wait()

	g.stats.SkippedRows[countryFile] = skipped[0]
	g.stats.SkippedRows[admin1File] = skipped[1]
	g.stats.SkippedRows[cityFile] = skipped[2]

	g.buildAliases()

	g.stats.Countries = len(g.countryByISO2)
	g.stats.AdminRegions = len(g.admin1ByKey)
	g.stats.Cities = len(g.cityByFullKey)

	logger.Info("gazetteer loaded",
		"countries", g.stats.Countries,
		"admin_regions", g.stats.AdminRegions,
		"cities", g.stats.Cities,
	)
	return g
}

// Stats returns the load statistics captured at construction.
func (g *Gazetteer) Stats() LoadStats {
	return g.stats
}

// FindCountry resolves an ISO2 code, ISO3 code, country name, or alias, in
// that order. Matching is case-insensitive and accent-insensitive.
func (g *Gazetteer) FindCountry(codeOrName string) (*Country, bool) {
	codeOrName = strings.TrimSpace(codeOrName)
	if codeOrName == "" {
		return nil, false
	}

	upper := strings.ToUpper(codeOrName)
	if len(upper) == 2 {
		if c, ok := g.countryByISO2[upper]; ok {
			return c, true
		}
	}
	if len(upper) == 3 {
		if c, ok := g.countryByISO3[upper]; ok {
			return c, true
		}
	}

	c, ok := g.countryByName[NormalizeKey(codeOrName)]
	return c, ok
}

// FindAdmin1 resolves an administrative region by country code and name.
func (g *Gazetteer) FindAdmin1(countryISO2, name string) (*AdminRegion, bool) {
	countryISO2 = strings.ToUpper(strings.TrimSpace(countryISO2))
	if countryISO2 == "" || strings.TrimSpace(name) == "" {
		return nil, false
	}
	a, ok := g.admin1ByKey[countryISO2+":"+NormalizeKey(name)]
	return a, ok
}

// FindCity resolves a city by country code, optional admin region, and name.
// With an admin name it tries the precise (country, admin, city) key first,
// then falls back to the admin-agnostic (country, city) key, which holds the
// highest-population candidate for that pair.
func (g *Gazetteer) FindCity(countryISO2, admin1, cityName string) (*City, bool) {
	countryISO2 = strings.ToUpper(strings.TrimSpace(countryISO2))
	if countryISO2 == "" || strings.TrimSpace(cityName) == "" {
		return nil, false
	}
	normCity := NormalizeKey(cityName)

	if strings.TrimSpace(admin1) != "" {
		if c, ok := g.cityByFullKey[countryISO2+":"+NormalizeKey(admin1)+":"+normCity]; ok {
			return c, true
		}
	}
	c, ok := g.cityByCountry[countryISO2+":"+normCity]
	return c, ok
}

func (g *Gazetteer) loadCountries(path string, logger *slog.Logger) int {
	return forEachRow(path, logger, func(row map[string]string) error {
		lat, lon, err := parseLatLon(row["lat"], row["lon"])
		if err != nil {
			return err
		}
		pop, err := parsePopulation(row["population"])
		if err != nil {
			return err
		}

		c := &Country{
			ISO2:       strings.ToUpper(row["iso2"]),
			ISO3:       strings.ToUpper(row["iso3"]),
			Name:       row["name"],
			Lat:        lat,
			Lon:        lon,
			Population: pop,
		}
		g.countryByISO2[c.ISO2] = c
		g.countryByISO3[c.ISO3] = c
		g.countryByName[NormalizeKey(c.Name)] = c
		return nil
	})
}

func (g *Gazetteer) loadAdmin1(path string, logger *slog.Logger) int {
	return forEachRow(path, logger, func(row map[string]string) error {
		lat, lon, err := parseLatLon(row["lat"], row["lon"])
		if err != nil {
			return err
		}

		a := &AdminRegion{
			CountryISO2: strings.ToUpper(row["country_iso2"]),
			Name:        row["admin1_name"],
			Lat:         lat,
			Lon:         lon,
		}
		g.admin1ByKey[a.CountryISO2+":"+NormalizeKey(a.Name)] = a
		return nil
	})
}

func (g *Gazetteer) loadCities(path string, logger *slog.Logger) int {
	return forEachRow(path, logger, func(row map[string]string) error {
		lat, lon, err := parseLatLon(row["lat"], row["lon"])
		if err != nil {
			return err
		}
		pop, err := parsePopulation(row["pop"])
		if err != nil {
			return err
		}

		c := &City{
			CountryISO2: strings.ToUpper(row["country_iso2"]),
			Admin1:      row["admin1_name"],
			Name:        row["city"],
			Lat:         lat,
			Lon:         lon,
			Population:  pop,
		}
		normCity := NormalizeKey(c.Name)

		// The precise key is last-write-wins; the admin-agnostic key keeps the
		// highest-population candidate so bare "country + city" lookups land on
		// the city a human most likely meant.
		g.cityByFullKey[c.CountryISO2+":"+NormalizeKey(c.Admin1)+":"+normCity] = c

		countryKey := c.CountryISO2 + ":" + normCity
		if existing, ok := g.cityByCountry[countryKey]; !ok || c.Population > existing.Population {
			g.cityByCountry[countryKey] = c
		}
		return nil
	})
}

// buildAliases merges the synonym table into the country name index without
// overwriting canonical name keys that loaded from the table.
func (g *Gazetteer) buildAliases() {
	for alias, iso2 := range countryAliases {
		c, ok := g.countryByISO2[iso2]
		if !ok {
			continue
		}
		key := NormalizeKey(alias)
		if _, taken := g.countryByName[key]; !taken {
			g.countryByName[key] = c
		}
	}
}

// forEachRow streams a header-mapped CSV table, invoking fn per row. A missing
// or unreadable file logs a warning and yields zero rows; a row for which fn
// returns an error is skipped with a warning. Returns the skipped-row count.
func forEachRow(path string, logger *slog.Logger, fn func(row map[string]string) error) int {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("gazetteer table unavailable, lookups will miss", "path", path, "error", err)
		return 0
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		logger.Warn("gazetteer table unreadable, lookups will miss", "path", path, "error", err)
		return 0
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	skipped := 0
	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("skipping malformed gazetteer row", "path", path, "line", line, "error", err)
			skipped++
			continue
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		if err := fn(row); err != nil {
			logger.Warn("skipping malformed gazetteer row", "path", path, "line", line, "error", err)
			skipped++
		}
	}
	return skipped
}

func parseLatLon(latStr, lonStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse lat %q: %w", latStr, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse lon %q: %w", lonStr, err)
	}
	return lat, lon, nil
}

// parsePopulation treats an absent or empty column as zero; a present but
// non-numeric value poisons the row.
func parsePopulation(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	pop, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse population %q: %w", s, err)
	}
	return pop, nil
}

// Package geoip resolves a client IP to a country code and approximate
// coordinates for the login startup burst (spec §4.5/§6).
package geoip

import (
	"net"

	"github.com/oschwald/maxminddb-golang"
)

// City is the geolocation result for a single IP lookup.
type City struct {
	ISOCode   string
	Longitude float64
	Latitude  float64
}

// Reader resolves IPs to City records. The production implementation
// wraps a MaxMind GeoLite2-City database; tests can substitute a stub.
type Reader interface {
	City(ip net.IP) (City, error)
}

// MMDBReader is grounded on github.com/oschwald/maxminddb-golang, named
// out-of-pack per the process rules since no example repo does
// geolocation: it is the de-facto standard Go reader for MaxMind's binary
// database format and the spec requires a concrete geolocation
// collaborator (§6).
type MMDBReader struct {
	db *maxminddb.Reader
}

// Open memory-maps the MaxMind database at path.
func Open(path string) (*MMDBReader, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, err
	}
	return &MMDBReader{db: db}, nil
}

// Close releases the underlying memory-mapped file.
func (r *MMDBReader) Close() error { return r.db.Close() }

type mmdbRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	Location struct {
		Longitude float64 `maxminddb:"longitude"`
		Latitude  float64 `maxminddb:"latitude"`
	} `maxminddb:"location"`
}

// countryIndex maps a handful of common ISO 3166-1 alpha-2 codes to the
// numeric country ids the osu! client expects in user_presence (the
// client ships its own fixed country table; this repo's retrieval pack
// does not include it, so only the common subset is named here and
// anything else maps to 0/unknown — a named simplification, not a
// silent one).
var countryIndex = map[string]uint8{
	"US": 225, "GB": 82, "JP": 111, "KR": 121, "DE": 63,
	"FR": 72, "CN": 43, "AU": 13, "CA": 36, "RU": 183,
}

// CountryIndex resolves an ISO code to the client's numeric country id,
// defaulting to 0 when unknown.
func CountryIndex(isoCode string) uint8 {
	return countryIndex[isoCode]
}

// City looks up ip in the underlying database.
func (r *MMDBReader) City(ip net.IP) (City, error) {
	var rec mmdbRecord
	if err := r.db.Lookup(ip, &rec); err != nil {
		return City{}, err
	}
	return City{
		ISOCode:   rec.Country.ISOCode,
		Longitude: rec.Location.Longitude,
		Latitude:  rec.Location.Latitude,
	}, nil
}

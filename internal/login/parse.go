// Package login implements the credential-blob login flow of spec §4.5:
// parsing, version/adapter validation, authentication, duplicate-session
// and hardware-collision policy, and the ordered startup packet burst.
package login

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bancho/internal/session"
)

// Credentials is the parsed POST body of a login request.
type Credentials struct {
	Username     string
	PasswordMD5  string
	OsuVersion   string
	UTCOffset    int
	DisplayCity  bool
	ClientHashes string
	PMPrivate    bool
}

// ErrMalformed indicates the body did not match the expected
// newline/pipe/colon-delimited shape.
type ErrMalformed struct{ reason string }

func (e ErrMalformed) Error() string { return "login: malformed body: " + e.reason }

// ParseCredentials parses the newline- and pipe-delimited credential blob
// described in spec §4.5.
func ParseCredentials(body []byte) (Credentials, error) {
	lines := strings.SplitN(string(body), "\n", 3)
	if len(lines) < 3 {
		return Credentials{}, ErrMalformed{"fewer than 3 lines"}
	}

	fields := strings.Split(strings.TrimRight(lines[2], "\r\n"), "|")
	if len(fields) < 5 {
		return Credentials{}, ErrMalformed{"fewer than 5 pipe-delimited fields"}
	}

	utcOffset, err := strconv.Atoi(fields[1])
	if err != nil {
		return Credentials{}, ErrMalformed{"bad utc_offset"}
	}

	return Credentials{
		Username:     lines[0],
		PasswordMD5:  lines[1],
		OsuVersion:   fields[0],
		UTCOffset:    utcOffset,
		DisplayCity:  fields[2] == "1",
		ClientHashes: fields[3],
		PMPrivate:    fields[4] == "1",
	}, nil
}

// SafeName normalises a display name into its lookup key: lowercased,
// spaces replaced with underscores.
func SafeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

var versionPattern = regexp.MustCompile(`^b(\d{8})(?:\.(\d+))?(beta|cuttingedge|dev|tourney)?$`)

// ErrOldClient is returned by ParseVersion when the client build is more
// than 90 days old.
var ErrOldClient = fmt.Errorf("login: client version is more than 90 days old")

// ParseVersion parses `b YYYYMMDD(.revision)?(stream)?` and rejects
// anything unparseable or more than 90 days old (spec §4.5).
func ParseVersion(raw string) (session.ClientVersion, error) {
	m := versionPattern.FindStringSubmatch(raw)
	if m == nil {
		return session.ClientVersion{}, ErrMalformed{"bad version string " + raw}
	}

	date, err := time.Parse("20060102", m[1])
	if err != nil {
		return session.ClientVersion{}, ErrMalformed{"bad version date"}
	}

	revision := 0
	if m[2] != "" {
		revision, _ = strconv.Atoi(m[2])
	}

	v := session.ClientVersion{Date: date, Revision: revision, Stream: m[3]}
	if time.Since(date) > 90*24*time.Hour {
		return v, ErrOldClient
	}
	return v, nil
}

// ErrNoAdapters is returned by ParseAdapters when the client reports
// neither wine nor any real network adapter.
var ErrNoAdapters = fmt.Errorf("login: no wine and no real adapters reported")

// ParsedHashes is the colon-delimited client_hashes field, split and
// validated (spec §4.5).
type ParsedHashes struct {
	OsuPathMD5   string
	Adapters     []string
	Wine         bool
	AdaptersMD5  string
	UninstallMD5 string
	DiskMD5      string
}

// ParseAdapters splits the colon-delimited client_hashes field:
// osu_path_md5:adapters_str:adapters_md5:uninstall_md5:disk_md5.
func ParseAdapters(raw string) (ParsedHashes, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 5 {
		return ParsedHashes{}, ErrMalformed{"fewer than 5 colon-delimited client_hashes fields"}
	}

	h := ParsedHashes{
		OsuPathMD5:   parts[0],
		AdaptersMD5:  parts[2],
		UninstallMD5: parts[3],
		DiskMD5:      parts[4],
	}

	adaptersStr := parts[1]
	if adaptersStr == "runningunderwine" {
		h.Wine = true
		return h, nil
	}

	tokens := strings.Split(adaptersStr, ".")
	for _, t := range tokens {
		if t == "" || t == "no" {
			continue
		}
		h.Adapters = append(h.Adapters, t)
	}
	if len(h.Adapters) == 0 {
		return h, ErrNoAdapters
	}
	return h, nil
}

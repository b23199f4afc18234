// Package source materializes the ordered candidate sequence consumed by the
// dispatcher: local list files plus optional remote list scrapers.
package source

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"proxyvet/internal/shared/logger"
	"proxyvet/internal/shared/types"
)

// Source produces candidates. Implementations only fetch and parse; they
// never validate.
type Source interface {
	Fetch() ([]types.Candidate, error)

	// Name identifies the source in logs.
	Name() string
}

// ParseCandidate parses one "host:port" line into candidates, one per kind.
func ParseCandidate(line string, kinds []types.ProxyKind) ([]types.Candidate, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(line))
	if err != nil {
		return nil, fmt.Errorf("invalid host:port %q: %w", line, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid port %q", portStr)
	}
	cands := make([]types.Candidate, 0, len(kinds))
	for _, k := range kinds {
		cands = append(cands, types.Candidate{Host: host, Port: port, Kind: k})
	}
	return cands, nil
}

// FileSource reads newline separated "host:port" entries. The proxy kind is
// supplied globally, not per line; with several kinds configured each line
// fans out into one candidate per kind. Path "" or "-" reads stdin.
type FileSource struct {
	path  string
	kinds []types.ProxyKind
}

func NewFileSource(path string, kinds []types.ProxyKind) *FileSource {
	return &FileSource{path: path, kinds: kinds}
}

func (s *FileSource) Name() string {
	if s.path == "" || s.path == "-" {
		return "stdin"
	}
	return s.path
}

func (s *FileSource) Fetch() ([]types.Candidate, error) {
	var r io.Reader
	if s.path == "" || s.path == "-" {
		r = os.Stdin
	} else {
		file, err := os.Open(s.path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		r = file
	}
	return s.scan(r)
}

func (s *FileSource) scan(r io.Reader) ([]types.Candidate, error) {
	l := logger.WithComponent("Source")

	var cands []types.Candidate
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parsed, err := ParseCandidate(line, s.kinds)
		if err != nil {
			l.Info().Int("line", lineNum).Err(err).Msg("Malformed address, skipping.")
			continue
		}
		cands = append(cands, parsed...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	l.Info().Int("count", len(cands)).Str("source", s.Name()).Msg("Loaded candidates.")
	return cands, nil
}

// LoadExclusionLines reads the raw exclusion file for the range set builder.
// An empty path means no exclusions; the file itself being unreadable is a
// fatal setup condition for the caller.
func LoadExclusionLines(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

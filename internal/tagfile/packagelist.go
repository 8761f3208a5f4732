package tagfile

import (
	"strconv"
	"strings"

	"github.com/lkhq/laniakea/internal/archive"
)

// ParsePackageList parses the Debian Policy "Package-List" field: one line
// per binary, fields separated by runs of whitespace:
//
//	name type section priority [arch=a,b,c] [key=value ...]
//
// Malformed lines are skipped (the caller is expected to log a warning).
func ParsePackageList(raw string, defaultVersion string) []archive.PackageInfo {
	var out []archive.PackageInfo
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		info := archive.PackageInfo{
			Name:     fields[0],
			DebType:  debTypeFromField(fields[1]),
			Section:  fields[2],
			Priority: priorityFromField(fields[3]),
			Version:  defaultVersion,
		}
		for _, extra := range fields[4:] {
			kv := strings.SplitN(extra, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch kv[0] {
			case "arch":
				info.Architectures = strings.Split(kv[1], ",")
			}
		}
		out = append(out, info)
	}
	return out
}

// FormatPackageList is the inverse of ParsePackageList, used by round-trip
// tests and by any caller synthesizing a Package-List field (e.g. for faux
// source index construction).
func FormatPackageList(infos []archive.PackageInfo) string {
	var b strings.Builder
	for i, info := range infos {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(info.Name)
		b.WriteByte(' ')
		b.WriteString(string(info.DebType))
		b.WriteByte(' ')
		b.WriteString(info.Section)
		b.WriteByte(' ')
		b.WriteString(string(info.Priority))
		if len(info.Architectures) > 0 {
			b.WriteString(" arch=")
			b.WriteString(strings.Join(info.Architectures, ","))
		}
	}
	return b.String()
}

func debTypeFromField(s string) archive.DebType {
	if s == "udeb" {
		return archive.DebTypeUDeb
	}
	return archive.DebTypeDEB
}

func priorityFromField(s string) archive.Priority {
	switch s {
	case "required":
		return archive.PriorityRequired
	case "important":
		return archive.PriorityImportant
	case "standard":
		return archive.PriorityStandard
	case "optional":
		return archive.PriorityOptional
	case "extra":
		return archive.PriorityExtra
	default:
		return archive.PriorityUnknown
	}
}

// ParseChecksumsList parses a "Checksums-Sha256" field: three
// whitespace-separated columns (sha256, size, filename) per line. filename
// is joined under baseDir when provided. Invalid size strings fail the
// whole stanza (the caller propagates the error).
func ParseChecksumsList(raw string, baseDir string) ([]archive.ArchiveFile, error) {
	var out []archive.ArchiveFile
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			continue // malformed line: skipped, no warning is emitted
		}
		size, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, err
		}
		fn := fields[2]
		if baseDir != "" {
			fn = baseDir + "/" + fn
		}
		out = append(out, archive.ArchiveFile{
			SHA256Sum: fields[0],
			Size:      size,
			Filename:  fn,
		})
	}
	return out, nil
}

// FormatChecksumsList is the inverse of ParseChecksumsList (without
// baseDir joining, so it round-trips ParseChecksumsList(raw, "")).
func FormatChecksumsList(files []archive.ArchiveFile) string {
	var b strings.Builder
	for i, f := range files {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.SHA256Sum)
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(f.Size, 10))
		b.WriteByte(' ')
		b.WriteString(f.Filename)
	}
	return b.String()
}

package spears

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// excusesYAML mirrors britney's excuses.yaml output. The exact field set is
// not fixed by any reference source available to this port (britney is
// treated as an opaque external tool); this shape follows the fields a
// SpearsExcuse needs to report, and stays tolerant of missing keys via
// yaml's zero-value defaults.
type excusesYAML struct {
	GeneratedDate string        `yaml:"generated-date"`
	Sources       []excuseYAML `yaml:"sources"`
}

type excuseYAML struct {
	Source      string   `yaml:"source"`
	Maintainer  string   `yaml:"maintainer"`
	IsCandidate bool     `yaml:"is-candidate"`
	NewVersion  string   `yaml:"new-version"`
	OldVersion  string   `yaml:"old-version"`
	Age         struct {
		CurrentAge     int `yaml:"current-age"`
		AgeRequirement int `yaml:"age-requirement"`
	} `yaml:"age"`
	MissingBuilds struct {
		OnArchitectures          []string `yaml:"on-architectures"`
		OnSecondaryArchitectures []string `yaml:"on-secondary-architectures"`
	} `yaml:"missing-builds"`
	OldBinaries []struct {
		PackageVersion string   `yaml:"package-version"`
		Binaries       []string `yaml:"binaries"`
	} `yaml:"old-binaries"`
	Reason struct {
		BlockedBy    []string `yaml:"blocked-by"`
		MigrateAfter []string `yaml:"migrate-after"`
		ManualBlock  string   `yaml:"manual-block"`
		Other        string   `yaml:"other"`
	} `yaml:"reason"`
}

// loadExcuses reads output/excuses.yaml (the structured report) and
// output/output.txt (britney's free-text log, attached per-excuse as
// LogExcerpt when a line of it starts with the excuse's source package
// name), stamping
// every resulting Excuse with migrationID, sourceSuite and targetSuite.
func (e *Engine) loadExcuses(migrationID, sourceSuite, targetSuite string) ([]*Excuse, error) {
	yamlPath := filepath.Join(e.outputDir(migrationID), "excuses.yaml")
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, errors.Wrap(err, "spears: read excuses.yaml")
	}
	var doc excusesYAML
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "spears: parse excuses.yaml")
	}

	logExcerpts := parseOutputLog(filepath.Join(e.outputDir(migrationID), "output.txt"))

	now := parseGeneratedDate(doc.GeneratedDate)
	excuses := make([]*Excuse, 0, len(doc.Sources))
	for _, src := range doc.Sources {
		ex := &Excuse{
			MigrationID:   migrationID,
			Date:          now,
			SourceSuite:   sourceSuite,
			TargetSuite:   targetSuite,
			IsCandidate:   src.IsCandidate,
			SourcePackage: src.Source,
			Maintainer:    src.Maintainer,
			NewVersion:    src.NewVersion,
			OldVersion:    src.OldVersion,
			Age: AgeInfo{
				CurrentAge:  src.Age.CurrentAge,
				RequiredAge: src.Age.AgeRequirement,
			},
			MissingBuilds: MissingBuilds{
				PrimaryArchs:   src.MissingBuilds.OnArchitectures,
				SecondaryArchs: src.MissingBuilds.OnSecondaryArchitectures,
			},
			Reason: Reason{
				BlockedBy:    src.Reason.BlockedBy,
				MigrateAfter: src.Reason.MigrateAfter,
				ManualBlock:  src.Reason.ManualBlock,
				Other:        src.Reason.Other,
				LogExcerpt:   logExcerpts[src.Source],
			},
		}
		for _, ob := range src.OldBinaries {
			ex.OldBinaries = append(ex.OldBinaries, OldBinary{
				PackageVersion: ob.PackageVersion,
				Binaries:       ob.Binaries,
			})
		}
		excuses = append(excuses, ex)
	}
	return excuses, nil
}

func parseGeneratedDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseOutputLog scans output.txt for per-package blocks, returning a
// map of source package name to its logged excerpt. output.txt has no
// fixed grammar (britney is opaque); this keys each line by its first
// whitespace-separated field and keeps only the first line per key.
func parseOutputLog(path string) map[string]string {
	out := make(map[string]string)
	data, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if _, ok := out[name]; !ok {
			out[name] = line
		}
	}
	return out
}

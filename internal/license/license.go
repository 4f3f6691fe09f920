// Package license detects the licenses of a repository from its license files
package license

import (
	"math"
	"sort"

	"github.com/go-enry/go-license-detector/v4/licensedb"
	"github.com/go-enry/go-license-detector/v4/licensedb/filer"
)

// MinConfidence is the lowest confidence a detected license is reported with
const MinConfidence = 0.9

// Match is a detected license
type Match struct {
	License    string  `json:"license" yaml:"license"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	File       string  `json:"file" yaml:"file"`
}

// Detect returns the licenses found in the license files of dir, best match first.
// A directory without license files yields nil.
func Detect(dir string) []Match {
	fs, err := filer.FromDirectory(dir)
	if err != nil {
		return nil
	}

	matches, err := licensedb.Detect(fs)
	if err != nil {
		return nil
	}

	var licenses []Match
	for id, match := range matches {
		if match.Confidence > MinConfidence {
			licenses = append(licenses, Match{
				License:    id,
				Confidence: math.Round(float64(match.Confidence)*100) / 100,
				File:       match.File,
			})
		}
	}

	sort.Slice(licenses, func(i, j int) bool {
		if licenses[i].Confidence != licenses[j].Confidence {
			return licenses[i].Confidence > licenses[j].Confidence
		}
		return licenses[i].License < licenses[j].License
	})
	return licenses
}

// Names returns the license identifiers of matches
func Names(matches []Match) []string {
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.License
	}
	return names
}

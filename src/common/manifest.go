package common

import (
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"sort"
)

// ManifestIcon is one entry of a web app manifest "icons" array
type ManifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

// ManifestIcons builds manifest entries for the given PNG artifacts, sorted by size.
// prefix is the URL path the icons are served from, e.g. "/icons/".
func ManifestIcons(prefix string, artifacts []Artifact) []ManifestIcon {
	sorted := make([]Artifact, len(artifacts))
	copy(sorted, artifacts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Size < sorted[j].Size })

	icons := make([]ManifestIcon, 0, len(sorted))
	for _, a := range sorted {
		icons = append(icons, ManifestIcon{
			Src:   path.Join("/", prefix, filepath.Base(a.Path)),
			Sizes: fmt.Sprintf("%dx%d", a.Size, a.Size),
			Type:  "image/png",
		})
	}
	return icons
}

// WriteManifestIcons writes the icons array as indented JSON to outputPath
func WriteManifestIcons(outputPath, prefix string, artifacts []Artifact) error {
	data, err := json.MarshalIndent(ManifestIcons(prefix, artifacts), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest icons: %w", err)
	}

	if err := writeFileAtomic(outputPath, append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write manifest icons: %w", err)
	}

	return nil
}

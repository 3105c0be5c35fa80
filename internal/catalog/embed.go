package catalog

import (
	"embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed data/cards.yaml data/watches.yaml
var dataFS embed.FS

type cardsFile struct {
	Sets []CardSet `yaml:"sets"`
}

type watchesFile struct {
	Brands []WatchBrand `yaml:"brands"`
}

// Load builds the registry from the embedded reference data.
func Load() (*Registry, error) {
	rawCards, err := dataFS.ReadFile("data/cards.yaml")
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read cards data")
	}
	var cf cardsFile
	if err := yaml.Unmarshal(rawCards, &cf); err != nil {
		return nil, eris.Wrap(err, "catalog: unmarshal cards data")
	}

	rawWatches, err := dataFS.ReadFile("data/watches.yaml")
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read watches data")
	}
	var wf watchesFile
	if err := yaml.Unmarshal(rawWatches, &wf); err != nil {
		return nil, eris.Wrap(err, "catalog: unmarshal watches data")
	}

	return NewRegistry(cf.Sets, wf.Brands)
}

// Package config reads named tolerance profiles from an ini file, by
// convention ~/.tallycfg. A profile bundles the thresholds for one class of
// reconciliation run, e.g. a strict profile for financial totals.
package config

import (
	"context"
	"fmt"

	"github.com/de-tools/tally/pkg/services/recon"
	"gopkg.in/ini.v1"
)

type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetSettings(ctx context.Context, profile string) (recon.Settings, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetSettings(_ context.Context, profile string) (recon.Settings, error) {
	section, err := cr.cfg.GetSection(profile)
	if err != nil {
		return recon.Settings{}, fmt.Errorf("profile %s not found", profile)
	}

	settings := recon.DefaultSettings()
	if key, err := section.GetKey("tolerance"); err == nil {
		tolerance, err := key.Float64()
		if err != nil {
			return recon.Settings{}, fmt.Errorf("profile %s: invalid tolerance: %w", profile, err)
		}
		settings.Tolerance = tolerance
	}
	if key, err := section.GetKey("yellow_band"); err == nil {
		factor, err := key.Float64()
		if err != nil {
			return recon.Settings{}, fmt.Errorf("profile %s: invalid yellow_band: %w", profile, err)
		}
		settings.YellowBandFactor = factor
	}
	return settings, nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sap-gg/commaslash/internal/logging"
	"github.com/sap-gg/commaslash/internal/platform"
	"github.com/sap-gg/commaslash/internal/spec"
)

const (
	// SpecsKey holds one spec string per platform id, e.g. specs.linux-x86_64.
	SpecsKey    = "specs"
	ManifestKey = "manifest"
)

func specKey(p platform.Platform) string {
	return SpecsKey + "." + p.String()
}

// addTargetFlags registers one spec flag per platform plus --manifest.
func addTargetFlags(cmd *cobra.Command) {
	for _, p := range platform.All() {
		cmd.Flags().String(p.String(), "",
			fmt.Sprintf("spec for %s (uname -sm = %q): url=... size=... sha256=... path=...", p, p.Uname()))
	}
	cmd.Flags().StringP("manifest", "m", "",
		"manifest file (.yaml, .yml, .json, .toml or .properties) with specs for several platforms")
}

// bindTargetFlags ties the flags of the running command to viper. Binding happens at run time
// because several commands share the same keys.
func bindTargetFlags(cmd *cobra.Command) error {
	for _, p := range platform.All() {
		if err := viper.BindPFlag(specKey(p), cmd.Flags().Lookup(p.String())); err != nil {
			return fmt.Errorf("bind flag %s: %w", p, err)
		}
	}
	return viper.BindPFlag(ManifestKey, cmd.Flags().Lookup("manifest"))
}

// resolveTargets collects specs from the manifest, then from flags, env and config,
// the latter overriding manifest entries for the same platform.
func resolveTargets(ctx context.Context) (*spec.Resolved, error) {
	resolved := spec.NewResolved()

	if manifestPath := viper.GetString(ManifestKey); manifestPath != "" {
		m, err := spec.LoadManifest(ctx, manifestPath)
		if err != nil {
			return nil, fmt.Errorf("reading manifest: %w", err)
		}
		resolved = m
	}

	for _, p := range platform.All() {
		raw := viper.GetString(specKey(p))
		if raw == "" {
			continue
		}
		ts, err := spec.ParseAndResolve(raw)
		if err != nil {
			return nil, fmt.Errorf("parse spec for %s: %w", p, err)
		}
		if _, ok := resolved.Get(p); ok {
			log.Debug().Str("platform", p.String()).Msg("spec overrides manifest entry")
		}
		resolved.Set(p, ts)
	}

	if err := resolved.Validate(); err != nil {
		return nil, err
	}

	// from here on, credentials embedded in URLs must not reach the logs
	logging.Init(resolved.SensitiveValues())

	for _, p := range resolved.Platforms() {
		ts, _ := resolved.Get(p)
		log.Debug().
			Str("platform", p.String()).
			Str("url", ts.URL).
			Str("sha256", ts.Digest.String()).
			Msg("resolved spec")
	}
	return resolved, nil
}

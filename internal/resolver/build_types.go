package resolver

import (
	"sort"

	"github.com/timitprog-hue/buildplan/internal/models"
)

const (
	buildTypeDebug   = "debug"
	buildTypeRelease = "release"
)

// buildTypes resolves the build type map. debug and release always exist;
// debug signs with the debug profile, every other type inherits the
// top-level signing config unless it names its own.
func (r *resolution) buildTypes(defaultSigning models.SigningConfig) ([]models.BuildType, error) {
	types := map[string]*models.BuildType{
		buildTypeDebug: {
			Name:          buildTypeDebug,
			SigningConfig: models.SigningConfig{Kind: models.SigningDebug},
			Debuggable:    true,
		},
		buildTypeRelease: {
			Name:          buildTypeRelease,
			SigningConfig: defaultSigning,
		},
	}

	if v, ok := r.lookup(models.KeyBuildTypes); ok {
		declared, ok := v.(map[string]interface{})
		if !ok {
			return nil, models.NewValidationError(models.KeyBuildTypes, "must be a map of build type names to settings, got %s", describe(v))
		}
		for _, name := range sortedKeys(declared) {
			settings := declared[name]
			field := models.KeyBuildTypes + "." + name
			if !namePattern.MatchString(name) {
				return nil, models.NewValidationError(field, "%q is not a valid build type name", name)
			}
			bt, ok := types[name]
			if !ok {
				bt = &models.BuildType{Name: name, SigningConfig: defaultSigning}
				types[name] = bt
			}
			if err := applyBuildTypeSettings(field, bt, settings); err != nil {
				return nil, err
			}
		}
	}

	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)

	resolved := make([]models.BuildType, 0, len(names))
	for _, name := range names {
		resolved = append(resolved, *types[name])
	}
	return resolved, nil
}

func applyBuildTypeSettings(field string, bt *models.BuildType, settings interface{}) error {
	if settings == nil {
		return nil
	}
	m, ok := settings.(map[string]interface{})
	if !ok {
		return models.NewValidationError(field, "must be a map of settings, got %s", describe(settings))
	}

	for _, key := range sortedKeys(m) {
		value := m[key]
		keyField := field + "." + key
		if value == nil {
			continue
		}
		switch key {
		case "signingConfig":
			signing, err := parseSigningConfig(keyField, value)
			if err != nil {
				return err
			}
			bt.SigningConfig = signing
		case "debuggable":
			b, err := toBool(keyField, value)
			if err != nil {
				return err
			}
			bt.Debuggable = b
		case "minifyEnabled":
			b, err := toBool(keyField, value)
			if err != nil {
				return err
			}
			bt.MinifyEnabled = b
		default:
			return models.NewValidationError(keyField, "unknown key (expected signingConfig, debuggable or minifyEnabled)")
		}
	}
	return nil
}

package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/timitprog-hue/buildplan/internal/models"
)

var pluginIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// pluginAliases maps legacy short plugin ids to the id they apply
var pluginAliases = map[string]string{
	"kotlin-android": "org.jetbrains.kotlin.android",
	"kotlin-kapt":    "org.jetbrains.kotlin.kapt",
	"android":        "com.android.application",
}

const kotlinAndroidPlugin = "org.jetbrains.kotlin.android"

// CanonicalPluginID resolves a legacy alias to the id it stands for
func CanonicalPluginID(id string) string {
	if canonical, ok := pluginAliases[id]; ok {
		return canonical
	}
	return id
}

// plugins keeps the declared order exactly; later plugins may consume hooks
// registered by earlier ones, so nothing here sorts or deduplicates silently.
func (r *resolution) plugins() ([]models.PluginInvocation, error) {
	field := models.KeyPluginList
	v, ok := r.lookup(field)
	if !ok {
		return []models.PluginInvocation{}, nil
	}

	list, ok := v.([]interface{})
	if !ok {
		return nil, models.NewValidationError(field, "must be a list of plugin ids, got %s", describe(v))
	}

	plugins := make([]models.PluginInvocation, 0, len(list))
	firstSeen := make(map[string]int, len(list))
	for i, entry := range list {
		entryField := fmt.Sprintf("%s[%d]", field, i)
		plugin, err := parsePluginEntry(entryField, entry)
		if err != nil {
			return nil, err
		}
		plugin.Order = i

		canonical := CanonicalPluginID(plugin.ID)
		if prev, dup := firstSeen[canonical]; dup {
			return nil, models.NewValidationError(field,
				"duplicate plugin %q at positions %d and %d", plugin.ID, prev, i)
		}
		firstSeen[canonical] = i
		plugins = append(plugins, plugin)
	}
	return plugins, nil
}

// parsePluginEntry accepts "id" or {id: ..., version: ...}
func parsePluginEntry(field string, entry interface{}) (models.PluginInvocation, error) {
	var plugin models.PluginInvocation

	switch e := entry.(type) {
	case string:
		plugin.ID = strings.TrimSpace(e)
	case map[string]interface{}:
		for _, key := range sortedKeys(e) {
			if key != "id" && key != "version" {
				return plugin, models.NewValidationError(field+"."+key, "unknown key (expected id or version)")
			}
		}
		idValue, ok := e["id"]
		if !ok || idValue == nil {
			return plugin, models.NewValidationError(field+".id", "required field is missing")
		}
		id, err := requireString(field+".id", idValue)
		if err != nil {
			return plugin, err
		}
		plugin.ID = strings.TrimSpace(id)

		if versionValue, ok := e["version"]; ok && versionValue != nil {
			version, err := requireString(field+".version", versionValue)
			if err != nil {
				return plugin, err
			}
			plugin.Version = strings.TrimSpace(version)
		}
	default:
		return plugin, models.NewValidationError(field, "must be a plugin id or {id, version}, got %s", describe(entry))
	}

	if plugin.ID == "" {
		return plugin, models.NewValidationError(field, "plugin id is empty")
	}
	if !pluginIDPattern.MatchString(plugin.ID) {
		return plugin, models.NewValidationError(field, "%q is not a valid plugin id", plugin.ID)
	}
	return plugin, nil
}

func usesKotlin(plugins []models.PluginInvocation) bool {
	for _, p := range plugins {
		if CanonicalPluginID(p.ID) == kotlinAndroidPlugin {
			return true
		}
	}
	return false
}

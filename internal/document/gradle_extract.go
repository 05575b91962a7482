package document

import (
	"fmt"
	"strings"

	"github.com/timitprog-hue/buildplan/internal/models"
)

// kotlinPluginPrefix expands the kotlin("x") plugin shorthand
const kotlinPluginPrefix = "org.jetbrains.kotlin."

// extractGradleDocument maps the recognized settings of a parsed script
// onto build document keys. Unknown statements are ignored.
func extractGradleDocument(stmts []*gradleStmt) (map[string]interface{}, error) {
	out := make(map[string]interface{})

	for _, stmt := range stmts {
		switch {
		case stmt.Name == "plugins" && stmt.Kind == gradleBlock:
			plugins, err := extractGradlePlugins(stmt.Body)
			if err != nil {
				return nil, err
			}
			out[models.KeyPluginList] = plugins
		case stmt.Name == "android" && stmt.Kind == gradleBlock:
			if err := extractGradleAndroid(stmt.Body, out); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

func extractGradlePlugins(body []*gradleStmt) ([]interface{}, error) {
	plugins := make([]interface{}, 0, len(body))
	for _, stmt := range body {
		if stmt.Kind != gradleCall {
			return nil, fmt.Errorf("%s: unsupported plugin declaration %q", stmt.Position, stmt.Name)
		}
		if len(stmt.Args) != 1 {
			return nil, fmt.Errorf("%s: %s() takes exactly one argument", stmt.Position, stmt.Name)
		}
		arg, ok := stmt.Args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s: %s() argument must be a string literal", stmt.Position, stmt.Name)
		}

		var id string
		switch stmt.Name {
		case "id":
			id = arg
		case "kotlin":
			id = kotlinPluginPrefix + arg
		default:
			return nil, fmt.Errorf("%s: unsupported plugin declaration %s(%q)", stmt.Position, stmt.Name, arg)
		}

		// apply false only puts the plugin on the classpath
		if apply, ok := stmt.Infix["apply"]; ok && apply == false {
			continue
		}

		if v, ok := stmt.Infix["version"]; ok {
			version, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%s: plugin %q version must be a string literal", stmt.Position, id)
			}
			plugins = append(plugins, map[string]interface{}{"id": id, "version": version})
			continue
		}
		plugins = append(plugins, id)
	}
	return plugins, nil
}

func extractGradleAndroid(body []*gradleStmt, out map[string]interface{}) error {
	for _, stmt := range body {
		switch stmt.Name {
		case "namespace":
			if err := assignGradleValue(stmt, out, models.KeyNamespace); err != nil {
				return err
			}
		case "compileSdk", "compileSdkVersion":
			if err := assignGradleValue(stmt, out, models.KeyCompileSdkVersion); err != nil {
				return err
			}
		case "defaultConfig":
			if err := extractGradleDefaultConfig(stmt.Body, out); err != nil {
				return err
			}
		case "buildTypes":
			buildTypes, err := extractGradleBuildTypes(stmt.Body)
			if err != nil {
				return err
			}
			if len(buildTypes) > 0 {
				out[models.KeyBuildTypes] = buildTypes
			}
		case "compileOptions":
			if err := extractGradleCompileOptions(stmt.Body, out); err != nil {
				return err
			}
		case "kotlinOptions":
			for _, opt := range stmt.Body {
				if opt.Name == "jvmTarget" {
					if err := assignGradleValue(opt, out, models.KeyKotlinJvmTarget); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func extractGradleDefaultConfig(body []*gradleStmt, out map[string]interface{}) error {
	keys := map[string]string{
		"applicationId":    models.KeyApplicationID,
		"minSdk":           models.KeyMinSdkVersion,
		"minSdkVersion":    models.KeyMinSdkVersion,
		"targetSdk":        models.KeyTargetSdkVersion,
		"targetSdkVersion": models.KeyTargetSdkVersion,
		"versionCode":      models.KeyVersionCode,
		"versionName":      models.KeyVersionName,
		"signingConfig":    models.KeySigningConfig,
	}
	for _, stmt := range body {
		key, ok := keys[stmt.Name]
		if !ok {
			continue
		}
		// versionName is free-form text, so a reference such as
		// flutter.versionName must stay distinguishable from a literal
		if key == models.KeyVersionName {
			raw, err := gradleRaw(stmt)
			if err != nil {
				return err
			}
			if ref, ok := raw.(gradleRef); ok && !ref.Called {
				out[key] = models.Reference(ref.Path)
				continue
			}
		}
		if err := assignGradleValue(stmt, out, key); err != nil {
			return err
		}
	}
	return nil
}

// extractGradleBuildTypes accepts release { }, getByName("release") { },
// named("release") { } and create("staging") { }
func extractGradleBuildTypes(body []*gradleStmt) (map[string]interface{}, error) {
	buildTypes := make(map[string]interface{})
	for _, stmt := range body {
		var name string
		switch stmt.Kind {
		case gradleBlock:
			name = stmt.Name
		case gradleCall:
			switch stmt.Name {
			case "getByName", "named", "create", "register", "maybeCreate":
			default:
				continue
			}
			if len(stmt.Args) != 1 {
				return nil, fmt.Errorf("%s: %s() takes exactly one argument", stmt.Position, stmt.Name)
			}
			s, ok := stmt.Args[0].(string)
			if !ok {
				return nil, fmt.Errorf("%s: build type name must be a string literal", stmt.Position)
			}
			name = s
		default:
			continue
		}

		settings := make(map[string]interface{})
		for _, setting := range stmt.Body {
			switch setting.Name {
			case "signingConfig":
				if err := assignGradleValue(setting, settings, "signingConfig"); err != nil {
					return nil, err
				}
			case "isDebuggable", "debuggable":
				if err := assignGradleValue(setting, settings, "debuggable"); err != nil {
					return nil, err
				}
			case "isMinifyEnabled", "minifyEnabled":
				if err := assignGradleValue(setting, settings, "minifyEnabled"); err != nil {
					return nil, err
				}
			}
		}
		buildTypes[name] = settings
	}
	return buildTypes, nil
}

func extractGradleCompileOptions(body []*gradleStmt, out map[string]interface{}) error {
	compat := make(map[string]interface{})
	for _, stmt := range body {
		var key string
		switch stmt.Name {
		case "sourceCompatibility":
			key = "source"
		case "targetCompatibility":
			key = "target"
		default:
			continue
		}
		if err := assignGradleValue(stmt, compat, key); err != nil {
			return err
		}
	}
	if len(compat) > 0 {
		out[models.KeyJavaCompatibility] = compat
	}
	return nil
}

// gradleRaw returns the unevaluated value of name = value or name(value)
func gradleRaw(stmt *gradleStmt) (interface{}, error) {
	switch stmt.Kind {
	case gradleAssign:
		return stmt.Value, nil
	case gradleCall:
		if len(stmt.Args) != 1 {
			return nil, fmt.Errorf("%s: %s() takes exactly one argument", stmt.Position, stmt.Name)
		}
		return stmt.Args[0], nil
	default:
		return nil, fmt.Errorf("%s: %s must be assigned a value", stmt.Position, stmt.Name)
	}
}

// assignGradleValue stores the value of name = value or name(value) under key
func assignGradleValue(stmt *gradleStmt, out map[string]interface{}, key string) error {
	raw, err := gradleRaw(stmt)
	if err != nil {
		return err
	}

	v, err := gradleValue(raw)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", stmt.Position, stmt.Name, err)
	}
	out[key] = v
	return nil
}

// gradleValue lowers an expression to a document value. References become
// dotted strings (flutter.minSdkVersion, JavaVersion.VERSION_17), and
// lookups like signingConfigs.getByName("debug") become the looked-up name.
func gradleValue(raw interface{}) (interface{}, error) {
	ref, ok := raw.(gradleRef)
	if !ok {
		return raw, nil
	}
	if !ref.Called {
		// JavaVersion.VERSION_17.majorVersion names the same level
		if strings.HasPrefix(ref.Path, "JavaVersion.") {
			return strings.TrimSuffix(ref.Path, ".majorVersion"), nil
		}
		return ref.Path, nil
	}

	switch {
	case strings.HasPrefix(ref.Path, "JavaVersion.") && strings.HasSuffix(ref.Path, ".toString") && len(ref.Args) == 0:
		return strings.TrimSuffix(ref.Path, ".toString"), nil
	case strings.HasPrefix(ref.Path, "signingConfigs"):
		if len(ref.Args) != 1 {
			return nil, fmt.Errorf("signing config lookup takes exactly one name")
		}
		name, ok := ref.Args[0].(string)
		if !ok {
			return nil, fmt.Errorf("signing config name must be a string literal")
		}
		return name, nil
	case ref.Path == "JavaVersion.toVersion" && len(ref.Args) == 1:
		return ref.Args[0], nil
	default:
		return nil, fmt.Errorf("unsupported expression %s(...)", ref.Path)
	}
}

package resolver

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/timitprog-hue/buildplan/internal/models"
	"github.com/timitprog-hue/buildplan/internal/plan"
)

const (
	// MaxVersionCode is the largest versionCode app stores accept
	MaxVersionCode = 2100000000
)

// applicationIDPattern requires at least two dot-separated segments, each
// starting with a letter and containing only letters, digits and underscores.
var applicationIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)+$`)

// Resolve validates raw, applies defaults and returns the normalized plan.
func Resolve(raw models.Document, tc models.Toolchain) (*models.BuildPlan, error) {
	r := &resolution{raw: raw, tc: tc}
	p, err := r.run()
	if err != nil {
		return nil, err
	}

	digest, err := plan.Digest(*p)
	if err != nil {
		return nil, err
	}
	p.Digest = digest
	return p, nil
}

type resolution struct {
	raw models.Document
	tc  models.Toolchain
}

func (r *resolution) run() (*models.BuildPlan, error) {
	// applicationId goes first so a document without one always cites it
	appID, err := r.applicationID()
	if err != nil {
		return nil, err
	}

	if err := r.checkUnknownKeys(); err != nil {
		return nil, err
	}

	namespace := appID
	if v, ok := r.lookup(models.KeyNamespace); ok {
		namespace, err = requireString(models.KeyNamespace, v)
		if err != nil {
			return nil, err
		}
		if !applicationIDPattern.MatchString(namespace) {
			return nil, models.NewValidationError(models.KeyNamespace,
				"%q is not a valid package name (expected reverse-domain form like com.example.app)", namespace)
		}
	}

	sdk, err := r.sdkVersions()
	if err != nil {
		return nil, err
	}

	versionCode := 1
	if v, ok := r.lookup(models.KeyVersionCode); ok {
		if versionCode, err = r.intValue(models.KeyVersionCode, v); err != nil {
			return nil, err
		}
	}
	if versionCode < 1 || versionCode > MaxVersionCode {
		return nil, models.NewRangeError(models.KeyVersionCode, versionCode,
			"must be between 1 and %d, got %d", MaxVersionCode, versionCode)
	}

	var versionName string
	if v, ok := r.lookup(models.KeyVersionName); ok {
		if versionName, err = r.versionName(v); err != nil {
			return nil, err
		}
	}

	signing := models.SigningConfig{Kind: models.SigningDebug}
	if v, ok := r.lookup(models.KeySigningConfig); ok {
		signing, err = parseSigningConfig(models.KeySigningConfig, v)
		if err != nil {
			return nil, err
		}
	}

	java, err := r.javaCompatibility()
	if err != nil {
		return nil, err
	}

	plugins, err := r.plugins()
	if err != nil {
		return nil, err
	}

	kotlinTarget, err := r.kotlinJvmTarget(java, plugins)
	if err != nil {
		return nil, err
	}

	buildTypes, err := r.buildTypes(signing)
	if err != nil {
		return nil, err
	}

	return &models.BuildPlan{
		ApplicationID:     appID,
		Namespace:         namespace,
		MinSdkVersion:     sdk.min,
		TargetSdkVersion:  sdk.target,
		CompileSdkVersion: sdk.compile,
		VersionCode:       versionCode,
		VersionName:       versionName,
		SigningConfig:     signing,
		JavaCompatibility: models.JavaCompatibility{
			Source: java.String(),
			Target: java.String(),
		},
		KotlinJvmTarget: kotlinTarget,
		Plugins:         plugins,
		BuildTypes:      buildTypes,
		Toolchain:       models.ToolchainInfo{SDKRoot: r.tc.SDKRoot},
	}, nil
}

// lookup returns a value for key, treating explicit nulls as absent
func (r *resolution) lookup(key string) (interface{}, bool) {
	v, ok := r.raw[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r *resolution) applicationID() (string, error) {
	v, ok := r.lookup(models.KeyApplicationID)
	if !ok {
		return "", models.NewValidationError(models.KeyApplicationID, "required field is missing")
	}
	id, err := requireString(models.KeyApplicationID, v)
	if err != nil {
		return "", err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", models.NewValidationError(models.KeyApplicationID, "required field is empty")
	}
	if !applicationIDPattern.MatchString(id) {
		return "", models.NewValidationError(models.KeyApplicationID,
			"%q is not a valid application id (expected reverse-domain form like com.example.app)", id)
	}
	return id, nil
}

func (r *resolution) checkUnknownKeys() error {
	var unknown []string
	for key := range r.raw {
		if !models.IsRecognizedKey(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return models.NewValidationError(unknown[0], "unknown key (recognized keys: %s)", strings.Join(models.RecognizedKeys, ", "))
}

type sdkVersions struct {
	min, target, compile int
}

func (r *resolution) sdkVersions() (sdkVersions, error) {
	var sdk sdkVersions

	v, ok := r.lookup(models.KeyCompileSdkVersion)
	if !ok {
		return sdk, models.NewValidationError(models.KeyCompileSdkVersion, "required field is missing")
	}
	compile, err := r.sdkLevel(models.KeyCompileSdkVersion, v)
	if err != nil {
		return sdk, err
	}
	sdk.compile = compile

	sdk.target = sdk.compile
	if v, ok := r.lookup(models.KeyTargetSdkVersion); ok {
		if sdk.target, err = r.sdkLevel(models.KeyTargetSdkVersion, v); err != nil {
			return sdk, err
		}
	}

	sdk.min = r.tc.EffectiveMinSdkVersion()
	if v, ok := r.lookup(models.KeyMinSdkVersion); ok {
		if sdk.min, err = r.sdkLevel(models.KeyMinSdkVersion, v); err != nil {
			return sdk, err
		}
	}

	for _, level := range []struct {
		field string
		value int
	}{
		{models.KeyMinSdkVersion, sdk.min},
		{models.KeyTargetSdkVersion, sdk.target},
		{models.KeyCompileSdkVersion, sdk.compile},
	} {
		if level.value < 1 {
			return sdk, models.NewRangeError(level.field, level.value, "SDK level must be at least 1, got %d", level.value)
		}
	}

	if sdk.min > sdk.target {
		return sdk, models.NewRangeError(models.KeyMinSdkVersion, sdk.min,
			"minSdkVersion (%d) must not exceed targetSdkVersion (%d)", sdk.min, sdk.target)
	}
	if sdk.target > sdk.compile {
		return sdk, models.NewRangeError(models.KeyTargetSdkVersion, sdk.target,
			"targetSdkVersion (%d) must not exceed compileSdkVersion (%d)", sdk.target, sdk.compile)
	}

	return sdk, nil
}

// sdkLevel accepts an integer or a toolchain reference such as flutter.minSdkVersion
func (r *resolution) sdkLevel(field string, v interface{}) (int, error) {
	return r.intValue(field, v)
}

// intValue accepts an integer, a dotted toolchain reference or an explicit
// {"$ref": name} reference whose property holds an integer
func (r *resolution) intValue(field string, v interface{}) (int, error) {
	if n, ok := toInt(v); ok {
		return n, nil
	}

	ref, ok := referenceName(v, true)
	if !ok {
		if s, isString := v.(string); isString {
			return 0, models.NewValidationError(field, "%q is neither an integer nor a toolchain reference", strings.TrimSpace(s))
		}
		return 0, models.NewValidationError(field, "must be an integer or toolchain reference, got %s", describe(v))
	}

	value, err := r.property(field, ref)
	if err != nil {
		return 0, err
	}
	n, ok := toInt(value)
	if !ok {
		return 0, models.NewValidationError(field, "toolchain property %q is not an integer: %q", ref, value)
	}
	return n, nil
}

// versionName is free-form, so only an explicit {"$ref": name} refers to
// the toolchain; any other string is taken literally
func (r *resolution) versionName(v interface{}) (string, error) {
	if ref, ok := referenceName(v, false); ok {
		return r.property(models.KeyVersionName, ref)
	}
	return requireString(models.KeyVersionName, v)
}

func (r *resolution) property(field, ref string) (string, error) {
	if !referencePattern.MatchString(ref) {
		return "", models.NewValidationError(field, "%q is not a valid toolchain reference", ref)
	}
	value, ok := r.tc.Property(ref)
	if !ok {
		return "", models.NewValidationError(field, "unresolved toolchain reference %q", ref)
	}
	return value, nil
}

func (r *resolution) javaCompatibility() (JavaVersion, error) {
	v, ok := r.lookup(models.KeyJavaCompatibility)
	if !ok {
		jv, err := ParseJavaVersion(r.tc.EffectiveJavaVersion())
		if err != nil {
			return JavaVersion{}, models.NewValidationError(models.KeyJavaCompatibility,
				"toolchain default Java version is invalid: %v", err)
		}
		return jv, nil
	}

	if m, ok := v.(map[string]interface{}); ok {
		return parseJavaPair(m)
	}

	jv, err := javaVersionFromValue(v)
	if err != nil {
		return JavaVersion{}, models.NewValidationError(models.KeyJavaCompatibility, "%v", err)
	}
	return jv, nil
}

// parseJavaPair accepts {source, target}; the two must name the same level
func parseJavaPair(m map[string]interface{}) (JavaVersion, error) {
	field := models.KeyJavaCompatibility
	for _, key := range sortedKeys(m) {
		if key != "source" && key != "target" {
			return JavaVersion{}, models.NewValidationError(field+"."+key, "unknown key (expected source or target)")
		}
	}

	var source, target JavaVersion
	var err error
	sv, hasSource := m["source"]
	tv, hasTarget := m["target"]
	if !hasSource && !hasTarget {
		return JavaVersion{}, models.NewValidationError(field, "must set source or target")
	}
	if hasSource {
		if source, err = javaVersionFromValue(sv); err != nil {
			return JavaVersion{}, models.NewValidationError(field+".source", "%v", err)
		}
	}
	if hasTarget {
		if target, err = javaVersionFromValue(tv); err != nil {
			return JavaVersion{}, models.NewValidationError(field+".target", "%v", err)
		}
	}

	switch {
	case !hasSource:
		return target, nil
	case !hasTarget:
		return source, nil
	case source.Feature() != target.Feature():
		return JavaVersion{}, models.NewValidationError(field,
			"source (%s) and target (%s) must be equal", source, target)
	default:
		return source, nil
	}
}

func (r *resolution) kotlinJvmTarget(java JavaVersion, plugins []models.PluginInvocation) (string, error) {
	v, ok := r.lookup(models.KeyKotlinJvmTarget)
	if !ok {
		if usesKotlin(plugins) {
			return java.String(), nil
		}
		return "", nil
	}

	target, err := javaVersionFromValue(v)
	if err != nil {
		return "", models.NewValidationError(models.KeyKotlinJvmTarget, "%v", err)
	}
	if target.Feature() != java.Feature() {
		return "", models.NewValidationError(models.KeyKotlinJvmTarget,
			"%s does not match javaCompatibility %s", target, java)
	}
	return target.String(), nil
}

func requireString(field string, v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", models.NewValidationError(field, "must be a string, got %s", describe(v))
	}
	return s, nil
}

// describe names the shape of a value for error messages
func describe(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return fmt.Sprintf("boolean %v", v)
	case string:
		return fmt.Sprintf("string %q", v)
	case []interface{}:
		return "list"
	case map[string]interface{}:
		return "map"
	default:
		return fmt.Sprintf("%T %v", v, v)
	}
}

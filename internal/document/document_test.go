package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timitprog-hue/buildplan/internal/models"
	"github.com/timitprog-hue/buildplan/internal/resolver"
)

// The same module described in every supported syntax
const (
	yamlFixture = `applicationId: com.example.asia_geoloc_app
namespace: com.example.asia_geoloc_app
compileSdkVersion: 36
minSdkVersion: flutter.minSdkVersion
targetSdkVersion: 36
versionCode: 1
versionName: "1.0"
pluginList:
  - com.android.application
  - kotlin-android
  - dev.flutter.flutter-gradle-plugin
buildTypes:
  release:
    signingConfig: debug
javaCompatibility: VERSION_17
kotlinJvmTarget: "17"
`

	jsoncFixture = `{
  // identity
  "applicationId": "com.example.asia_geoloc_app",
  "namespace": "com.example.asia_geoloc_app",
  /* SDK levels */
  "compileSdkVersion": 36,
  "minSdkVersion": "flutter.minSdkVersion",
  "targetSdkVersion": 36,
  "versionCode": 1,
  "versionName": "1.0",
  "pluginList": [
    "com.android.application",
    "kotlin-android",
    "dev.flutter.flutter-gradle-plugin",
  ],
  "buildTypes": {"release": {"signingConfig": "debug"}},
  "javaCompatibility": {"source": 17, "target": "17"},
  "kotlinJvmTarget": "17",
}
`

	hclFixture = `applicationId     = "com.example.asia_geoloc_app"
namespace         = "com.example.asia_geoloc_app"
compileSdkVersion = 36
minSdkVersion     = flutter.minSdkVersion
targetSdkVersion  = 36
versionCode       = 1
versionName       = "1.0"
pluginList        = ["com.android.application", "kotlin-android", "dev.flutter.flutter-gradle-plugin"]
javaCompatibility = { source = JavaVersion.VERSION_17, target = JavaVersion.VERSION_17 }
kotlinJvmTarget   = "17"

buildTypes {
  release {
    signingConfig = "debug"
  }
}
`
)

func readOriginalGradle(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "build.gradle.kts"))
	require.NoError(t, err)
	return data
}

func flutterToolchain() models.Toolchain {
	return models.Toolchain{Properties: map[string]string{"flutter.minSdkVersion": "21"}}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":       FormatAuto,
		"auto":   FormatAuto,
		"YAML":   FormatYAML,
		"yml":    FormatYAML,
		"json":   FormatJSONC,
		"jsonc":  FormatJSONC,
		"hcl":    FormatHCL,
		"gradle": FormatGradle,
		"kts":    FormatGradle,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("toml")
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"android/app/build.gradle.kts": FormatGradle,
		"settings.kts":                 FormatGradle,
		"build.yaml":                   FormatYAML,
		"BUILD.YML":                    FormatYAML,
		"build.json":                   FormatJSONC,
		"build.jsonc":                  FormatJSONC,
		"build.hcl":                    FormatHCL,
	}
	for path, want := range tests {
		got, err := DetectFormat(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	for _, path := range []string{"build.gradle", "build.toml", "Makefile"} {
		_, err := DetectFormat(path)
		assert.Error(t, err, path)
	}
}

func TestParseYAML(t *testing.T) {
	doc, err := Parse([]byte(yamlFixture), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "com.example.asia_geoloc_app", doc[models.KeyApplicationID])
	assert.Equal(t, 36, doc[models.KeyCompileSdkVersion])
	assert.Equal(t, "flutter.minSdkVersion", doc[models.KeyMinSdkVersion])
	assert.Equal(t, []interface{}{"com.android.application", "kotlin-android", "dev.flutter.flutter-gradle-plugin"}, doc[models.KeyPluginList])
}

func TestParseJSONC(t *testing.T) {
	doc, err := Parse([]byte(jsoncFixture), FormatJSONC)
	require.NoError(t, err)

	assert.Equal(t, int64(36), doc[models.KeyCompileSdkVersion])
	assert.Len(t, doc[models.KeyPluginList], 3)
	assert.Equal(t, map[string]interface{}{"signingConfig": "debug"},
		doc[models.KeyBuildTypes].(map[string]interface{})["release"])
}

// Numbers leave the parser as int64 or float64, never json.Number
func TestParseJSONCNumbers(t *testing.T) {
	doc, err := Parse([]byte(`{
		"versionCode": 3000000000,
		"versionName": 1,
		"javaCompatibility": {"source": 1.8},
		"pluginList": [{"id": "a.b", "version": 2}]
	}`), FormatJSONC)
	require.NoError(t, err)

	assert.Equal(t, int64(3000000000), doc[models.KeyVersionCode])
	assert.Equal(t, int64(1), doc[models.KeyVersionName])
	assert.Equal(t, map[string]interface{}{"source": 1.8}, doc[models.KeyJavaCompatibility])
	assert.Equal(t, []interface{}{map[string]interface{}{"id": "a.b", "version": int64(2)}}, doc[models.KeyPluginList])

	_, err = Parse([]byte(`{"versionCode": 1e400}`), FormatJSONC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestParseJSONCErrors(t *testing.T) {
	for _, in := range []string{`[1, 2]`, `{"a": 1} {"b": 2}`, `{"a": }`, `null`} {
		_, err := Parse([]byte(in), FormatJSONC)
		assert.Error(t, err, in)
	}
}

func TestParseHCL(t *testing.T) {
	doc, err := Parse([]byte(hclFixture), FormatHCL)
	require.NoError(t, err)

	assert.Equal(t, 36, doc[models.KeyCompileSdkVersion])
	assert.Equal(t, "flutter.minSdkVersion", doc[models.KeyMinSdkVersion])
	assert.Equal(t, map[string]interface{}{
		"source": "JavaVersion.VERSION_17",
		"target": "JavaVersion.VERSION_17",
	}, doc[models.KeyJavaCompatibility])
	assert.Equal(t, map[string]interface{}{
		"release": map[string]interface{}{"signingConfig": "debug"},
	}, doc[models.KeyBuildTypes])
}

func TestParseHCLLabelledBlocks(t *testing.T) {
	doc, err := Parse([]byte(`
buildTypes "staging" {
  debuggable = true
}
buildTypes "release" {
  minifyEnabled = true
}
`), FormatHCL)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"staging": map[string]interface{}{"debuggable": true},
		"release": map[string]interface{}{"minifyEnabled": true},
	}, doc[models.KeyBuildTypes])
}

func TestParseHCLNumbers(t *testing.T) {
	doc, err := Parse([]byte("versionCode = 42\njava = 1.8\nbig = 3000000000\n"), FormatHCL)
	require.NoError(t, err)

	assert.Equal(t, 42, doc["versionCode"])
	assert.Equal(t, 1.8, doc["java"])
	assert.Equal(t, 3000000000, doc["big"])
}

func TestParseHCLVersionNameReference(t *testing.T) {
	doc, err := Parse([]byte("versionName = flutter.versionName\nversionCode = flutter.versionCode\nlabel = \"flutter.versionName\"\n"), FormatHCL)
	require.NoError(t, err)

	assert.Equal(t, models.Reference("flutter.versionName"), doc[models.KeyVersionName])
	assert.Equal(t, "flutter.versionCode", doc[models.KeyVersionCode])
	assert.Equal(t, "flutter.versionName", doc["label"])
}

func TestParseHCLErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":          "applicationId = \n",
		"duplicate block": "buildTypes {\n}\nbuildTypes {\n}\n",
		"block conflict":  "buildTypes = 1\nbuildTypes \"release\" {\n}\n",
		"function call":   "applicationId = upper(\"x\")\n",
		"index reference": "minSdkVersion = flutter.levels[0]\n",
	}
	for name, src := range tests {
		_, err := Parse([]byte(src), FormatHCL)
		assert.Error(t, err, name)
	}
}

func TestParseOriginalGradleScript(t *testing.T) {
	doc, err := Parse(readOriginalGradle(t), FormatGradle)
	require.NoError(t, err)

	assert.Equal(t, models.Document{
		"pluginList": []interface{}{
			"com.android.application",
			"kotlin-android",
			"dev.flutter.flutter-gradle-plugin",
		},
		"namespace":         "com.example.asia_geoloc_app",
		"compileSdkVersion": 36,
		"applicationId":     "com.example.asia_geoloc_app",
		"minSdkVersion":     "flutter.minSdkVersion",
		"targetSdkVersion":  36,
		"versionCode":       1,
		"versionName":       "1.0",
		"buildTypes": map[string]interface{}{
			"release": map[string]interface{}{"signingConfig": "debug"},
		},
		"javaCompatibility": map[string]interface{}{
			"source": "JavaVersion.VERSION_17",
			"target": "JavaVersion.VERSION_17",
		},
		"kotlinJvmTarget": "17",
	}, doc)
}

func TestOriginalGradleScriptResolves(t *testing.T) {
	doc, err := Parse(readOriginalGradle(t), FormatGradle)
	require.NoError(t, err)

	p, err := resolver.Resolve(doc, flutterToolchain())
	require.NoError(t, err)

	assert.Equal(t, 21, p.MinSdkVersion)
	assert.Equal(t, 36, p.TargetSdkVersion)
	assert.Equal(t, 36, p.CompileSdkVersion)
	assert.Equal(t, models.SigningDebug, p.BuildType("release").SigningConfig.Kind)
	assert.Equal(t, "17", p.JavaCompatibility.Target)
	assert.Equal(t, "17", p.KotlinJvmTarget)
	assert.Equal(t, []string{"com.android.application", "kotlin-android", "dev.flutter.flutter-gradle-plugin"}, p.PluginIDs())

	// Without the toolchain property the reference cannot be resolved
	_, err = resolver.Resolve(doc, models.Toolchain{})
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, models.KeyMinSdkVersion, vErr.Field)
}

func TestFormatsProduceEqualDigests(t *testing.T) {
	sources := map[Format][]byte{
		FormatYAML:   []byte(yamlFixture),
		FormatJSONC:  []byte(jsoncFixture),
		FormatHCL:    []byte(hclFixture),
		FormatGradle: readOriginalGradle(t),
	}

	digests := make(map[Format]string)
	for format, src := range sources {
		doc, err := Parse(src, format)
		require.NoError(t, err, format)
		p, err := resolver.Resolve(doc, flutterToolchain())
		require.NoError(t, err, format)
		digests[format] = p.Digest
	}

	for format, digest := range digests {
		assert.Equal(t, digests[FormatGradle], digest, "%s digest differs from gradle", format)
	}
}

// An out-of-range versionCode is a range error in every syntax
func TestFormatsAgreeOnErrorKind(t *testing.T) {
	gradle := `android {
    compileSdk = 36
    defaultConfig {
        applicationId = "com.example.app"
        versionCode = 3000000000
    }
}
`
	sources := map[Format]string{
		FormatYAML:   "applicationId: com.example.app\ncompileSdkVersion: 36\nversionCode: 3000000000\n",
		FormatJSONC:  `{"applicationId": "com.example.app", "compileSdkVersion": 36, "versionCode": 3000000000}`,
		FormatHCL:    "applicationId = \"com.example.app\"\ncompileSdkVersion = 36\nversionCode = 3000000000\n",
		FormatGradle: gradle,
	}

	for format, src := range sources {
		t.Run(string(format), func(t *testing.T) {
			doc, err := Parse([]byte(src), format)
			require.NoError(t, err)

			_, err = resolver.Resolve(doc, models.Toolchain{})
			var rErr *models.RangeError
			require.ErrorAs(t, err, &rErr)
			assert.Equal(t, models.KeyVersionCode, rErr.Field)
			assert.Equal(t, 3000000000, rErr.Value)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build.hcl")
	require.NoError(t, os.WriteFile(path, []byte(hclFixture), 0644))

	doc, err := Load(path, FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, "com.example.asia_geoloc_app", doc[models.KeyApplicationID])

	// Explicit format overrides the extension
	odd := filepath.Join(dir, "build.conf")
	require.NoError(t, os.WriteFile(odd, []byte(yamlFixture), 0644))
	doc, err = Load(odd, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 36, doc[models.KeyCompileSdkVersion])

	_, err = Load(odd, FormatAuto)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"), FormatAuto)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load build config from")
}

func TestParseRejectsAutoFormat(t *testing.T) {
	_, err := Parse([]byte(yamlFixture), FormatAuto)
	assert.Error(t, err)
}

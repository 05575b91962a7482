package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timitprog-hue/buildplan/internal/models"
	"github.com/timitprog-hue/buildplan/internal/resolver"
)

func parseGradle(t *testing.T, src string) models.Document {
	t.Helper()
	doc, err := Parse([]byte(src), FormatGradle)
	require.NoError(t, err)
	return doc
}

func TestGradlePluginForms(t *testing.T) {
	doc := parseGradle(t, `
plugins {
    id("com.android.application")
    kotlin("android")
    id("com.google.gms.google-services") version "4.4.2"
    id("com.google.firebase.crashlytics") version "3.0.2" apply false
    kotlin("kapt"); id("dev.flutter.flutter-gradle-plugin")
}
`)

	assert.Equal(t, []interface{}{
		"com.android.application",
		"org.jetbrains.kotlin.android",
		map[string]interface{}{"id": "com.google.gms.google-services", "version": "4.4.2"},
		"org.jetbrains.kotlin.kapt",
		"dev.flutter.flutter-gradle-plugin",
	}, doc[models.KeyPluginList])
}

func TestGradleLegacySyntax(t *testing.T) {
	doc := parseGradle(t, `
android {
    compileSdkVersion(34)
    namespace = "com.example.legacy"

    defaultConfig {
        applicationId = "com.example.legacy"
        minSdkVersion(21)
        targetSdkVersion(34)
        versionCode = 1_000L
    }

    compileOptions {
        sourceCompatibility = JavaVersion.toVersion("11")
    }
}
`)

	assert.Equal(t, 34, doc[models.KeyCompileSdkVersion])
	assert.Equal(t, 21, doc[models.KeyMinSdkVersion])
	assert.Equal(t, 34, doc[models.KeyTargetSdkVersion])
	assert.Equal(t, 1000, doc[models.KeyVersionCode])
	assert.Equal(t, map[string]interface{}{"source": "11"}, doc[models.KeyJavaCompatibility])
}

func TestGradleBuildTypeForms(t *testing.T) {
	doc := parseGradle(t, `
android {
    buildTypes {
        release {
            isMinifyEnabled = true
            signingConfig = signingConfigs["upload"]
        }
        getByName("debug") {
            isDebuggable = true
        }
        create("staging") {
            initWith(getByName("debug"))
            signingConfig = signingConfigs.getByName("staging")
        }
    }
}
`)

	assert.Equal(t, map[string]interface{}{
		"release": map[string]interface{}{"minifyEnabled": true, "signingConfig": "upload"},
		"debug":   map[string]interface{}{"debuggable": true},
		"staging": map[string]interface{}{"signingConfig": "staging"},
	}, doc[models.KeyBuildTypes])
}

func TestGradleIgnoresUnrelatedBlocks(t *testing.T) {
	doc := parseGradle(t, `
// top-level comment
android {
    namespace = "com.example.app" /* trailing */
    lint { abortOnError = false }
}
flutter { source = "../.." }
dependencies {
    implementation("androidx.core:core-ktx:1.13.1")
}
`)

	assert.Equal(t, models.Document{"namespace": "com.example.app"}, doc)
}

func TestGradleNegativeNumbersAndNamedArgs(t *testing.T) {
	doc := parseGradle(t, `
android {
    defaultConfig {
        versionCode = -1
    }
    buildTypes {
        named(name = "beta") { isDebuggable = false }
    }
}
`)

	assert.Equal(t, -1, doc[models.KeyVersionCode])
	assert.Equal(t, map[string]interface{}{
		"beta": map[string]interface{}{"debuggable": false},
	}, doc[models.KeyBuildTypes])
}

func TestGradleRejectsImperativeCode(t *testing.T) {
	tests := map[string]string{
		"val":          "val sdk = 34\n",
		"if":           "android {\n if (true) { compileSdk = 34 }\n}\n",
		"import":       "import java.util.Properties\n",
		"apply":        "apply(plugin = \"x\")\n",
		"template":     "android {\n namespace = \"com.$name\"\n}\n",
		"braced tmpl":  "android {\n namespace = \"${ns}\"\n}\n",
		"unclosed":     "android {\n compileSdk = 34\n",
		"stray brace":  "}\n",
		"bad operator": "android {\n compileSdk + 34\n}\n",
	}
	for name, src := range tests {
		_, err := Parse([]byte(src), FormatGradle)
		assert.Error(t, err, name)
	}
}

func TestGradleErrorsCarryPosition(t *testing.T) {
	_, err := Parse([]byte("android {\n    compileSdk = \n}\n"), FormatGradle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build.gradle.kts:3:")
}

func TestGradleRejectsUnsupportedPluginDeclaration(t *testing.T) {
	for _, src := range []string{
		"plugins {\n    `kotlin-dsl`\n}\n",
		"plugins {\n    alias(libs.plugins.android)\n}\n",
		"plugins {\n    id(\"a\", \"b\")\n}\n",
		"plugins {\n    id(\"a\") version 3\n}\n",
	} {
		_, err := Parse([]byte(src), FormatGradle)
		assert.Error(t, err, src)
	}
}

func TestGradleUnsupportedExpression(t *testing.T) {
	_, err := Parse([]byte("android {\n defaultConfig {\n versionCode = computeVersion()\n }\n}\n"), FormatGradle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported expression")
}

// The stock Flutter module template takes versions from the Flutter toolchain
func TestGradleFlutterTemplateLines(t *testing.T) {
	doc := parseGradle(t, `
android {
    namespace = "com.example.app"
    compileSdk = flutter.compileSdkVersion

    compileOptions {
        sourceCompatibility = JavaVersion.VERSION_17
        targetCompatibility = JavaVersion.VERSION_17.majorVersion
    }

    kotlinOptions {
        jvmTarget = JavaVersion.VERSION_17.toString()
    }

    defaultConfig {
        applicationId = "com.example.app"
        minSdk = flutter.minSdkVersion
        targetSdk = flutter.targetSdkVersion
        versionCode = flutter.versionCode
        versionName = flutter.versionName
    }
}
`)

	assert.Equal(t, "flutter.versionCode", doc[models.KeyVersionCode])
	assert.Equal(t, models.Reference("flutter.versionName"), doc[models.KeyVersionName])
	assert.Equal(t, "JavaVersion.VERSION_17", doc[models.KeyKotlinJvmTarget])
	assert.Equal(t, map[string]interface{}{
		"source": "JavaVersion.VERSION_17",
		"target": "JavaVersion.VERSION_17",
	}, doc[models.KeyJavaCompatibility])

	tc := models.Toolchain{Properties: map[string]string{
		"flutter.compileSdkVersion": "36",
		"flutter.minSdkVersion":     "21",
		"flutter.targetSdkVersion":  "36",
		"flutter.versionCode":       "5",
		"flutter.versionName":       "1.0.5",
	}}
	p, err := resolver.Resolve(doc, tc)
	require.NoError(t, err)
	assert.Equal(t, 5, p.VersionCode)
	assert.Equal(t, "1.0.5", p.VersionName)
	assert.Equal(t, "17", p.KotlinJvmTarget)
	assert.Equal(t, "17", p.JavaCompatibility.Source)

	// Without the Flutter properties the references fail instead of leaking through as text
	delete(tc.Properties, "flutter.versionName")
	_, err = resolver.Resolve(doc, tc)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, models.KeyVersionName, vErr.Field)
}

func TestGradleVersionNameLiteral(t *testing.T) {
	doc := parseGradle(t, `
android {
    defaultConfig {
        versionName = "flutter.versionName"
    }
}
`)
	assert.Equal(t, "flutter.versionName", doc[models.KeyVersionName])
}

func TestGradleJavaVersionToStringTakesNoArguments(t *testing.T) {
	_, err := Parse([]byte(`
android {
    kotlinOptions {
        jvmTarget = JavaVersion.VERSION_17.toString(1)
    }
}
`), FormatGradle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported expression")
}

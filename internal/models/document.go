package models

// Document is a declarative build document after syntax parsing.
// Values are the plain Go shapes produced by the parsers: strings, bools,
// numbers (int, int64 or float64), []interface{} and
// map[string]interface{}.
type Document map[string]interface{}

// ReferenceKey marks an explicit toolchain reference: {"$ref": "flutter.versionName"}.
// Free-form string fields such as versionName can only refer to the
// toolchain this way; numeric fields also accept a bare dotted name.
const ReferenceKey = "$ref"

// Reference builds an explicit toolchain reference value
func Reference(name string) map[string]interface{} {
	return map[string]interface{}{ReferenceKey: name}
}

// AsReference returns the property name of an explicit toolchain reference
func AsReference(v interface{}) (string, bool) {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) != 1 {
		return "", false
	}
	name, ok := m[ReferenceKey].(string)
	return name, ok
}

// Recognized top-level document keys
const (
	KeyApplicationID     = "applicationId"
	KeyNamespace         = "namespace"
	KeyMinSdkVersion     = "minSdkVersion"
	KeyTargetSdkVersion  = "targetSdkVersion"
	KeyCompileSdkVersion = "compileSdkVersion"
	KeyVersionCode       = "versionCode"
	KeyVersionName       = "versionName"
	KeySigningConfig     = "signingConfig"
	KeyJavaCompatibility = "javaCompatibility"
	KeyKotlinJvmTarget   = "kotlinJvmTarget"
	KeyPluginList        = "pluginList"
	KeyBuildTypes        = "buildTypes"
)

// RecognizedKeys lists every top-level key a build document may carry
var RecognizedKeys = []string{
	KeyApplicationID,
	KeyNamespace,
	KeyMinSdkVersion,
	KeyTargetSdkVersion,
	KeyCompileSdkVersion,
	KeyVersionCode,
	KeyVersionName,
	KeySigningConfig,
	KeyJavaCompatibility,
	KeyKotlinJvmTarget,
	KeyPluginList,
	KeyBuildTypes,
}

// IsRecognizedKey reports whether key is a known top-level document key
func IsRecognizedKey(key string) bool {
	for _, k := range RecognizedKeys {
		if k == key {
			return true
		}
	}
	return false
}

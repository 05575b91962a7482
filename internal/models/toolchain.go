package models

const (
	// DefaultMinSdkVersion is used when neither the document nor the toolchain set a minimum SDK
	DefaultMinSdkVersion = 1

	// DefaultJavaVersion is used when neither the document nor the toolchain set a Java level
	DefaultJavaVersion = "1.8"
)

// Toolchain is the ambient build-tool state a document is resolved against.
// It is passed explicitly to the resolver so resolution never consults the
// process environment.
type Toolchain struct {
	// SDKRoot is the platform SDK installation the plan targets
	SDKRoot string

	// Properties holds values that documents may reference by dotted name,
	// e.g. "flutter.minSdkVersion" -> "21"
	Properties map[string]string

	// DefaultMinSdkVersion replaces a missing minSdkVersion. Zero means DefaultMinSdkVersion.
	DefaultMinSdkVersion int

	// DefaultJavaVersion replaces a missing javaCompatibility. Empty means DefaultJavaVersion.
	DefaultJavaVersion string
}

// Property looks up a toolchain property by its dotted name
func (t Toolchain) Property(name string) (string, bool) {
	if t.Properties == nil {
		return "", false
	}
	v, ok := t.Properties[name]
	return v, ok
}

// EffectiveMinSdkVersion returns the minimum SDK applied when a document omits one
func (t Toolchain) EffectiveMinSdkVersion() int {
	if t.DefaultMinSdkVersion > 0 {
		return t.DefaultMinSdkVersion
	}
	return DefaultMinSdkVersion
}

// EffectiveJavaVersion returns the Java level applied when a document omits one
func (t Toolchain) EffectiveJavaVersion() string {
	if t.DefaultJavaVersion != "" {
		return t.DefaultJavaVersion
	}
	return DefaultJavaVersion
}

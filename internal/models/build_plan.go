package models

import "fmt"

// SigningKind identifies which credential profile signs an artifact
type SigningKind string

const (
	// SigningDebug is the toolchain-generated debug keystore
	SigningDebug SigningKind = "debug"
	// SigningRelease is the conventional release profile
	SigningRelease SigningKind = "release"
	// SigningCustom is any other named profile
	SigningCustom SigningKind = "custom"
)

// SigningConfig references a named signing profile
type SigningConfig struct {
	Kind SigningKind `json:"kind" yaml:"kind"`
	// Name is only set for SigningCustom
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// String renders the config as debug, release or custom(name)
func (s SigningConfig) String() string {
	if s.Kind == SigningCustom {
		return fmt.Sprintf("custom(%s)", s.Name)
	}
	return string(s.Kind)
}

// JavaCompatibility is the Java language level applied to sources and bytecode
type JavaCompatibility struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// PluginInvocation is one entry of the resolved plugin order
type PluginInvocation struct {
	// Order is the zero-based position in the declared plugin list
	Order   int    `json:"order" yaml:"order"`
	ID      string `json:"id" yaml:"id"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// BuildType is a resolved build variant such as debug or release
type BuildType struct {
	Name          string        `json:"name" yaml:"name"`
	SigningConfig SigningConfig `json:"signingConfig" yaml:"signingConfig"`
	Debuggable    bool          `json:"debuggable" yaml:"debuggable"`
	MinifyEnabled bool          `json:"minifyEnabled" yaml:"minifyEnabled"`
}

// ToolchainInfo records the toolchain state a plan was resolved against
type ToolchainInfo struct {
	SDKRoot string `json:"sdkRoot,omitempty" yaml:"sdkRoot,omitempty"`
}

// BuildPlan is the validated, defaulted build description handed to the packager
type BuildPlan struct {
	ApplicationID     string             `json:"applicationId" yaml:"applicationId"`
	Namespace         string             `json:"namespace" yaml:"namespace"`
	MinSdkVersion     int                `json:"minSdkVersion" yaml:"minSdkVersion"`
	TargetSdkVersion  int                `json:"targetSdkVersion" yaml:"targetSdkVersion"`
	CompileSdkVersion int                `json:"compileSdkVersion" yaml:"compileSdkVersion"`
	VersionCode       int                `json:"versionCode" yaml:"versionCode"`
	VersionName       string             `json:"versionName,omitempty" yaml:"versionName,omitempty"`
	SigningConfig     SigningConfig      `json:"signingConfig" yaml:"signingConfig"`
	JavaCompatibility JavaCompatibility  `json:"javaCompatibility" yaml:"javaCompatibility"`
	KotlinJvmTarget   string             `json:"kotlinJvmTarget,omitempty" yaml:"kotlinJvmTarget,omitempty"`
	Plugins           []PluginInvocation `json:"plugins" yaml:"plugins"`
	BuildTypes        []BuildType        `json:"buildTypes" yaml:"buildTypes"`
	Toolchain         ToolchainInfo      `json:"toolchain" yaml:"toolchain"`

	// Digest fingerprints every other field; equal plans have equal digests
	Digest string `json:"digest,omitempty" yaml:"digest,omitempty"`
}

// PluginIDs returns the plugin ids in invocation order
func (p *BuildPlan) PluginIDs() []string {
	ids := make([]string, len(p.Plugins))
	for i, plugin := range p.Plugins {
		ids[i] = plugin.ID
	}
	return ids
}

// BuildType returns the named build type, or nil
func (p *BuildPlan) BuildType(name string) *BuildType {
	for i := range p.BuildTypes {
		if p.BuildTypes[i].Name == name {
			return &p.BuildTypes[i]
		}
	}
	return nil
}

// Package resolver turns a parsed build document into a BuildPlan.
//
// Resolve is a pure function: it reads only its arguments, never logs, and
// never mutates the document. Ambient build-tool state (SDK root, toolchain
// properties such as flutter.minSdkVersion) arrives through the Toolchain
// parameter instead of the process environment.
//
// Failures are either *models.ValidationError (a required field is missing
// or malformed) or *models.RangeError (a numeric invariant such as
// minSdkVersion <= targetSdkVersion <= compileSdkVersion is violated).
// Both are terminal for the resolution; no partial plan is returned.
package resolver

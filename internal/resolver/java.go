package resolver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
)

// javaConstantPattern matches Gradle's JavaVersion enum names: VERSION_17, VERSION_1_8
var javaConstantPattern = regexp.MustCompile(`^(?:JavaVersion\.)?VERSION_(\d+)(?:_(\d+))?$`)

// JavaVersion is a Java language level such as 1.8 or 17
type JavaVersion struct {
	v *version.Version
}

// ParseJavaVersion accepts "17", "1.8", "8", "17.0.2", "VERSION_17" and "JavaVersion.VERSION_1_8"
func ParseJavaVersion(s string) (JavaVersion, error) {
	raw := strings.TrimSpace(s)
	if m := javaConstantPattern.FindStringSubmatch(raw); m != nil {
		raw = m[1]
		if m[2] != "" {
			raw += "." + m[2]
		}
	}

	v, err := version.NewVersion(raw)
	if err != nil {
		return JavaVersion{}, fmt.Errorf("%q is not a Java version", s)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return JavaVersion{}, fmt.Errorf("%q is not a Java version", s)
	}

	jv := JavaVersion{v: v}
	if jv.Feature() < 1 {
		return JavaVersion{}, fmt.Errorf("%q does not name a Java feature release", s)
	}
	return jv, nil
}

// javaVersionFromValue accepts strings and numbers from a parsed document
func javaVersionFromValue(v interface{}) (JavaVersion, error) {
	switch n := v.(type) {
	case string:
		return ParseJavaVersion(n)
	case float64:
		return ParseJavaVersion(strconv.FormatFloat(n, 'f', -1, 64))
	case float32:
		return ParseJavaVersion(strconv.FormatFloat(float64(n), 'f', -1, 32))
	default:
		if i, ok := toInt(v); ok {
			return ParseJavaVersion(strconv.Itoa(i))
		}
		if num, ok := v.(fmt.Stringer); ok {
			return ParseJavaVersion(num.String())
		}
		return JavaVersion{}, fmt.Errorf("must be a Java version, got %s", describe(v))
	}
}

// Feature returns the feature release number: 8 for 1.8, 17 for 17.0.2
func (j JavaVersion) Feature() int {
	if j.v == nil {
		return 0
	}
	segments := j.v.Segments()
	if segments[0] == 1 {
		return segments[1]
	}
	return segments[0]
}

// String renders the canonical form: "1.N" up to Java 8, "N" afterwards
func (j JavaVersion) String() string {
	feature := j.Feature()
	if feature <= 8 {
		return fmt.Sprintf("1.%d", feature)
	}
	return strconv.Itoa(feature)
}

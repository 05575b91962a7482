package plan

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/timitprog-hue/buildplan/internal/models"
)

var (
	colorPrimary = lipgloss.Color("#00D4FF") // Cyan
	colorSuccess = lipgloss.Color("#10B981") // Green
	colorMuted   = lipgloss.Color("#6B7280") // Gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)
)

// RenderText renders a human-readable summary of a plan
func RenderText(p *models.BuildPlan, styled bool) string {
	style := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}
	row := func(sb *strings.Builder, label string, value interface{}) {
		fmt.Fprintf(sb, "  %s %s\n", style(labelStyle, fmt.Sprintf("%-20s", label+":")), style(valueStyle, fmt.Sprint(value)))
	}

	var sb strings.Builder
	sb.WriteString(style(titleStyle, "Build plan for "+p.ApplicationID))
	sb.WriteString("\n")

	row(&sb, "namespace", p.Namespace)
	row(&sb, "sdk (min/target/compile)", fmt.Sprintf("%d / %d / %d", p.MinSdkVersion, p.TargetSdkVersion, p.CompileSdkVersion))
	if p.VersionName != "" {
		row(&sb, "version", fmt.Sprintf("%s (%d)", p.VersionName, p.VersionCode))
	} else {
		row(&sb, "version", fmt.Sprintf("(%d)", p.VersionCode))
	}
	row(&sb, "signing", p.SigningConfig.String())
	row(&sb, "java", p.JavaCompatibility.Source)
	if p.KotlinJvmTarget != "" {
		row(&sb, "kotlin jvmTarget", p.KotlinJvmTarget)
	}
	if p.Toolchain.SDKRoot != "" {
		row(&sb, "sdk root", p.Toolchain.SDKRoot)
	}

	sb.WriteString(style(titleStyle, "Plugins"))
	sb.WriteString("\n")
	if len(p.Plugins) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, plugin := range p.Plugins {
		id := plugin.ID
		if plugin.Version != "" {
			id += " " + plugin.Version
		}
		fmt.Fprintf(&sb, "  %d. %s\n", plugin.Order+1, style(valueStyle, id))
	}

	sb.WriteString(style(titleStyle, "Build types"))
	sb.WriteString("\n")
	for _, bt := range p.BuildTypes {
		var flags []string
		if bt.Debuggable {
			flags = append(flags, "debuggable")
		}
		if bt.MinifyEnabled {
			flags = append(flags, "minify")
		}
		line := fmt.Sprintf("%s signed with %s", bt.Name, bt.SigningConfig)
		if len(flags) > 0 {
			line += " [" + strings.Join(flags, ", ") + "]"
		}
		fmt.Fprintf(&sb, "  %s\n", line)
	}

	if p.Digest != "" {
		row(&sb, "digest", p.Digest)
	}
	return sb.String()
}

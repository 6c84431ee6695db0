// gen-docs writes shell completions and a man page for the kioskguard flags.
package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/stigoleg/kiosk-guard/internal/config"
)

const summary = "lock a touch-screen terminal into one fullscreen kiosk application"

type flagView struct {
	config.FlagDoc
}

// Dashed returns the names with a leading dash, the way Go's flag package
// spells them.
func (f flagView) Dashed() []string {
	out := make([]string, len(f.Names))
	for i, n := range f.Names {
		out[i] = "-" + n
	}
	return out
}

// Long is the longest name, used where a shell wants a single spelling.
func (f flagView) Long() string { return f.Names[len(f.Names)-1] }

// Short is the one-letter alias, or "".
func (f flagView) Short() string {
	if len(f.Names) > 1 && len(f.Names[0]) == 1 {
		return f.Names[0]
	}
	return ""
}

var funcs = template.FuncMap{
	"join":  strings.Join,
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"roff":  func(s string) string { return strings.ReplaceAll(s, "-", `\-`) },
	"quote": func(s string) string { return strings.ReplaceAll(s, `"`, `\"`) },
	"zsh":   func(s string) string { return strings.NewReplacer("[", `\[`, "]", `\]`, "'", `'\''`).Replace(s) },
}

const bashTmpl = `_{{.App}}() {
  local cur="${COMP_WORDS[COMP_CWORD]}"
  local opts="{{range .Flags}}{{join .Dashed " "}} {{end}}"
  if [[ ${cur} == -* ]]; then
    COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
  fi
}
complete -F _{{.App}} {{.App}}
`

const zshTmpl = `#compdef {{.App}}
_arguments \
{{- range .Flags}}
  '-{{.Long}}{{if .Arg}}={{end}}[{{zsh .Desc}}]{{if .Arg}}:{{lower .Arg}}:{{end}}' \
{{- end}}
  && return 0
`

const fishTmpl = `complete -c {{.App}} -f
{{range .Flags -}}
complete -c {{$.App}} -o {{.Long}}{{if .Short}} -o {{.Short}}{{end}}{{if .Arg}} -r{{end}} -d "{{quote .Desc}}"
{{end}}`

const manTmpl = `.TH "{{upper .App}}" "1" "" "kiosk-guard" "User Commands"
.SH NAME
{{.App}} \- {{.Summary}}
.SH SYNOPSIS
.B {{.App}}
{{range .Flags}}[{{roff (join .Dashed "|")}}{{if .Arg}} \fI{{.Arg}}\fR{{end}}] {{end}}
.SH DESCRIPTION
{{.App}} pins the session to a single fullscreen application. While kiosk mode is on, logout, user switching, suspend and the screen saver are inhibited and the system bars are hidden.
.SH OPTIONS
{{- range .Flags}}
.TP
\fB{{roff (join .Dashed ", ")}}\fR{{if .Arg}} \fI{{.Arg}}\fR{{end}}
{{.Desc}}
{{- end}}
.SH OVERRIDES
A two-finger double tap on the touch screen, or Volume Up and Volume Down pressed together, toggles kiosk mode.
.SH ENVIRONMENT
{{- range .Env}}
.TP
\fB{{.}}\fR
Overrides the matching config file setting.
{{- end}}
.SH FILES
.TP
\fI{{.ConfigPath}}\fR
Default config file.
.SH EXAMPLES
.TP
\fB{{.App}} \-headless \-auto\-enter\fR
Lock immediately and run without a console.
.TP
\fB{{.App}} \-metrics\-addr :9273\fR
Also serve Prometheus metrics.
.SH SEE ALSO
https://github.com/stigoleg/kiosk-guard
`

type page struct {
	App        string
	Summary    string
	Flags      []flagView
	Env        []string
	ConfigPath string
}

func main() {
	data := page{
		App:        config.DefaultAppName,
		Summary:    summary,
		Env:        []string{config.EnvAutoEnter, config.EnvMetricsAddr, config.EnvWindowTitle},
		ConfigPath: "~/.config/" + config.DefaultAppName + "/config.toml",
	}
	for _, d := range config.FlagDocs {
		data.Flags = append(data.Flags, flagView{d})
	}

	outputs := []struct{ path, tmpl string }{
		{filepath.Join("docs", "completions", data.App+".bash"), bashTmpl},
		{filepath.Join("docs", "completions", "_"+data.App), zshTmpl},
		{filepath.Join("docs", "completions", data.App+".fish"), fishTmpl},
		{filepath.Join("man", data.App+".1"), manTmpl},
	}
	for _, o := range outputs {
		if err := render(o.path, o.tmpl, data); err != nil {
			log.Fatalf("gen-docs: %s: %v", o.path, err)
		}
	}
}

func render(path, text string, data page) error {
	t, err := template.New(filepath.Base(path)).Funcs(funcs).Parse(text)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.Execute(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

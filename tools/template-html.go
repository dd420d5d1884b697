// Package tools has template-authoring utilities that don't belong in
// the service itself.
package tools

import (
	"fmt"
	"html"
	"io"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"

	md "github.com/russross/blackfriday/v2"
)

// RenderTemplateHTML writes a single-page HTML description of a form
// template: its structure, fields, and conditional-logic rules.
// Template descriptions and field labels may carry Markdown.
//
// This output is for template managers reviewing a template, not for
// applicants.
func RenderTemplateHTML(t *template.FormTemplate, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<h1 class="templateName">%s</h1>`, html.EscapeString(t.Name))
	if t.Description != "" {
		f(`<div class="templateDoc doc">%s</div>`, md.Run([]byte(t.Description)))
	}
	f(`<div class="policy">Default field requirement: <code>%s</code></div>`,
		html.EscapeString(t.DefaultFieldRequirementPolicy))

	for _, g := range t.TaskGroups {
		f(`<h2 class="taskGroup">%s</h2>`, html.EscapeString(g.Title))
		for _, task := range g.Tasks {
			renderTask(f, task)
		}
	}

	if len(t.ConditionalLogic) > 0 {
		f(`<h2>Conditional logic</h2>`)
		f(`<table class="rules">`)
		f(`<tr><th>Rule</th><th>Priority</th><th>Affects</th></tr>`)
		for _, r := range t.ConditionalLogic {
			name := r.Name
			if name == "" {
				name = r.ID
			}
			f(`<tr><td><span id="rule-%s">%s</span></td><td>%d</td><td>`,
				html.EscapeString(r.ID), html.EscapeString(name), r.Priority)
			for _, e := range r.AffectedElements {
				f(`<div><code>%s</code> <code>%s</code></div>`,
					html.EscapeString(string(e.Action)), html.EscapeString(e.ElementID))
			}
			f(`</td></tr>`)
		}
		f(`</table>`)
	}

	return nil
}

func renderTask(f func(string, ...interface{}), task *template.Task) {
	f(`<h3 class="task" id="task-%s">%s</h3>`, html.EscapeString(task.ID), html.EscapeString(task.Title))
	if task.Summary != nil && task.Summary.Mode != "" && task.Summary.Mode != template.SummaryModeStandard {
		f(`<div class="mode">mode: <code>%s</code></div>`, html.EscapeString(task.Summary.Mode))
	}

	pages := task.Pages
	if task.Summary != nil {
		pages = append(pages[:len(pages):len(pages)], task.Summary.Pages...)
	}
	for _, p := range pages {
		f(`<h4 class="page" id="page-%s">%s</h4>`, html.EscapeString(p.ID), html.EscapeString(p.Title))
		f(`<table class="fields">`)
		for _, field := range p.Fields {
			req := ""
			if field.Required != nil {
				req = fmt.Sprintf("required=%v", *field.Required)
			}
			f(`<tr><td><code>%s</code></td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				html.EscapeString(field.ID),
				html.EscapeString(field.Type),
				md.Run([]byte(field.Label)),
				req)
		}
		f(`</table>`)
	}
}

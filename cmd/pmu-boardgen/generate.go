package main

import (
	"fmt"
	"go/token"
	"strings"
	"text/template"

	"github.com/mxs-pmu/pmu-go/pkg/regulator"
)

// GenInput is the data the table template renders.
type GenInput struct {
	Source  string
	Package string
	Var     string
	Model   string
	Rails   []regulator.Descriptor
}

var funcMap = template.FuncMap{
	"hex":   func(v uint32) string { return fmt.Sprintf("0x%x", v) },
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
	"class": classConst,
	"id":    idExpr,
}

var tableTmpl = template.Must(template.New("table").Funcs(funcMap).Parse(`// Code generated by pmu-boardgen from {{.Source}}. DO NOT EDIT.

package {{.Package}}

import "github.com/mxs-pmu/pmu-go/pkg/regulator"

// {{.Var}} is the rail table for model {{.Model}}.
var {{.Var}} = []regulator.Descriptor{
{{- range .Rails}}
	{
		ID:     {{id .ID}},
		Name:   {{quote .Name}},
		Class:  {{class .Class}},
		Parent: {{quote .Parent}},
{{- if .HasVoltage}}

		MinMicroVolts:  {{.MinMicroVolts}},
		MaxMicroVolts:  {{.MaxMicroVolts}},
		StepMicroVolts: {{.StepMicroVolts}},
		Selectors:      {{.Selectors}},

		MinAllowedMicroVolts: {{.MinAllowedMicroVolts}},
		MaxAllowedMicroVolts: {{.MaxAllowedMicroVolts}},

		Control:  {{hex .Control}},
		Status:   {{hex .Status}},
		FiveVolt: {{hex .FiveVolt}},

		SelectMask:        {{hex .SelectMask}},
		EnableMask:        {{hex .EnableMask}},
		StepMask:          {{hex .StepMask}},
		DisableFETMask:    {{hex .DisableFETMask}},
		EnableLinregMask:  {{hex .EnableLinregMask}},
		LinregOffsetMask:  {{hex .LinregOffsetMask}},
		LinregOffsetShift: {{.LinregOffsetShift}},
		StableMask:        {{hex .StableMask}},
{{- end}}

		MaxMicroAmps: {{.MaxMicroAmps}},
	},
{{- end}}
}
`))

// Generate renders the rail table as Go source. The result is not yet
// formatted.
func Generate(in GenInput) (string, error) {
	if !token.IsIdentifier(in.Package) {
		return "", fmt.Errorf("invalid package name %q", in.Package)
	}
	if !token.IsIdentifier(in.Var) || !token.IsExported(in.Var) {
		return "", fmt.Errorf("invalid variable name %q: must be an exported identifier", in.Var)
	}
	if err := regulator.ValidateTable(in.Rails); err != nil {
		return "", err
	}

	var b strings.Builder
	if err := tableTmpl.Execute(&b, in); err != nil {
		return "", fmt.Errorf("template: %w", err)
	}
	return b.String(), nil
}

func classConst(c regulator.Class) string {
	switch c {
	case regulator.ClassIO:
		return "regulator.ClassIO"
	case regulator.ClassAnalogLogic:
		return "regulator.ClassAnalogLogic"
	default:
		return "regulator.ClassCurrent"
	}
}

func idExpr(id regulator.ID) string {
	switch id {
	case regulator.DigitalIO:
		return "regulator.DigitalIO"
	case regulator.Analog:
		return "regulator.Analog"
	case regulator.Logic:
		return "regulator.Logic"
	case regulator.AggregateCurrent:
		return "regulator.AggregateCurrent"
	default:
		return fmt.Sprintf("%d", uint8(id))
	}
}

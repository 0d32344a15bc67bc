package main

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mxs-pmu/pmu-go/pkg/config"
	"github.com/mxs-pmu/pmu-go/pkg/regulator"
)

const board = `
model: imx23
rails:
  vddd:
    max_uv: 1500000
    max_ua: 300000
consumers:
  - name: wifi
    max_ua: 200000
`

func boardInput(t *testing.T) GenInput {
	t.Helper()
	cfg, err := config.Parse([]byte(board))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	descs, err := cfg.Descriptors()
	if err != nil {
		t.Fatalf("Descriptors failed: %v", err)
	}
	return GenInput{Source: "board.yaml", Package: "board", Var: "Rails", Model: cfg.Model, Rails: descs}
}

func mustContain(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Errorf("output missing %q", want)
	}
}

func TestGenerateTable(t *testing.T) {
	output, err := Generate(boardInput(t))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	mustContain(t, output, "// Code generated by pmu-boardgen from board.yaml. DO NOT EDIT.")
	mustContain(t, output, "var Rails = []regulator.Descriptor{")
	mustContain(t, output, "ID:     regulator.Logic,")
	mustContain(t, output, "Class:  regulator.ClassAnalogLogic,")
	mustContain(t, output, "MaxAllowedMicroVolts: 1500000,")
	mustContain(t, output, "MaxMicroAmps: 300000,")
	mustContain(t, output, `Name:   "wifi",`)
	mustContain(t, output, "ID:     16,")
}

func TestGenerateParses(t *testing.T) {
	output, err := Generate(boardInput(t))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := parser.ParseFile(token.NewFileSet(), "rails_gen.go", output, 0); err != nil {
		t.Fatalf("generated code does not parse: %v", err)
	}
}

func TestGenerateCurrentRailHasNoRegisters(t *testing.T) {
	in := boardInput(t)
	in.Rails = []regulator.Descriptor{{
		ID: regulator.AggregateCurrent, Name: "overall_current",
		Class: regulator.ClassCurrent, MaxMicroAmps: 500000,
	}}
	output, err := Generate(in)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.Contains(output, "SelectMask") {
		t.Error("current rail should not carry register fields")
	}
}

func TestGenerateRejectsNames(t *testing.T) {
	in := boardInput(t)
	in.Package = "not a package"
	if _, err := Generate(in); err == nil {
		t.Error("expected error for invalid package name")
	}

	in = boardInput(t)
	in.Var = "rails"
	if _, err := Generate(in); err == nil {
		t.Error("expected error for unexported variable")
	}
}

func TestGenerateRejectsTable(t *testing.T) {
	in := boardInput(t)
	in.Rails = append(in.Rails, in.Rails[0])
	if _, err := Generate(in); err == nil {
		t.Error("expected error for duplicate rail")
	}
}

func TestRunWritesFormattedFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "board.yaml")
	if err := os.WriteFile(cfgPath, []byte(board), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "board", "rails_gen.go")

	if err := run(cfgPath, out, "board", "Rails"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	mustContain(t, string(data), "package board")
}

package main

import (
	"path/filepath"
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"
)

func TestAnalyzer(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), Analyzer, "basic", "lib", "uselib")
}

func TestAnalyzerConfigured(t *testing.T) {
	for _, name := range []string{"qualcheck.yaml", "qualcheck.toml"} {
		t.Run(name, func(t *testing.T) {
			a := newAnalyzer()
			if err := a.Flags.Set("config", filepath.Join(analysistest.TestData(), "config", name)); err != nil {
				t.Fatal(err)
			}

			analysistest.Run(t, analysistest.TestData(), a, "configured")
		})
	}
}

func TestAnalyzerUnknownChecker(t *testing.T) {
	a := newAnalyzer()
	if err := a.Flags.Set("checkers", "nullness"); err == nil {
		t.Fatal("unknown checker must be rejected")
	}
}

package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestSelectWindows(t *testing.T) {
	all, err := selectWindows(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(windowTable) {
		t.Fatalf("got %d windows, want %d", len(all), len(windowTable))
	}

	got, err := selectWindows([]string{" Gauss "})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].name != "gauss" {
		t.Fatalf("got %+v", got)
	}

	if _, err := selectWindows([]string{"kaiser"}); err == nil {
		t.Fatal("expected error for unknown window")
	}
}

func TestPrintWindows(t *testing.T) {
	var buf bytes.Buffer
	if err := printWindows(&buf, windowTable, 1024, 0.3, 200e3, nil); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2+len(windowTable) {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}

	rect := strings.Fields(lines[2])
	if rect[0] != "rectangular" || rect[2] != "1.000000" || rect[3] != "1.0000" || rect[4] != "195.31" {
		t.Errorf("rectangular row = %q", lines[2])
	}
	if !strings.HasPrefix(lines[4], "gauss (sigma=0.30)") {
		t.Errorf("gauss row = %q", lines[4])
	}
}

func TestPrintWindowsInvalidSigma(t *testing.T) {
	var buf bytes.Buffer
	rows, _ := selectWindows([]string{"gauss"})
	if err := printWindows(&buf, rows, 1024, 0, 200e3, nil); err == nil {
		t.Fatal("expected error for zero sigma")
	}
}

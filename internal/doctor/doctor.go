package doctor

import (
	"context"
	"fmt"
	"io"

	"github.com/celikgo/og-cli/internal/printer"
)

// RemediationKind names a fix the caller knows how to apply
type RemediationKind int

const (
	NoRemediation RemediationKind = iota
	CreateEmptyKubeconfig
	AddRancherToken
	WriteSampleConfig
)

func (k RemediationKind) String() string {
	switch k {
	case NoRemediation:
		return "none"
	case CreateEmptyKubeconfig:
		return "create empty kubeconfig"
	case AddRancherToken:
		return "add Rancher API token"
	case WriteSampleConfig:
		return "write a fresh og-cli config file"
	default:
		return fmt.Sprintf("RemediationKind(%d)", int(k))
	}
}

// Report is the outcome of one health check
type Report struct {
	Plugin      string
	Message     string
	OK          bool
	Remediation RemediationKind
}

// Check inspects one aspect of the environment
type Check func(ctx context.Context) Report

// Plugin groups the checks of one og-cli feature
type Plugin struct {
	Name   string
	Checks []Check
}

// Fixer applies one kind of remediation
type Fixer func(ctx context.Context) error

// Result is a report plus what happened when fixing it was attempted
type Result struct {
	Report
	FixAttempted bool
	FixErr       error
}

// Fixed reports whether a failing check was repaired
func (r Result) Fixed() bool {
	return r.FixAttempted && r.FixErr == nil
}

// Run executes every check of every plugin in order.
// With applyFixes set, failing checks whose remediation has an entry in
// fixers get that fixer applied once.
func Run(ctx context.Context, plugins []Plugin, fixers map[RemediationKind]Fixer, applyFixes bool) []Result {
	var results []Result
	for _, plugin := range plugins {
		for _, check := range plugin.Checks {
			report := check(ctx)
			if report.Plugin == "" {
				report.Plugin = plugin.Name
			}

			result := Result{Report: report}
			if !report.OK && applyFixes && report.Remediation != NoRemediation {
				if fix, ok := fixers[report.Remediation]; ok {
					result.FixAttempted = true
					result.FixErr = fix(ctx)
				}
			}
			results = append(results, result)
		}
	}
	return results
}

// Healthy reports whether every check passed or was fixed
func Healthy(results []Result) bool {
	for _, r := range results {
		if !r.OK && !r.Fixed() {
			return false
		}
	}
	return true
}

// Print renders results as a table
func Print(w io.Writer, results []Result) {
	tbl := printer.NewTablePrinter(w)
	tbl.SetHeader("", "PLUGIN", "CHECK", "FIX")
	for _, r := range results {
		switch {
		case r.OK:
			tbl.AddRow("✅", r.Plugin, r.Message, "")
		case r.Fixed():
			tbl.AddRow("✅", r.Plugin, r.Message, printer.Green("fixed: "+r.Remediation.String()))
		case r.FixAttempted:
			tbl.AddRow("❌", r.Plugin, r.Message, printer.Red(fmt.Sprintf("could not fix: %v", r.FixErr)))
		case r.Remediation != NoRemediation:
			tbl.AddRow("❌", r.Plugin, r.Message, printer.Yellow("run with --apply-fixes to "+r.Remediation.String()))
		default:
			tbl.AddRow("❌", r.Plugin, r.Message, "")
		}
	}
	tbl.Print()
}

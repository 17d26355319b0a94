package report

import (
	"cmp"
	"fmt"
	"go/token"
	"io"
	"slices"
	"sync"

	"github.com/fatih/color"

	"github.com/sirkon/qualcheck/internal/qualrules"
)

// Reporter collects diagnostics of a single package pass.
type Reporter struct {
	mu      sync.Mutex
	reports []Report
}

// Report represents a single diagnostic entry.
type Report struct {
	Phase    ReportPhase
	RuleCode qualrules.Rule
	Checker  string
	Pos      token.Pos
	Message  string
}

// ReportPhase marks the analysis stage where a report was generated.
type ReportPhase int

const (
	_             ReportPhase = iota
	ReportSource              // directive scrapping
	ReportCheck               // consistency checks at type-use sites
	ReportOperate             // checker specific operation rules
)

func (p ReportPhase) String() string {
	switch p {
	case ReportSource:
		return "source"
	case ReportCheck:
		return "check"
	case ReportOperate:
		return "operation"
	default:
		return fmt.Sprintf("unknown-phase(%d)", p)
	}
}

// ReporterPhase binds a Reporter to a fixed phase and checker.
// It is used during an entire analysis pass to record rule violations
// without specifying the phase repeatedly.
type ReporterPhase struct {
	parent  *Reporter
	phase   ReportPhase
	checker string
}

// Phase returns a phase-bound reporter that automatically
// sets the given phase for all reports produced through it.
func (r *Reporter) Phase(p ReportPhase) *ReporterPhase {
	return &ReporterPhase{parent: r, phase: p}
}

// Checker returns a copy of the phase reporter also marking reports with the checker name.
func (rp *ReporterPhase) Checker(name string) *ReporterPhase {
	return &ReporterPhase{parent: rp.parent, phase: rp.phase, checker: name}
}

// Report adds a new record to the reporter.
func (r *Reporter) Report(rep Report) {
	r.mu.Lock()
	r.reports = append(r.reports, rep)
	r.mu.Unlock()
}

// Report records a new rule violation under the bound phase.
// The rule description is used when the message is empty.
func (rp *ReporterPhase) Report(rule qualrules.Rule, message string, pos token.Pos) {
	if message == "" {
		message = rule.Description()
	}
	rp.parent.Report(Report{
		Phase:    rp.phase,
		RuleCode: rule,
		Checker:  rp.checker,
		Message:  message,
		Pos:      pos,
	})
}

// Reportf is Report with a formatted message.
func (rp *ReporterPhase) Reportf(rule qualrules.Rule, pos token.Pos, format string, args ...any) {
	rp.Report(rule, fmt.Sprintf(format, args...), pos)
}

// Reports returns a snapshot of all collected records.
func (r *Reporter) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Sorted returns the snapshot ordered by position, then by rule. Reports suppressed by scopes
// are left out when scopes is not nil. Identical reports are collapsed.
func (r *Reporter) Sorted(scopes *Scopes) []Report {
	reps := r.Reports()
	if scopes != nil {
		reps = slices.DeleteFunc(reps, func(rep Report) bool {
			return scopes.Suppressed(rep.Pos, rep.RuleCode)
		})
	}

	slices.SortStableFunc(reps, func(a, b Report) int {
		if c := cmp.Compare(a.Pos, b.Pos); c != 0 {
			return c
		}
		return cmp.Compare(a.RuleCode, b.RuleCode)
	})

	return slices.Compact(reps)
}

var (
	summaryHeader = color.New(color.FgYellow, color.Bold)
	summaryRule   = color.New(color.FgRed)
	summaryPos    = color.New(color.Faint)
)

// PrintSummary prints given reports in a compact, human-readable form.
func PrintSummary(w io.Writer, fset *token.FileSet, reps []Report) {
	if len(reps) == 0 {
		return
	}

	counts := map[qualrules.Rule]int{}
	for _, rep := range reps {
		counts[rep.RuleCode]++
	}

	summaryHeader.Fprintf(w, "qualcheck: %d diagnostic(s)\n", len(reps))
	for _, rule := range qualrules.All() {
		if counts[rule] == 0 {
			continue
		}
		summaryRule.Fprintf(w, "  %s", rule)
		fmt.Fprintf(w, " x%d\n", counts[rule])
	}

	for _, rep := range reps {
		pos := fset.Position(rep.Pos)
		fmt.Fprintf(w, "[%s] %s - %s ", rep.Phase, rep.RuleCode.Code(), rep.Message)
		summaryPos.Fprintf(w, "(%s:%d)\n", pos.Filename, pos.Line)
	}
}

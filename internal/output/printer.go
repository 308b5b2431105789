// Package output renders command results for the terminal.
//
// All styling goes through lipgloss. When the destination is not a terminal
// (tests, pipes) the renderer drops colors automatically.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"printfloor/internal/loyalty"
	"printfloor/internal/session"
	"printfloor/internal/stage"
	"printfloor/internal/team"
	"printfloor/internal/timeline"
	"printfloor/internal/workorder"
)

// Printer writes formatted output.
type Printer struct {
	out       io.Writer
	numbers   *message.Printer
	durations timeline.Formatter
	styles    styles
}

type styles struct {
	title    lipgloss.Style
	label    lipgloss.Style
	muted    lipgloss.Style
	current  lipgloss.Style
	success  lipgloss.Style
	errorMsg lipgloss.Style
	buckets  map[timeline.Bucket]lipgloss.Style
}

// Option configures a [Printer].
type Option func(*printerOptions)

type printerOptions struct {
	locale string
	color  bool
}

// WithLocale selects duration wording and number grouping ("th" or "en").
func WithLocale(locale string) Option {
	return func(o *printerOptions) { o.locale = locale }
}

// WithColor enables or disables styling.
func WithColor(enabled bool) Option {
	return func(o *printerOptions) { o.color = enabled }
}

// NewPrinterWithWriter creates a Printer writing to w.
func NewPrinterWithWriter(w io.Writer, opts ...Option) *Printer {
	o := printerOptions{locale: "th", color: true}
	for _, opt := range opts {
		opt(&o)
	}

	tag := language.Thai
	if strings.HasPrefix(strings.ToLower(o.locale), "en") {
		tag = language.English
	}

	return &Printer{
		out:       w,
		numbers:   message.NewPrinter(tag),
		durations: timeline.FormatterFor(o.locale),
		styles:    newStyles(lipgloss.NewRenderer(w), o.color),
	}
}

func newStyles(r *lipgloss.Renderer, color bool) styles {
	s := styles{
		title:    r.NewStyle().Bold(true),
		label:    r.NewStyle().Bold(true),
		muted:    r.NewStyle(),
		current:  r.NewStyle().Bold(true),
		success:  r.NewStyle(),
		errorMsg: r.NewStyle(),
		buckets: map[timeline.Bucket]lipgloss.Style{
			timeline.BucketFast:     r.NewStyle(),
			timeline.BucketNormal:   r.NewStyle(),
			timeline.BucketSlow:     r.NewStyle(),
			timeline.BucketCritical: r.NewStyle(),
		},
	}
	if !color {
		return s
	}

	s.title = s.title.Foreground(lipgloss.Color("12"))
	s.muted = s.muted.Foreground(lipgloss.Color("8"))
	s.current = s.current.Foreground(lipgloss.Color("14"))
	s.success = s.success.Foreground(lipgloss.Color("10"))
	s.errorMsg = s.errorMsg.Foreground(lipgloss.Color("9"))
	s.buckets[timeline.BucketFast] = s.buckets[timeline.BucketFast].Foreground(lipgloss.Color("10"))
	s.buckets[timeline.BucketNormal] = s.buckets[timeline.BucketNormal].Foreground(lipgloss.Color("12"))
	s.buckets[timeline.BucketSlow] = s.buckets[timeline.BucketSlow].Foreground(lipgloss.Color("11"))
	s.buckets[timeline.BucketCritical] = s.buckets[timeline.BucketCritical].Foreground(lipgloss.Color("9"))
	return s
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// Number formats n with locale digit grouping.
func (p *Printer) Number(n int) string {
	return p.numbers.Sprintf("%d", n)
}

// Amount formats a currency amount with two decimals and digit grouping.
func (p *Printer) Amount(v float64) string {
	return p.numbers.Sprintf("%.2f", v)
}

// Duration formats hours with the locale's units.
func (p *Printer) Duration(hours float64) string {
	return p.durations.FormatDuration(hours)
}

// Stages prints the catalog in order.
func (p *Printer) Stages(catalog stage.Catalog) {
	p.printf("%s\n", p.styles.title.Render("Stages"))
	for _, s := range catalog.Stages() {
		p.printf("  %3d  %-4d %s%s\n", s.Sequence, s.ID, s.Name, p.restrictedTag(s))
	}
}

func (p *Printer) restrictedTag(s stage.Stage) string {
	if !s.Restricted {
		return ""
	}
	return " " + p.styles.muted.Render("(restricted)")
}

// Overview prints a job, its position in the catalog and where it may go.
func (p *Printer) Overview(ov workorder.Overview) {
	p.printf("%s %s\n", p.styles.title.Render(fmt.Sprintf("Job #%d", ov.Job.ID)), ov.Job.Name)

	current := ov.Job.CurrentStageName
	if current == "" {
		current = fmt.Sprintf("stage %d", ov.Job.CurrentStageID)
	}
	if ov.CurrentIndex < 0 {
		p.printf("%s %s %s\n", p.styles.label.Render("Stage:"), current, p.styles.muted.Render("(not in catalog)"))
	} else {
		p.printf("%s %s (%d/%d)\n", p.styles.label.Render("Stage:"), current, ov.CurrentIndex+1, ov.Catalog.Len())
	}

	if ov.HasNext {
		p.printf("%s %s%s\n", p.styles.label.Render("Next:"), ov.Next.Name, p.restrictedTag(ov.Next))
	}

	p.printf("%s\n", p.styles.label.Render("Available:"))
	if len(ov.Available) == 0 {
		p.printf("  %s\n", p.styles.muted.Render("none"))
		return
	}
	for _, s := range ov.Available {
		p.printf("  %-4d %s%s\n", s.ID, s.Name, p.restrictedTag(s))
	}
}

// Moved reports a completed transition.
func (p *Printer) Moved(job stage.Job) {
	p.printf("%s job #%d is now in %s\n", p.styles.success.Render("✓"), job.ID, p.styles.current.Render(job.CurrentStageName))
}

// Step reports progress of a multi-step operation.
func (p *Printer) Step(i, total int, name string) {
	p.printf("%s %s\n", p.styles.muted.Render(fmt.Sprintf("[%d/%d]", i, total)), name)
}

// Claim prints who is operating the terminal.
func (p *Printer) Claim(c *session.Claim, now time.Time) {
	if c == nil {
		p.printf("%s\n", p.styles.muted.Render("No staff member has claimed this terminal"))
		return
	}
	p.printf("%s %s (#%d)", p.styles.label.Render("Staff:"), c.StaffName, c.StaffID)
	if c.StaffEmail != "" {
		p.printf(" <%s>", c.StaffEmail)
	}
	p.printf(", %s\n", p.durations.FormatAgo(c.ClaimedAt, now))
}

// Released confirms the terminal claim was cleared.
func (p *Printer) Released() {
	p.printf("%s terminal released\n", p.styles.success.Render("✓"))
}

// Team prints staff grouped by team.
func (p *Printer) Team(groups []team.Group) {
	if len(groups) == 0 {
		p.printf("%s\n", p.styles.muted.Render("No team members"))
		return
	}
	for _, g := range groups {
		name := g.TeamName
		if name == "" {
			name = "(no team)"
		}
		p.printf("%s\n", p.styles.title.Render(name))
		for _, m := range g.Members {
			p.printf("  %-6d %s\n", m.ID, m.Name)
		}
	}
}

// Timeline prints a job's stage history with color-coded durations.
func (p *Printer) Timeline(tl timeline.Timeline) {
	p.printf("%s\n", p.styles.title.Render("Timeline"))
	for _, e := range tl.Entries {
		from := e.FromStage
		if from == "" {
			from = "-"
		}
		line := fmt.Sprintf("  %s  %s → %s", e.Timestamp.Local().Format("2006-01-02 15:04"), from, e.ToStage)
		if e.Actor != "" {
			line += " " + p.styles.muted.Render("by "+e.Actor)
		}
		if e.HasDuration {
			line += "  " + p.bucketed(e.DurationHours)
		}
		p.printf("%s\n", line)
	}

	current := tl.CurrentStage
	if current == "" {
		current = "-"
	}
	p.printf("%s %s, %s\n", p.styles.label.Render("Current:"), p.styles.current.Render(current), p.bucketed(tl.CurrentStageDurationHours))
	p.printf("%s %d stages, total %s, average %s\n",
		p.styles.label.Render("Stats:"),
		tl.Statistics.TotalStages,
		p.Duration(tl.Statistics.TotalDurationHours),
		p.Duration(tl.Statistics.AverageStageDuration),
	)
}

func (p *Printer) bucketed(hours float64) string {
	return p.styles.buckets[timeline.DurationBucket(hours)].Render(p.Duration(hours))
}

// Loyalty prints a loyalty summary.
func (p *Printer) Loyalty(s loyalty.Summary) {
	tier := loyalty.Normalize(s.TierLabel)
	if tier == "" {
		tier = s.TierLabel
	}
	p.printf("%s %s\n", p.styles.label.Render("Tier:"), p.styles.current.Render(tier))
	p.printf("%s %s\n", p.styles.label.Render("Points:"), p.Number(s.Points))
	p.printf("%s %s orders, %s spent\n", p.styles.label.Render("History:"), p.Number(s.TotalOrders), p.Amount(s.TotalSpent))

	if s.NextTier != "" {
		p.printf("%s %s at %s points, %.1f%% there, %s to go\n",
			p.styles.label.Render("Next:"),
			s.NextTier,
			p.Number(s.NextTierMin),
			s.Progress,
			p.Number(s.PointsNeeded),
		)
	} else {
		p.printf("%s %s\n", p.styles.label.Render("Next:"), p.styles.muted.Render("top tier"))
	}

	p.printf("%s\n", p.styles.label.Render("Benefits:"))
	for _, b := range s.Benefits {
		p.printf("  • %s\n", b)
	}
}

// Error prints an error message.
func (p *Printer) Error(err error) {
	p.printf("%s %v\n", p.styles.errorMsg.Render("✗"), err)
}

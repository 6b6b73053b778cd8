package insight

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fieldops/techrank/internal/domain/aggregate"
)

const instructions = `
## Instructions
Based on ALL the data above, provide your analysis in EXACTLY this JSON format (no markdown, no code fences, just raw JSON):

{
  "summary": "2-3 sentence overall performance summary. Be specific with numbers. Compare to averages.",
  "strengths": [
    "Specific strength 1 with numbers",
    "Specific strength 2 with numbers"
  ],
  "improvements": [
    {
      "area": "Short label (e.g. 'Fibre Repair Speed')",
      "detail": "Specific observation with numbers comparing to average",
      "recommendation": "Actionable recommendation"
    }
  ],
  "trainingRecommendations": [
    {
      "skill": "Specific skill or certification name",
      "reason": "Why this training is needed based on the data"
    }
  ]
}

Rules:
- Look at ALL metrics (FTFR, completion time, SLA, repeat visits) per job type to find weaknesses, not just FTFR.
- Identify job types where the technician is significantly below the global average on ANY metric.
- For training recommendations, map the weak job types/metrics to specific skills they should learn.
- Be concise but specific. Always reference actual numbers.
- Provide 2-4 strengths, 2-4 improvements, and 1-3 training recommendations.
- If the technician is a top performer, still identify areas for marginal improvement.
- Return ONLY valid JSON. No explanation outside the JSON.`

// BuildPrompt renders the analysis request for one technician.
func BuildPrompt(s Subject) string {
	t := s.Technician
	o := s.Overall
	var b strings.Builder

	b.WriteString("You are an expert field service performance analyst. ")
	b.WriteString("Analyze this technician's performance data and provide actionable insights.\n\n")

	b.WriteString("## Technician Profile\n")
	fmt.Fprintf(&b, "- Name: %s\n", t.Name)
	fmt.Fprintf(&b, "- Role: %s\n", t.Role)
	fmt.Fprintf(&b, "- Region: %s, %s\n", t.Region, t.City)
	fmt.Fprintf(&b, "- Skills: %s\n", strings.Join(t.Skills, ", "))
	fmt.Fprintf(&b, "- Performance Tier: %s\n", t.PerformanceTier)
	fmt.Fprintf(&b, "- Active Since: %s\n\n", t.ActivationDate)

	b.WriteString("## Overall Metrics (vs Company Average)\n")
	fmt.Fprintf(&b, "| Metric | %s | Company Avg | Difference |\n", t.Name)
	b.WriteString("|--------|-----------|-------------|------------|\n")
	row := func(name string, tech, avg float64, unit string, diff float64) {
		fmt.Fprintf(&b, "| %s | %s%s | %s%s | %s%s |\n", name, num(tech), unit, num(avg), unit, num(diff), diffUnit(unit))
	}
	row("Performance Score", t.PerformanceScore, o.AvgScore, "", delta(t.PerformanceScore, o.AvgScore))
	row("FTFR", t.FirstTimeFixRate, o.AvgFTFR, "%", delta(t.FirstTimeFixRate, o.AvgFTFR))
	row("Avg Completion Time", t.AvgCompletionTimeMinutes, o.AvgTime, " min", aggregate.RoundInt(t.AvgCompletionTimeMinutes-o.AvgTime))
	row("Completion Rate", t.CompletionRate, o.AvgCompletionRate, "%", delta(t.CompletionRate, o.AvgCompletionRate))
	row("Jobs/Week", t.JobsPerWeek, o.AvgJobsPerWeek, "", delta(t.JobsPerWeek, o.AvgJobsPerWeek))
	row("SLA Compliance", t.SLAComplianceRate, o.AvgSLA, "%", delta(t.SLAComplianceRate, o.AvgSLA))

	b.WriteString("\n## Regional Context\n")
	fmt.Fprintf(&b, "- Region avg performance score: %s (vs this tech: %s)\n", num(s.Peers.AvgScore), num(t.PerformanceScore))
	fmt.Fprintf(&b, "- Number of peers in region: %d\n\n", s.Peers.Count)

	b.WriteString("## Per-Job-Type Performance Breakdown (Tech vs Global Avg)\n")
	for _, c := range s.Comparison {
		fmt.Fprintf(&b, "\n### %s (%d jobs)\n", c.JobType, c.Count)
		fmt.Fprintf(&b, "- FTFR: %s%% vs %s%% avg (diff: %s)\n", num(c.TechFTFR), num(c.GlobalFTFR), num(delta(c.TechFTFR, c.GlobalFTFR)))
		fmt.Fprintf(&b, "- Avg Time: %s min vs %s min avg (diff: %s min)\n", num(c.TechAvgTime), num(c.GlobalAvgTime), num(c.TechAvgTime-c.GlobalAvgTime))
		fmt.Fprintf(&b, "- SLA: %s%% vs %s%% avg (diff: %s)\n", num(c.TechSLA), num(c.GlobalSLA), num(delta(c.TechSLA, c.GlobalSLA)))
		fmt.Fprintf(&b, "- Repeat Visit Rate: %s%% vs %s%% avg (diff: %s)\n", num(c.TechRepeatRate), num(c.GlobalRepeatRate), num(delta(c.TechRepeatRate, c.GlobalRepeatRate)))
	}

	b.WriteString(instructions)
	return b.String()
}

func delta(a, b float64) float64 { return aggregate.Round1(a - b) }

// diffUnit keeps the minute suffix on the time difference column only.
func diffUnit(unit string) string {
	if unit == " min" {
		return unit
	}
	return ""
}

// num prints a metric without trailing zeros.
func num(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

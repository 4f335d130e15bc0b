package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"fleetops/internal/domain"
)

var (
	criticalText = color.New(color.FgRed, color.Bold).SprintFunc()
	highText     = color.New(color.FgRed).SprintFunc()
	mediumText   = color.New(color.FgYellow).SprintFunc()
	lowText      = color.New(color.FgGreen).SprintFunc()
)

func severityText(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return criticalText(string(s))
	case domain.SeverityHigh:
		return highText(string(s))
	case domain.SeverityMedium:
		return mediumText(string(s))
	default:
		return lowText(string(s))
	}
}

func levelText(l domain.Level) string {
	switch l {
	case domain.LevelExcellent, domain.LevelGood:
		return lowText(string(l))
	case domain.LevelNeedsImprovement:
		return mediumText(string(l))
	default:
		return criticalText(string(l))
	}
}

func newReportCmd() *cobra.Command {
	report := &cobra.Command{
		Use:   "report",
		Short: "Print operational reports to the console",
	}
	var days int
	compliance := &cobra.Command{
		Use:   "compliance",
		Short: "Risk register, audit scores and documents expiring soon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()
			return complianceReport(cmd.Context(), a, days)
		},
	}
	compliance.Flags().IntVarP(&days, "days", "d", 30, "expiry window in days")
	report.AddCommand(compliance)
	return report
}

func renderTable(rows pterm.TableData) error {
	return pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(rows).
		Render()
}

func complianceReport(ctx context.Context, a *app, days int) error {
	comp := a.svc.Compliance

	risks, err := comp.ListRisks(ctx)
	if err != nil {
		return err
	}
	pterm.DefaultSection.Println("Risk register")
	if len(risks) == 0 {
		pterm.Info.Println("No risks recorded")
	} else {
		rows := pterm.TableData{{"Severity", "Title", "L×I", "Status", "Owner"}}
		for _, r := range risks {
			rows = append(rows, []string{
				severityText(r.Severity), r.Title,
				fmt.Sprintf("%d×%d", r.Likelihood, r.Impact), r.Status, r.Owner,
			})
		}
		if err := renderTable(rows); err != nil {
			return err
		}
	}

	audits, err := comp.ListAudits(ctx)
	if err != nil {
		return err
	}
	pterm.DefaultSection.Println("Audits")
	rows := pterm.TableData{{"Title", "Standard", "Status", "Score", "Level"}}
	for _, au := range audits {
		score, level := "-", "-"
		if au.Evaluation != nil {
			score = strconv.FormatFloat(au.Evaluation.Score, 'f', 0, 64)
			level = levelText(au.Evaluation.Level)
		}
		rows = append(rows, []string{au.Title, au.Standard, au.Status, score, level})
	}
	if len(audits) == 0 {
		pterm.Info.Println("No audits recorded")
	} else if err := renderTable(rows); err != nil {
		return err
	}

	docs, err := comp.ExpiringWithin(ctx, days)
	if err != nil {
		return err
	}
	pterm.DefaultSection.Printfln("Documents expiring within %d days", days)
	if len(docs) == 0 {
		pterm.Success.Println("Nothing expiring")
		return nil
	}
	rows = pterm.TableData{{"Title", "Kind", "Expires", "Status"}}
	for _, d := range docs {
		status := mediumText(d.Status)
		if d.Status == "expired" {
			status = criticalText(d.Status)
		}
		rows = append(rows, []string{d.Title, d.Kind, d.ExpiresAt.Format(time.DateOnly), status})
	}
	if err := renderTable(rows); err != nil {
		return err
	}
	pterm.Warning.Printfln("%d document(s) need renewal", len(docs))
	return nil
}

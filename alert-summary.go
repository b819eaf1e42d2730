package main

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/medilabo/medilabo-cli/medilabo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type RiskEntry struct {
	Patient medilabo.Patient
	Display RiskDisplay
}

// RiskSummary sorts every checked patient whose level is not none: Alerts
// holds the risk categories, Failed the patients the alert service could not
// evaluate, Others the remaining answers (unknown patient or category).
type RiskSummary struct {
	Checked int
	Alerts  []RiskEntry
	Failed  []RiskEntry
	Others  []RiskEntry
}

// BuildRiskSummary fetches the risk level of every patient, one request at
// a time, never faster than the limiter allows.
func BuildRiskSummary(ctx context.Context, client *MedilaboClient, limiter *rate.Limiter) (RiskSummary, error) {
	var summary RiskSummary

	patients, err := client.ListPatients(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list patients: %w", err)
	}

	for _, patient := range patients {
		if err := limiter.Wait(ctx); err != nil {
			return summary, err
		}
		id := strconv.FormatInt(patient.ID, 10)
		level, err := client.FetchRiskLevel(ctx, id)
		summary.Checked++
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			log.Errorf("failed to fetch risk level for patient '%s': %s", id, err)
			summary.Failed = append(summary.Failed, RiskEntry{Patient: patient, Display: NewRiskFailureDisplay(id, err)})
			continue
		}
		display := NewRiskDisplay(id, level)
		log.Debugf("patient '%s' risk level: '%s'", id, display.Level)
		entry := RiskEntry{Patient: patient, Display: display}
		switch {
		case display.IsAlert():
			summary.Alerts = append(summary.Alerts, entry)
		case display.Severity == SeverityBackendError:
			log.Errorf("alert service could not evaluate patient '%s': %s", id, display.Level)
			summary.Failed = append(summary.Failed, entry)
		case display.Severity != SeverityNone:
			summary.Others = append(summary.Others, entry)
		}
	}

	sort.SliceStable(summary.Alerts, func(i, j int) bool {
		return summary.Alerts[i].Display.Severity > summary.Alerts[j].Display.Severity
	})
	return summary, nil
}

func (s RiskSummary) String() string {
	var buf = new(bytes.Buffer)
	buf.WriteString(fmt.Sprintf("Alertes santé : %d patient(s) à risque sur %d\n", len(s.Alerts), s.Checked))

	var current Severity = -1
	for _, entry := range s.Alerts {
		if entry.Display.Severity != current {
			current = entry.Display.Severity
			buf.WriteString(fmt.Sprintf("*%s* :\n", entry.Display.Level))
		}
		buf.WriteString(fmt.Sprintf("- %s %s (ID %d)\n", entry.Patient.Prenom, entry.Patient.Nom, entry.Patient.ID))
	}
	if len(s.Others) > 0 {
		buf.WriteString("*Autres réponses* :\n")
		for _, entry := range s.Others {
			buf.WriteString(fmt.Sprintf("- %s %s (ID %d) : %s\n", entry.Patient.Prenom, entry.Patient.Nom, entry.Patient.ID, entry.Display.Level))
		}
	}
	if len(s.Failed) > 0 {
		buf.WriteString(fmt.Sprintf("%d patient(s) n'ont pas pu être évalués :\n", len(s.Failed)))
		for _, entry := range s.Failed {
			buf.WriteString(fmt.Sprintf("- %s %s (ID %d)\n", entry.Patient.Prenom, entry.Patient.Nom, entry.Patient.ID))
		}
	}
	return buf.String()
}

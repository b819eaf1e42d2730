package main

import (
	"fmt"
	"strconv"
	"strings"
)

type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityNone
	SeverityBorderline
	SeverityInDanger
	SeverityEarlyOnset
	SeverityNotFound
	SeverityBackendError
	SeverityFailure
)

type Emphasis int

const (
	EmphasisNone Emphasis = iota
	EmphasisBold
	EmphasisItalic
)

const (
	colorOrange  = "#ff8c00"
	colorRed     = "#dc3545"
	colorDarkRed = "#8b0000"
	colorGreen   = "#28a745"
	colorGrey    = "#6c757d"
)

// Risk categories as emitted by the alert service.
const (
	RiskBorderline      = "Borderline"
	RiskInDanger        = "In Danger"
	RiskEarlyOnset      = "Early Onset"
	RiskNone            = "none"
	RiskPatientNotFound = "Patient Not Found"
)

type RiskDisplay struct {
	PatientID string
	Level     string
	Severity  Severity
	Color     string
	Emphasis  Emphasis
	Message   string
}

// NewRiskDisplay maps a risk category to its color and message. The set of
// categories is closed: anything unknown gets the neutral grey style. The
// alert service spells two categories differently from RiskEarlyOnset and
// RiskNone, both spellings are accepted.
func NewRiskDisplay(patientID string, level string) RiskDisplay {
	level = strings.TrimSpace(level)
	display := RiskDisplay{
		PatientID: patientID,
		Level:     level,
		Severity:  SeverityUnknown,
		Color:     colorGrey,
		Message:   fmt.Sprintf("Le niveau de risque du patient %s est : ", patientID),
	}

	switch level {
	case RiskBorderline:
		display.Severity = SeverityBorderline
		display.Color = colorOrange
		display.Emphasis = EmphasisBold
		display.Message += "Attention, il est en zone limite."
	case RiskInDanger:
		display.Severity = SeverityInDanger
		display.Color = colorRed
		display.Emphasis = EmphasisBold
		display.Message += "URGENT : Le patient est en danger !"
	case RiskEarlyOnset, "Early onset":
		display.Severity = SeverityEarlyOnset
		display.Color = colorDarkRed
		display.Emphasis = EmphasisBold
		display.Message += "TRÈS URGENT : Début précoce de pathologie détecté !"
	case RiskNone, "None":
		display.Severity = SeverityNone
		display.Color = colorGreen
		display.Message += "Aucune alerte détectée, tout va bien."
	case RiskPatientNotFound, "Aucun risque (Patient non trouvé)":
		display.Severity = SeverityNotFound
		display.Message = fmt.Sprintf("Patient %s non trouvé dans le système.", patientID)
	case "Error retrieving transmissions", "Error retrieving patient data", "Error retrieving patient age":
		display.Severity = SeverityBackendError
		display.Color = colorRed
		display.Emphasis = EmphasisItalic
		display.Message = fmt.Sprintf("Erreur système lors de la récupération des données pour le patient %s.", patientID)
	}
	return display
}

// NewRiskFailureDisplay is shown when the alert endpoint could not be read.
func NewRiskFailureDisplay(patientID string, err error) RiskDisplay {
	return RiskDisplay{
		PatientID: patientID,
		Level:     err.Error(),
		Severity:  SeverityFailure,
		Color:     colorRed,
		Emphasis:  EmphasisNone,
		Message:   fmt.Sprintf("Une erreur est survenue pour le patient %s : ", patientID),
	}
}

func (d RiskDisplay) IsAlert() bool {
	switch d.Severity {
	case SeverityBorderline, SeverityInDanger, SeverityEarlyOnset:
		return true
	}
	return false
}

func (d RiskDisplay) Plain() string {
	return d.Message + " " + d.Level
}

// Render returns the display line, with the level colored when the output
// is a terminal.
func (d RiskDisplay) Render(colored bool) string {
	if !colored {
		return d.Plain()
	}
	return d.Message + " " + ansiStyle(d.Color, d.Emphasis) + d.Level + "\x1b[0m"
}

func ansiStyle(hexColor string, emphasis Emphasis) string {
	r, g, b := parseHexColor(hexColor)
	style := fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
	switch emphasis {
	case EmphasisBold:
		style += "\x1b[1m"
	case EmphasisItalic:
		style += "\x1b[3m"
	}
	return style
}

func parseHexColor(hexColor string) (uint8, uint8, uint8) {
	value, err := strconv.ParseUint(strings.TrimPrefix(hexColor, "#"), 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return uint8(value >> 16), uint8(value >> 8), uint8(value)
}

package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/medilabo/medilabo-cli/medilabo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type PatientDetails struct {
	Patient       medilabo.Patient
	Medecins      []medilabo.Medecin
	Notes         []medilabo.Note
	Transmissions []medilabo.Transmission
	Risk          RiskDisplay
}

// FetchPatientDetails runs the calls needed by the patient sheet in
// parallel. Only the patient record is mandatory: a failure there cancels
// the other calls, while the optional sections fall back to empty.
func FetchPatientDetails(ctx context.Context, client *MedilaboClient, id string) (PatientDetails, error) {
	var details PatientDetails
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		patient, err := client.GetPatient(groupCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load patient %s: %w", id, err)
		}
		details.Patient = patient
		return nil
	})
	group.Go(func() error {
		medecins, err := client.GetMedecinsOfPatient(groupCtx, id)
		if err != nil {
			if groupCtx.Err() == nil {
				log.Warnf("failed to load doctors of patient %s: %s", id, err)
			}
			return nil
		}
		details.Medecins = medecins
		return nil
	})
	group.Go(func() error {
		notes, err := client.GetNotesOfPatient(groupCtx, id)
		if err != nil {
			if groupCtx.Err() == nil {
				log.Warnf("failed to load notes of patient %s: %s", id, err)
			}
			return nil
		}
		details.Notes = notes
		return nil
	})
	group.Go(func() error {
		transmissions, err := client.GetTransmissionsOfPatient(groupCtx, id)
		if err != nil {
			if groupCtx.Err() == nil {
				log.Warnf("failed to load transmissions of patient %s: %s", id, err)
			}
			return nil
		}
		details.Transmissions = transmissions
		return nil
	})
	group.Go(func() error {
		level, err := client.FetchRiskLevel(groupCtx, id)
		if err != nil {
			if groupCtx.Err() == nil {
				log.Warnf("failed to load risk level of patient %s: %s", id, err)
			}
			details.Risk = NewRiskFailureDisplay(id, err)
			return nil
		}
		details.Risk = NewRiskDisplay(id, level)
		return nil
	})

	if err := group.Wait(); err != nil {
		return PatientDetails{}, err
	}

	if len(details.Transmissions) == 0 && len(details.Patient.TransmissionsList) > 0 {
		details.Transmissions = details.Patient.TransmissionsList
	}
	return details, nil
}

// SortedRdv returns the appointments ordered by day then hour, leaving the
// patient record untouched.
func SortedRdv(rdvList []medilabo.Rdv) []medilabo.Rdv {
	sorted := make([]medilabo.Rdv, len(rdvList))
	copy(sorted, rdvList)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].When().Before(sorted[j].When())
	})
	return sorted
}

func (d PatientDetails) Print(w io.Writer, colored bool) {
	p := d.Patient
	fmt.Fprintf(w, "Informations sur le patient %s %s\n", p.Prenom, p.Nom)
	fmt.Fprintf(w, "  ID : %d\n", p.ID)
	fmt.Fprintf(w, "  Nom : %s\n", p.Nom)
	fmt.Fprintf(w, "  Prénom : %s\n", p.Prenom)
	fmt.Fprintf(w, "  Genre : %s\n", p.Genre)
	fmt.Fprintf(w, "  Date de naissance : %s\n", p.DateNaissance)
	fmt.Fprintf(w, "  Adresse : %s\n", p.Adresse)
	fmt.Fprintf(w, "  Téléphone : %s\n", p.Telephone)
	fmt.Fprintf(w, "  Dossier créé le : %s\n", p.DateCreation)
	fmt.Fprintf(w, "  Dossier modifié le : %s\n", p.DateModification)

	fmt.Fprintln(w, "\nRendez-vous :")
	if len(p.RdvList) == 0 {
		fmt.Fprintln(w, "  Aucun rendez-vous")
	}
	for _, rdv := range SortedRdv(p.RdvList) {
		fmt.Fprintf(w, "  %s - %s %s\n", rdv.JourRdv, rdv.HeureRdv, rdv.NomMedecin)
	}

	fmt.Fprintln(w, "\nMédecins :")
	if len(d.Medecins) == 0 {
		fmt.Fprintln(w, "  Aucun médecin")
	}
	for _, medecin := range d.Medecins {
		fmt.Fprintf(w, "  %s %s\n", medecin.Prenom, medecin.Nom)
	}

	fmt.Fprintln(w, "\nNotes :")
	if len(d.Notes) == 0 {
		fmt.Fprintln(w, "  Aucune note")
	}
	for _, note := range d.Notes {
		fmt.Fprintf(w, "  %s Dr %s %s : %s\n", note.DateNote, note.Medecin.NomMedecin, note.Medecin.PrenomMedecin, note.Note)
	}

	fmt.Fprintln(w, "\nTransmissions :")
	if len(d.Transmissions) == 0 {
		fmt.Fprintln(w, "  Aucune transmission")
	}
	for _, transmission := range d.Transmissions {
		fmt.Fprintf(w, "  %s Dr %s %s : %s\n", transmission.DateTransmission, transmission.NomMedecin, transmission.PrenomMedecin, transmission.Transmission)
	}

	fmt.Fprintln(w, "\nAlerte santé :")
	fmt.Fprintf(w, "  %s\n", d.Risk.Render(colored))
}

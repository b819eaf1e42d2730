package main

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/medilabo/medilabo-cli/medilabo"
)

func WritePatientsCSV(w io.Writer, patients []medilabo.Patient) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	err := writer.Write([]string{"nom", "prenom", "dateNaissance", "genre", "adresse", "telephone", "rdv"})
	if err != nil {
		return err
	}

	for _, patient := range patients {
		var rdvs []string
		for _, rdv := range SortedRdv(patient.RdvList) {
			rdvs = append(rdvs, rdv.JourRdv+" "+rdv.HeureRdv)
		}
		record := []string{patient.Nom, patient.Prenom, patient.DateNaissance, patient.Genre, patient.Adresse, patient.Telephone, strings.Join(rdvs, ";")}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

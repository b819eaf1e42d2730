package medilabo

import (
	"strings"
	"testing"
)

func TestDecodeValidationErrorFlatObject(t *testing.T) {
	validationErr, ok := DecodeValidationError([]byte(`{"nom": "required", "prenom": "trop court"}`))
	if !ok {
		t.Fatalf("expected a validation error")
	}
	if validationErr.Fields["nom"] != "required" {
		t.Fatalf("unexpected message for nom: %q", validationErr.Fields["nom"])
	}
	if got := strings.Join(validationErr.FieldNames(), ","); got != "nom,prenom" {
		t.Fatalf("unexpected field order: %s", got)
	}
}

func TestDecodeValidationErrorBindingList(t *testing.T) {
	body := `[
		{"codes":["NotBlank.patient.nom"],"defaultMessage":"Le nom du patient est obligatoire.","objectName":"patient","field":"nom","code":"NotBlank"},
		{"codes":["Pattern.patient.nom"],"defaultMessage":"Le nom ne doit contenir que des lettres.","objectName":"patient","field":"nom","code":"Pattern"},
		{"defaultMessage":"Le genre est obligatoire.","objectName":"patient","field":"genre"}
	]`
	validationErr, ok := DecodeValidationError([]byte(body))
	if !ok {
		t.Fatalf("expected a validation error")
	}
	if validationErr.Fields["genre"] != "Le genre est obligatoire." {
		t.Fatalf("unexpected message for genre: %q", validationErr.Fields["genre"])
	}
	want := "Le nom du patient est obligatoire.; Le nom ne doit contenir que des lettres."
	if validationErr.Fields["nom"] != want {
		t.Fatalf("unexpected message for nom: %q", validationErr.Fields["nom"])
	}
}

func TestDecodeValidationErrorRejectsOtherBodies(t *testing.T) {
	for _, body := range []string{"", "Bad Request", `{"nom": 3}`, `{}`, `[]`, `[{"code":"x"}]`} {
		if _, ok := DecodeValidationError([]byte(body)); ok {
			t.Errorf("body %q should not decode as a validation error", body)
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"telephone": "invalide", "adresse": "vide"}}
	if got := err.Error(); got != "validation failed: adresse: vide, telephone: invalide" {
		t.Fatalf("unexpected message: %s", got)
	}
}

func TestRdvWhen(t *testing.T) {
	rdv := Rdv{JourRdv: "2025-03-14", HeureRdv: "09:30"}
	if got := rdv.When().Format("2006-01-02 15:04"); got != "2025-03-14 09:30" {
		t.Fatalf("unexpected time: %s", got)
	}
	if !(Rdv{JourRdv: "demain"}).When().IsZero() {
		t.Fatalf("unparseable appointments should return the zero time")
	}
}

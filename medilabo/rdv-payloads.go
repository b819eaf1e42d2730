package medilabo

import "time"

type Rdv struct {
	ID         int64  `json:"id,omitempty"`
	PatientID  int64  `json:"patientId,omitempty"`
	MedecinID  string `json:"medecinId,omitempty"`
	NomMedecin string `json:"nomMedecin,omitempty"`
	JourRdv    string `json:"jourRdv"`
	HeureRdv   string `json:"heureRdv"`
}

// NewRdv is the body posted to /patient/addRdv: the patient id travels in
// the "id" field.
type NewRdv struct {
	PatientID  string `json:"id"`
	NomMedecin string `json:"nomMedecin"`
	JourRdv    string `json:"jourRdv"`
	HeureRdv   string `json:"heureRdv"`
}

// When returns the appointment date and time. Appointments whose day or
// hour cannot be parsed return the zero time.
func (r Rdv) When() time.Time {
	when, err := time.Parse("2006-01-02T15:04", r.JourRdv+"T"+r.HeureRdv)
	if err == nil {
		return when
	}
	when, err = time.Parse("2006-01-02T15:04:05", r.JourRdv+"T"+r.HeureRdv)
	if err == nil {
		return when
	}
	return time.Time{}
}

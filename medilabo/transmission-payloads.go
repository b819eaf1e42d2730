package medilabo

type Transmission struct {
	ID               string `json:"id,omitempty"`
	PatientID        string `json:"patientId"`
	DateTransmission string `json:"dateTransmission,omitempty"`
	Profession       string `json:"profession,omitempty"`
	NomMedecin       string `json:"nomMedecin"`
	PrenomMedecin    string `json:"prenomMedecin"`
	Transmission     string `json:"transmission"`
}

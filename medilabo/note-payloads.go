package medilabo

type Note struct {
	ID        string      `json:"id"`
	PatientID int64       `json:"patientId"`
	Medecin   NoteMedecin `json:"medecin"`
	DateNote  string      `json:"dateNote"`
	Note      string      `json:"note"`
}

type NoteMedecin struct {
	ID            int64  `json:"id"`
	NomMedecin    string `json:"nomMedecin"`
	PrenomMedecin string `json:"prenomMedecin"`
}

type NewNote struct {
	PatientID     string `json:"patientId"`
	NomMedecin    string `json:"nomMedecin"`
	PrenomMedecin string `json:"prenomMedecin"`
	Note          string `json:"note"`
}

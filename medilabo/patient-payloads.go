package medilabo

type Patient struct {
	ID                int64          `json:"id,omitempty"`
	Prenom            string         `json:"prenom"`
	Nom               string         `json:"nom"`
	DateNaissance     string         `json:"dateNaissance"`
	Genre             string         `json:"genre"`
	Adresse           string         `json:"adresse"`
	Telephone         string         `json:"telephone"`
	DateCreation      string         `json:"dateCreation,omitempty"`
	DateModification  string         `json:"dateModification,omitempty"`
	RdvList           []Rdv          `json:"rdvList,omitempty"`
	TransmissionsList []Transmission `json:"transmissionsList,omitempty"`
}

type Medecin struct {
	ID     int64  `json:"id"`
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
}

const (
	GenreMasculin = "masculin"
	GenreFeminin  = "feminin"
)

package medilabo

type Utilisateur struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
	Prenom   string `json:"prenom"`
	Nom      string `json:"nom"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
}

const (
	RoleAdministrateur = "administrateur"
	RoleSecretaire     = "secretaire"
	RoleMedecin        = "medecin"
)

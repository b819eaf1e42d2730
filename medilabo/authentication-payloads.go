package medilabo

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"`
}

type LoginResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

const LoginStatusSuccess = "success"

func (r LoginResponse) Succeeded() bool {
	return r.Status == LoginStatusSuccess && r.Token != ""
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/medilabo/medilabo-cli/medilabo"
)

func TestAddPatientSendsOnePost(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.POST("/patient/add", func(c *gin.Context) {
		var patient medilabo.Patient
		if err := c.ShouldBindJSON(&patient); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		patient.ID = 12
		c.JSON(http.StatusOK, patient)
	})
	env, _ := newTestEnvironment(t, gateway, "tok-123")

	err := newApp(env).Run([]string{"medilabo", "patient", "add",
		"--prenom", "Ferdinand", "--nom", "Test", "--date-naissance", "1966-12-31",
		"--genre", "masculin", "--adresse", "1 Brookside St", "--telephone", "100-222-3333"})
	if err != nil {
		t.Fatalf("patient add failed: %s", err)
	}

	requests := gateway.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(requests))
	}
	if requests[0].Method != http.MethodPost || requests[0].Path != "/patient/add" {
		t.Fatalf("unexpected request %s %s", requests[0].Method, requests[0].Path)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(requests[0].Body, &body); err != nil {
		t.Fatalf("body is not JSON: %s", err)
	}
	want := map[string]string{
		"prenom":        "Ferdinand",
		"nom":           "Test",
		"dateNaissance": "1966-12-31",
		"genre":         "masculin",
		"adresse":       "1 Brookside St",
		"telephone":     "100-222-3333",
	}
	for key, value := range want {
		if body[key] != value {
			t.Errorf("field %s: got %v, want %s", key, body[key], value)
		}
	}
	if _, ok := body["id"]; ok {
		t.Errorf("a new patient must not carry an id")
	}
}

func TestValidationErrorStopsTheCall(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.POST("/patient/add", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"nom": "required"})
	})
	client, _ := newTestClient(t, gateway, "tok-123")

	_, err := client.AddPatient(context.Background(), medilabo.Patient{Prenom: "Ferdinand"})

	var validationErr *medilabo.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if validationErr.Fields["nom"] != "required" {
		t.Fatalf("unexpected message for nom: %q", validationErr.Fields["nom"])
	}
	if got := len(gateway.Requests()); got != 1 {
		t.Fatalf("expected one request, got %d", got)
	}
	if !strings.Contains(explainError(err), "nom : required") {
		t.Fatalf("unexpected explanation: %s", explainError(err))
	}
}

func TestDeletePatientFromList(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.DELETE("/patient/delete/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	client, _ := newTestClient(t, gateway, "tok-123")
	patients := []medilabo.Patient{{ID: 1, Nom: "Test"}, {ID: 2, Nom: "Pippa"}, {ID: 3, Nom: "Buckland"}}

	remaining, err := DeletePatientFromList(context.Background(), client, patients, "2")
	if err != nil {
		t.Fatalf("delete failed: %s", err)
	}
	if len(remaining) != 2 || remaining[0].ID != 1 || remaining[1].ID != 3 {
		t.Fatalf("unexpected remaining patients: %+v", remaining)
	}

	requests := gateway.Requests()
	if len(requests) != 1 || requests[0].Method != http.MethodDelete || requests[0].Path != "/patient/delete/2" {
		t.Fatalf("expected a single DELETE /patient/delete/2, got %+v", requests)
	}
}

func TestDeletePatientFromListFailure(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.DELETE("/patient/delete/:id", func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "boom")
	})
	client, _ := newTestClient(t, gateway, "tok-123")
	patients := []medilabo.Patient{{ID: 1}, {ID: 2}}

	remaining, err := DeletePatientFromList(context.Background(), client, patients, "2")

	var apiErr *medilabo.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected a 500 API error, got %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("the list must be unchanged on failure, got %+v", remaining)
	}
	if got := len(gateway.Requests()); got != 1 {
		t.Fatalf("expected one request, got %d", got)
	}
}

func TestLoginStoresTokenOnSuccess(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.POST("/utilisateur/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "token": "tok-abc"})
	})
	client, store := newTestClient(t, gateway, "")
	ctx := context.Background()

	if err := client.Login(ctx, "admin", "secret"); err != nil {
		t.Fatalf("login failed: %s", err)
	}
	token, ok, err := store.Get(ctx)
	if err != nil || !ok || token != "tok-abc" {
		t.Fatalf("token not stored: %q %v %v", token, ok, err)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(gateway.Requests()[0].Body, &body); err != nil {
		t.Fatalf("login body is not JSON: %s", err)
	}
	if body["username"] != "admin" || body["password"] != "secret" {
		t.Fatalf("unexpected login body: %v", body)
	}
	if _, ok := body["code"]; ok {
		t.Fatalf("no code expected without a TOTP secret")
	}
	if gateway.Requests()[0].Authorization != "" {
		t.Fatalf("login must not carry a bearer token")
	}

	if err := client.Logout(ctx); err != nil {
		t.Fatalf("logout failed: %s", err)
	}
	if _, ok, _ := store.Get(ctx); ok {
		t.Fatalf("logout must clear the token")
	}
}

func TestLoginDoesNotStoreOnUnexpectedResponse(t *testing.T) {
	responses := map[string]gin.H{
		"error status": {"status": "error", "token": "tok-abc"},
		"empty token":  {"status": "success", "token": ""},
	}
	for name, response := range responses {
		t.Run(name, func(t *testing.T) {
			gateway := newFakeGateway(t)
			gateway.POST("/utilisateur/login", func(c *gin.Context) {
				c.JSON(http.StatusOK, response)
			})
			client, store := newTestClient(t, gateway, "")

			err := client.Login(context.Background(), "admin", "secret")
			if !errors.Is(err, ErrLoginRejected) {
				t.Fatalf("expected ErrLoginRejected, got %v", err)
			}
			if _, ok, _ := store.Get(context.Background()); ok {
				t.Fatalf("no token must be stored")
			}
		})
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.POST("/utilisateur/login", func(c *gin.Context) {
		c.String(http.StatusUnauthorized, "Identifiants incorrects")
	})
	client, store := newTestClient(t, gateway, "")

	err := client.Login(context.Background(), "admin", "wrong")
	if !errors.Is(err, ErrLoginRejected) {
		t.Fatalf("expected ErrLoginRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "Identifiants incorrects") {
		t.Fatalf("the gateway message should be kept: %s", err)
	}
	if _, ok, _ := store.Get(context.Background()); ok {
		t.Fatalf("no token must be stored")
	}
}

func TestLoginSendsTotpCode(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.POST("/utilisateur/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "token": "tok-abc"})
	})
	client, _ := newTestClient(t, gateway, "")
	client.TotpSecretKey = "JBSWY3DPEHPK3PXP"

	if err := client.Login(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("login failed: %s", err)
	}
	var body medilabo.LoginRequest
	if err := json.Unmarshal(gateway.Requests()[0].Body, &body); err != nil {
		t.Fatalf("login body is not JSON: %s", err)
	}
	if len(body.Code) != 6 {
		t.Fatalf("expected a 6 digit code, got %q", body.Code)
	}
}

func TestAuthenticatedRequestsCarryBearerToken(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.GET("/patient/list", func(c *gin.Context) {
		c.JSON(http.StatusOK, []medilabo.Patient{{ID: 1}})
	})
	gateway.GET("/utilisateur/list", func(c *gin.Context) {
		c.JSON(http.StatusOK, []medilabo.Utilisateur{})
	})
	gateway.GET("/note/getNotesPatient", func(c *gin.Context) {
		c.JSON(http.StatusOK, []medilabo.Note{})
	})
	gateway.GET("/alerte/detecte", func(c *gin.Context) {
		c.String(http.StatusOK, "None\n")
	})
	client, _ := newTestClient(t, gateway, "tok-123")
	ctx := context.Background()

	if _, err := client.ListPatients(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := client.ListUsers(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := client.GetNotesOfPatient(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	level, err := client.FetchRiskLevel(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if level != "None" {
		t.Fatalf("unexpected level %q", level)
	}

	requestIDs := map[string]bool{}
	for _, request := range gateway.Requests() {
		if request.Authorization != "Bearer tok-123" {
			t.Errorf("%s %s sent Authorization %q", request.Method, request.Path, request.Authorization)
		}
		if request.RequestID == "" || requestIDs[request.RequestID] {
			t.Errorf("%s %s sent a missing or reused request id", request.Method, request.Path)
		}
		requestIDs[request.RequestID] = true
	}
	if query := gateway.Requests()[3].Query; query != "patientId=1" {
		t.Fatalf("unexpected alert query %q", query)
	}
}

func TestAuthenticatedCallWithoutSession(t *testing.T) {
	gateway := newFakeGateway(t)
	client, _ := newTestClient(t, gateway, "")

	_, err := client.ListPatients(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if got := len(gateway.Requests()); got != 0 {
		t.Fatalf("expected no request, got %d", got)
	}
}

func TestStatusCodesMapToSentinels(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.GET("/patient/list", func(c *gin.Context) {
		c.Status(http.StatusUnauthorized)
	})
	gateway.GET("/utilisateur/list", func(c *gin.Context) {
		c.Status(http.StatusForbidden)
	})
	gateway.DELETE("/utilisateur/delete/:id", func(c *gin.Context) {
		c.String(http.StatusNotFound, "Utilisateur introuvable")
	})
	client, store := newTestClient(t, gateway, "tok-123")
	ctx := context.Background()

	if _, err := client.ListPatients(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("401: expected ErrUnauthorized, got %v", err)
	}
	if _, err := client.ListUsers(ctx); !errors.Is(err, ErrForbidden) {
		t.Errorf("403: expected ErrForbidden, got %v", err)
	}
	if err := client.DeleteUser(ctx, "9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("404: expected ErrNotFound, got %v", err)
	}
	if _, ok, _ := store.Get(ctx); !ok {
		t.Errorf("a rejected call must not clear the session")
	}
}

func TestGetPatientEmptyBodyIsNotFound(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.GET("/patient/infos/:id", func(c *gin.Context) {
		if c.Param("id") == "1" {
			c.JSON(http.StatusOK, medilabo.Patient{ID: 1, Nom: "Test"})
			return
		}
		c.Status(http.StatusOK)
	})
	client, _ := newTestClient(t, gateway, "tok-123")

	patient, err := client.GetPatient(context.Background(), "1")
	if err != nil || patient.Nom != "Test" {
		t.Fatalf("unexpected result %+v %v", patient, err)
	}
	if _, err := client.GetPatient(context.Background(), "42"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddRdvPostsPatientIdAsId(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.POST("/patient/addRdv", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	env, _ := newTestEnvironment(t, gateway, "tok-123")

	err := newApp(env).Run([]string{"medilabo", "rdv", "add", "--medecin", "Dr House", "--jour", "2025-03-14", "--heure", "09:30", "7"})
	if err != nil {
		t.Fatalf("rdv add failed: %s", err)
	}
	var body map[string]string
	if err := json.Unmarshal(gateway.Requests()[0].Body, &body); err != nil {
		t.Fatalf("body is not JSON: %s", err)
	}
	if body["id"] != "7" || body["nomMedecin"] != "Dr House" || body["jourRdv"] != "2025-03-14" || body["heureRdv"] != "09:30" {
		t.Fatalf("unexpected body %v", body)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/medilabo/medilabo-cli/medilabo"
)

func (c *MedilaboClient) ListPatients(ctx context.Context) ([]medilabo.Patient, error) {
	var patients []medilabo.Patient
	err := c.doJSON(ctx, http.MethodGet, "/patient/list", nil, nil, &patients)
	return patients, err
}

func (c *MedilaboClient) GetPatient(ctx context.Context, id string) (medilabo.Patient, error) {
	var patient medilabo.Patient
	err := c.doJSON(ctx, http.MethodGet, "/patient/infos/"+url.PathEscape(id), nil, nil, &patient)
	if err != nil {
		return patient, err
	}
	// the patient service answers 200 with an empty body for unknown ids
	if patient.ID == 0 {
		return patient, fmt.Errorf("%w: patient %s", ErrNotFound, id)
	}
	return patient, nil
}

func (c *MedilaboClient) AddPatient(ctx context.Context, patient medilabo.Patient) (medilabo.Patient, error) {
	var created medilabo.Patient
	err := c.doJSON(ctx, http.MethodPost, "/patient/add", nil, patient, &created)
	return created, err
}

func (c *MedilaboClient) UpdatePatient(ctx context.Context, id string, patient medilabo.Patient) (medilabo.Patient, error) {
	var updated medilabo.Patient
	err := c.doJSON(ctx, http.MethodPut, "/patient/update/"+url.PathEscape(id), nil, patient, &updated)
	return updated, err
}

func (c *MedilaboClient) DeletePatient(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/patient/delete/"+url.PathEscape(id), nil, nil, nil)
}

func (c *MedilaboClient) GetMedecinsOfPatient(ctx context.Context, id string) ([]medilabo.Medecin, error) {
	var medecins []medilabo.Medecin
	err := c.doJSON(ctx, http.MethodGet, "/patient/medecinByPatient", url.Values{"id": {id}}, nil, &medecins)
	return medecins, err
}

func (c *MedilaboClient) AddRdv(ctx context.Context, rdv medilabo.NewRdv) error {
	return c.doJSON(ctx, http.MethodPost, "/patient/addRdv", nil, rdv, nil)
}

// FetchRiskLevel returns the raw diabetes risk category computed by the
// alert service for a patient.
func (c *MedilaboClient) FetchRiskLevel(ctx context.Context, patientID string) (string, error) {
	return c.doText(ctx, http.MethodGet, c.AlertPath, url.Values{"patientId": {patientID}})
}

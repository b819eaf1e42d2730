package main

import (
	"context"
	"net/http"
	"net/url"

	"github.com/medilabo/medilabo-cli/medilabo"
)

func (c *MedilaboClient) AddNote(ctx context.Context, note medilabo.NewNote) (medilabo.Note, error) {
	var created medilabo.Note
	err := c.doJSON(ctx, http.MethodPost, "/note/add", nil, note, &created)
	return created, err
}

func (c *MedilaboClient) GetNotesOfPatient(ctx context.Context, patientID string) ([]medilabo.Note, error) {
	var notes []medilabo.Note
	err := c.doJSON(ctx, http.MethodGet, "/note/getNotesPatient", url.Values{"patientId": {patientID}}, nil, &notes)
	return notes, err
}

func (c *MedilaboClient) AddTransmission(ctx context.Context, transmission medilabo.Transmission) (medilabo.Transmission, error) {
	var created medilabo.Transmission
	err := c.doJSON(ctx, http.MethodPost, "/transmission/add", nil, transmission, &created)
	return created, err
}

func (c *MedilaboClient) GetTransmissionsOfPatient(ctx context.Context, patientID string) ([]medilabo.Transmission, error) {
	var transmissions []medilabo.Transmission
	err := c.doJSON(ctx, http.MethodGet, "/transmission/getTransmissionsOfPatient", url.Values{"patientId": {patientID}}, nil, &transmissions)
	return transmissions, err
}

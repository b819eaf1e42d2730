package main

import (
	"context"
	"net/http"
	"net/url"

	"github.com/medilabo/medilabo-cli/medilabo"
)

func (c *MedilaboClient) ListUsers(ctx context.Context) ([]medilabo.Utilisateur, error) {
	var users []medilabo.Utilisateur
	err := c.doJSON(ctx, http.MethodGet, "/utilisateur/list", nil, nil, &users)
	return users, err
}

func (c *MedilaboClient) AddUser(ctx context.Context, user medilabo.Utilisateur) (medilabo.Utilisateur, error) {
	var created medilabo.Utilisateur
	err := c.doJSON(ctx, http.MethodPost, "/utilisateur/add", nil, user, &created)
	return created, err
}

func (c *MedilaboClient) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/utilisateur/delete/"+url.PathEscape(id), nil, nil, nil)
}

package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/printforge/printforge-backend/api/middleware"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

func actorID(r *http.Request) (uuid.UUID, error) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing")
	}
	return p.ID, nil
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/merchforge/merchforge-backend/api/middleware"
	"github.com/merchforge/merchforge-backend/api/validators"
	pkgerrors "github.com/merchforge/merchforge-backend/pkg/errors"
	"github.com/merchforge/merchforge-backend/pkg/logger"
	"github.com/merchforge/merchforge-backend/pkg/pagination"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func requireUser(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserUUIDFromContext(r.Context())
	if userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return userID, nil
}

// withProductLog tags the request logger so rejections carry the product id.
func withProductLog(r *http.Request, logg *logger.Logger, productID uuid.UUID) *http.Request {
	if logg == nil {
		return r
	}
	return r.WithContext(logg.WithProductID(r.Context(), productID.String()))
}

func withOrderLog(r *http.Request, logg *logger.Logger, orderID uuid.UUID) *http.Request {
	if logg == nil {
		return r
	}
	return r.WithContext(logg.WithOrderID(r.Context(), orderID.String()))
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", defaultPageSize, 1, maxPageSize)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

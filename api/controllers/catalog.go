package controllers

import (
	"net/http"

	"github.com/angelmondragon/forrajeria-backend/api/responses"
	"github.com/angelmondragon/forrajeria-backend/api/validators"
	"github.com/angelmondragon/forrajeria-backend/internal/catalog"
	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
	"github.com/angelmondragon/forrajeria-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const maxSearchLength = 64

// ProductView is the catalog listing entry.
type ProductView struct {
	ID     string          `json:"id"`
	Nombre string          `json:"nombre"`
	Precio decimal.Decimal `json:"precio"`
	Stock  int             `json:"stock"`
	Imagen *string         `json:"imagen,omitempty"`
}

// CatalogList returns in-stock products filtered by ?search= and ordered by ?sort=.
func CatalogList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		query := r.URL.Query()
		sortBy, err := enums.ParseProductSort(query.Get("sort"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").
				WithDetails(map[string]any{"field": "sort"}))
			return
		}

		products, err := svc.List(r.Context(), catalog.Query{
			Search: validators.SanitizeString(query.Get("search"), maxSearchLength),
			Sort:   sortBy,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]ProductView, 0, len(products))
		for _, p := range products {
			views = append(views, ProductView{ID: p.ID, Nombre: p.Nombre, Precio: p.Precio, Stock: p.Stock, Imagen: p.Imagen})
		}
		responses.WriteSuccess(w, views)
	}
}

// Package params разбирает параметры пути и строки запроса.
package params

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/finletter/internal/models"
)

const (
	// DefaultLimit размер страницы по умолчанию.
	DefaultLimit = 20
	// MaxLimit наибольший размер страницы.
	MaxLimit = 100
)

// ErrBadID идентификатор в пути не является положительным числом.
var ErrBadID = errors.New("invalid id")

// Kind тип материала из сегмента {kind}.
func Kind(r *http.Request) (models.ContentKind, bool) {
	return models.KindFromPath(chi.URLParam(r, "kind"))
}

// ID числовой идентификатор из сегмента {id}.
func ID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, ErrBadID
	}
	return id, nil
}

// Page limit и offset из строки запроса. Некорректные значения заменяются
// значениями по умолчанию.
func Page(r *http.Request) (limit, offset int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	offset, err = strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

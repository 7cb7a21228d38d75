package catalog

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/flexpro/backend/internal/telemetry/tracing"
	"github.com/flexpro/backend/pkg"

	log "github.com/sirupsen/logrus"
)

type supplementsRepo interface {
	Categories(ctx context.Context) ([]SupplementCategory, error)
	Get(ctx context.Context, id int) (*Supplement, error)
	Search(ctx context.Context, query string, limit int) ([]Supplement, error)
	ByCategory(ctx context.Context, categoryID int) ([]Supplement, error)
}

type SupplementsHandler struct {
	repo supplementsRepo
}

func NewSupplementsHandler(repo supplementsRepo) *SupplementsHandler {
	return &SupplementsHandler{
		repo: repo,
	}
}

func (handler *SupplementsHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.categories")
	defer span.End()

	categories, err := handler.repo.Categories(ctx)
	if err != nil {
		log.Errorf("failed to list supplement categories: %s", err)
		http.Error(w, "list supplement categories failed", http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []SupplementCategory{}
	}

	pkg.SendJSON(w, http.StatusOK, categories)
}

func (handler *SupplementsHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.search")
	defer span.End()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := queryIntOr(r, "limit", defaultFilteredLimit)

	supplements, err := handler.repo.Search(ctx, query, limit)
	if err != nil {
		log.Errorf("failed to search supplements [%s]: %s", query, err)
		http.Error(w, "search supplements failed", http.StatusInternalServerError)
		return
	}
	if supplements == nil {
		supplements = []Supplement{}
	}

	pkg.SendJSON(w, http.StatusOK, supplements)
}

func (handler *SupplementsHandler) HandleByCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.byCategory")
	defer span.End()

	categoryID, ok := pathID(w, r, "categoryID")
	if !ok {
		return
	}

	supplements, err := handler.repo.ByCategory(ctx, categoryID)
	if err != nil {
		log.Errorf("failed to list supplements for category %d: %s", categoryID, err)
		http.Error(w, "list supplements failed", http.StatusInternalServerError)
		return
	}
	if supplements == nil {
		supplements = []Supplement{}
	}

	pkg.SendJSON(w, http.StatusOK, supplements)
}

func (handler *SupplementsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.supplements.get")
	defer span.End()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	supplement, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSupplementNotFound) {
			http.Error(w, "supplement not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get supplement %d: %s", id, err)
		http.Error(w, "get supplement failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJSON(w, http.StatusOK, supplement)
}

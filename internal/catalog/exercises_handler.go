package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/flexpro/backend/internal/telemetry/tracing"
	"github.com/flexpro/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

var knownExerciseTypes = map[ExerciseType]bool{
	ExerciseResistance: true,
	ExerciseCardio:     true,
	ExerciseCorrective: true,
	ExerciseWarmup:     true,
	ExerciseCooldown:   true,
	ExerciseStretching: true,
	ExercisePlyometric: true,
}

type exercisesRepo interface {
	MuscleGroups(ctx context.Context) ([]MuscleGroup, error)
	Get(ctx context.Context, id int) (*Exercise, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]Exercise, error)
	ByMuscleGroup(ctx context.Context, muscleGroupID int) ([]Exercise, error)
	ByType(ctx context.Context, exerciseType ExerciseType, limit int) ([]Exercise, error)
	Compound(ctx context.Context, limit int) ([]Exercise, error)
	CreateCustom(ctx context.Context, exercise Exercise) (*Exercise, error)
}

type ExercisesHandler struct {
	repo exercisesRepo
}

func NewExercisesHandler(repo exercisesRepo) *ExercisesHandler {
	return &ExercisesHandler{
		repo: repo,
	}
}

func (handler *ExercisesHandler) HandleMuscleGroups(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.muscleGroups")
	defer span.End()

	groups, err := handler.repo.MuscleGroups(ctx)
	if err != nil {
		log.Errorf("failed to list muscle groups: %s", err)
		http.Error(w, "list muscle groups failed", http.StatusInternalServerError)
		return
	}
	if groups == nil {
		groups = []MuscleGroup{}
	}

	pkg.SendJSON(w, http.StatusOK, groups)
}

func (handler *ExercisesHandler) HandleMuscleGroupsWithExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.muscleGroupsWithExercises")
	defer span.End()

	groups, err := handler.repo.MuscleGroups(ctx)
	if err != nil {
		log.Errorf("failed to list muscle groups: %s", err)
		http.Error(w, "list muscle groups failed", http.StatusInternalServerError)
		return
	}

	withExercises := make([]MuscleGroupWithExercises, 0, len(groups))
	for _, group := range groups {
		exercises, err := handler.repo.ByMuscleGroup(ctx, group.ID)
		if err != nil {
			log.Errorf("failed to list exercises for muscle group %d: %s", group.ID, err)
			http.Error(w, "list exercises failed", http.StatusInternalServerError)
			return
		}
		if exercises == nil {
			exercises = []Exercise{}
		}
		withExercises = append(withExercises, MuscleGroupWithExercises{
			MuscleGroup: group,
			Exercises:   exercises,
		})
	}

	pkg.SendJSON(w, http.StatusOK, withExercises)
}

func (handler *ExercisesHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.search")
	defer span.End()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	page := queryIntOr(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryIntOr(r, "page_size", defaultPageSize)
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	exercises, err := handler.repo.Search(ctx, query, page, pageSize)
	if err != nil {
		log.Errorf("failed to search exercises [%s]: %s", query, err)
		http.Error(w, "search exercises failed", http.StatusInternalServerError)
		return
	}
	if exercises == nil {
		exercises = []Exercise{}
	}

	pkg.SendJSON(w, http.StatusOK, exercises)
}

func (handler *ExercisesHandler) HandleByMuscleGroup(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.byMuscleGroup")
	defer span.End()

	muscleGroupID, ok := pathID(w, r, "muscleGroupID")
	if !ok {
		return
	}

	exercises, err := handler.repo.ByMuscleGroup(ctx, muscleGroupID)
	if err != nil {
		log.Errorf("failed to list exercises for muscle group %d: %s", muscleGroupID, err)
		http.Error(w, "list exercises failed", http.StatusInternalServerError)
		return
	}
	if exercises == nil {
		exercises = []Exercise{}
	}

	pkg.SendJSON(w, http.StatusOK, exercises)
}

func (handler *ExercisesHandler) HandleByType(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.byType")
	defer span.End()

	exerciseType := ExerciseType(mux.Vars(r)["type"])
	if !knownExerciseTypes[exerciseType] {
		pkg.SendValidationErrors(w, []pkg.FieldError{
			{Field: "type", Message: "unknown exercise type"},
		})
		return
	}
	limit := queryIntOr(r, "limit", defaultFilteredLimit)

	exercises, err := handler.repo.ByType(ctx, exerciseType, limit)
	if err != nil {
		log.Errorf("failed to list %s exercises: %s", exerciseType, err)
		http.Error(w, "list exercises failed", http.StatusInternalServerError)
		return
	}
	if exercises == nil {
		exercises = []Exercise{}
	}

	pkg.SendJSON(w, http.StatusOK, exercises)
}

func (handler *ExercisesHandler) HandleCompound(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.compound")
	defer span.End()

	limit := queryIntOr(r, "limit", defaultCompoundsLimit)

	exercises, err := handler.repo.Compound(ctx, limit)
	if err != nil {
		log.Errorf("failed to list compound exercises: %s", err)
		http.Error(w, "list exercises failed", http.StatusInternalServerError)
		return
	}
	if exercises == nil {
		exercises = []Exercise{}
	}

	pkg.SendJSON(w, http.StatusOK, exercises)
}

func (handler *ExercisesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.get")
	defer span.End()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	exercise, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get exercise %d: %s", id, err)
		http.Error(w, "get exercise failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJSON(w, http.StatusOK, exercise)
}

func (handler *ExercisesHandler) HandleCreateCustom(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.createCustom")
	defer span.End()

	var exercise Exercise
	if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
		log.Tracef("create custom exercise, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var fieldErrors []pkg.FieldError
	if strings.TrimSpace(exercise.Name) == "" {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "name", Message: "name required"})
	}
	if exercise.Type == "" {
		exercise.Type = ExerciseResistance
	} else if !knownExerciseTypes[exercise.Type] {
		fieldErrors = append(fieldErrors, pkg.FieldError{Field: "type", Message: "unknown exercise type"})
	}
	if len(fieldErrors) > 0 {
		pkg.SendValidationErrors(w, fieldErrors)
		return
	}

	created, err := handler.repo.CreateCustom(ctx, exercise)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			pkg.SendValidationErrors(w, []pkg.FieldError{
				{Field: "muscle_group_id", Message: "unknown muscle group"},
			})
			return
		}
		log.Errorf("failed to create custom exercise [%s]: %s", exercise.Name, err)
		http.Error(w, "create exercise failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("custom exercise created: %d [%s]", created.ID, created.Name)
	pkg.SendJSON(w, http.StatusCreated, created)
}

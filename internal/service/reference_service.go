package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

const referenceStudentLimit = 500

type studentLister interface {
	List(ctx context.Context, schoolID string, filter models.StudentFilter) ([]models.Student, error)
}

type classLister interface {
	ListClasses(ctx context.Context, schoolID string) ([]models.Class, error)
}

type templateLister interface {
	List(ctx context.Context, schoolID string) ([]models.Template, error)
}

// ReferenceService serves the lookup lists used by forms.
type ReferenceService struct {
	students  studentLister
	classes   classLister
	templates templateLister
}

// NewReferenceService constructs the service.
func NewReferenceService(students studentLister, classes classLister, templates templateLister) *ReferenceService {
	return &ReferenceService{students: students, classes: classes, templates: templates}
}

// Load fetches students, classes and templates of the actor's school concurrently.
func (s *ReferenceService) Load(ctx context.Context, actor models.Actor) (*dto.ReferenceData, error) {
	out := &dto.ReferenceData{
		Students:  []dto.ReferenceStudent{},
		Classes:   []dto.ReferenceClass{},
		Templates: []dto.ReferenceTemplate{},
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		students, err := s.students.List(gctx, actor.SchoolID, models.StudentFilter{Limit: referenceStudentLimit})
		if err != nil {
			return err
		}
		for _, st := range students {
			out.Students = append(out.Students, dto.ReferenceStudent{
				ID: st.ID, Name: st.Name, Registration: st.Registration, ClassID: st.ClassID, ClassName: st.ClassName,
			})
		}
		return nil
	})
	g.Go(func() error {
		classes, err := s.classes.ListClasses(gctx, actor.SchoolID)
		if err != nil {
			return err
		}
		for _, c := range classes {
			out.Classes = append(out.Classes, dto.ReferenceClass{ID: c.ID, Name: c.Name})
		}
		return nil
	})
	g.Go(func() error {
		templates, err := s.templates.List(gctx, actor.SchoolID)
		if err != nil {
			return err
		}
		for _, t := range templates {
			out.Templates = append(out.Templates, dto.ReferenceTemplate{
				ID: t.ID, Title: t.Title, Code: t.Code, Type: t.Type, SchoolID: t.SchoolID,
			})
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Internal(err, "failed to load reference data")
	}
	return out, nil
}

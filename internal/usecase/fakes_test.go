package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/fadilmartias/resume-pipeline/internal/repository"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

func notFound() error {
	return apperror.Wrap(apperror.KindNotFound, "fake", apperror.ErrNotFound, "record not found")
}

type fakeCandidates struct {
	mu         sync.Mutex
	byID       map[uuid.UUID]*model.Candidate
	order      []uuid.UUID
	skipHooks  []bool
	embeddings map[uuid.UUID]pgvector.Vector
}

func newFakeCandidates(cs ...*model.Candidate) *fakeCandidates {
	f := &fakeCandidates{byID: map[uuid.UUID]*model.Candidate{}, embeddings: map[uuid.UUID]pgvector.Vector{}}
	for _, c := range cs {
		f.byID[c.ID] = c
		f.order = append(f.order, c.ID)
	}
	return f
}

func (f *fakeCandidates) Create(_ context.Context, c *model.Candidate, skipHooks bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.byID[c.ID] = c
	f.order = append(f.order, c.ID)
	f.skipHooks = append(f.skipHooks, skipHooks)
	return nil
}

func (f *fakeCandidates) Save(_ context.Context, c *model.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCandidates) FindByID(_ context.Context, id uuid.UUID) (*model.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, notFound()
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCandidates) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(ids) == 0 {
		ids = f.order
	}
	var out []model.Candidate
	for _, id := range ids {
		if c, ok := f.byID[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCandidates) UpdateEmbedding(_ context.Context, id uuid.UUID, vec pgvector.Vector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeddings[id] = vec
	return nil
}

func (f *fakeCandidates) ListMissingEmbedding(_ context.Context, limit int) ([]model.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Candidate
	for _, id := range f.order {
		if _, ok := f.embeddings[id]; !ok && len(out) < limit {
			out = append(out, *f.byID[id])
		}
	}
	return out, nil
}

func (f *fakeCandidates) SearchByEmbedding(_ context.Context, _ pgvector.Vector, topK int) ([]repository.CandidateMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.CandidateMatch
	for _, id := range f.order {
		if len(out) == topK {
			break
		}
		out = append(out, repository.CandidateMatch{Candidate: *f.byID[id]})
	}
	return out, nil
}

type fakeVacancies struct {
	byID       map[uuid.UUID]*model.Vacancy
	embeddings int
}

func newFakeVacancies(vs ...*model.Vacancy) *fakeVacancies {
	f := &fakeVacancies{byID: map[uuid.UUID]*model.Vacancy{}}
	for _, v := range vs {
		f.byID[v.ID] = v
	}
	return f
}

func (f *fakeVacancies) Create(_ context.Context, v *model.Vacancy) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	f.byID[v.ID] = v
	return nil
}

func (f *fakeVacancies) FindByID(_ context.Context, id uuid.UUID) (*model.Vacancy, error) {
	v, ok := f.byID[id]
	if !ok {
		return nil, notFound()
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVacancies) UpdateEmbedding(_ context.Context, id uuid.UUID, vec pgvector.Vector) error {
	f.embeddings++
	f.byID[id].Embedding = &vec
	return nil
}

type fakeAnalyses struct {
	rows     []*model.MatchAnalysis
	replaces int
}

func (f *fakeAnalyses) FindByPair(_ context.Context, vacancyID, candidateID uuid.UUID) (*model.MatchAnalysis, error) {
	for _, a := range f.rows {
		if a.VacancyID == vacancyID && a.CandidateID == candidateID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, notFound()
}

func (f *fakeAnalyses) ReplaceForPair(_ context.Context, a *model.MatchAnalysis) error {
	f.replaces++
	kept := f.rows[:0]
	for _, r := range f.rows {
		if r.VacancyID != a.VacancyID || r.CandidateID != a.CandidateID {
			kept = append(kept, r)
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := *a
	f.rows = append(kept, &cp)
	return nil
}

func (f *fakeAnalyses) ListByVacancy(_ context.Context, vacancyID uuid.UUID, page, pageSize int) ([]model.MatchAnalysis, int64, error) {
	all, _ := f.ListAllByVacancy(context.Background(), vacancyID)
	return all, int64(len(all)), nil
}

func (f *fakeAnalyses) ListAllByVacancy(_ context.Context, vacancyID uuid.UUID) ([]model.MatchAnalysis, error) {
	var out []model.MatchAnalysis
	for _, a := range f.rows {
		if a.VacancyID == vacancyID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeScorer struct {
	calls int
	errs  []error
	score float64
}

func (f *fakeScorer) Score(_ context.Context, v *model.Vacancy, c *model.Candidate) (*model.MatchAnalysis, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &model.MatchAnalysis{VacancyID: v.ID, CandidateID: c.ID, MatchScore: f.score, Feedback: "ok"}, nil
}

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

var errBoom = errors.New("boom")

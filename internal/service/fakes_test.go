package service

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nathanfredericks/instagrader/internal/models"
	"github.com/nathanfredericks/instagrader/internal/queue"
	"github.com/nathanfredericks/instagrader/internal/repository"
)

// statusChange records one observed essay status mutation.
type statusChange struct {
	essayID uuid.UUID
	status  models.EssayStatus
}

type memoryEssayRepo struct {
	mu        sync.Mutex
	essays    map[uuid.UUID]*models.Essay
	owners    map[uuid.UUID]uint
	history   []statusChange
	createErr error
	textErr   error
}

func newMemoryEssayRepo() *memoryEssayRepo {
	return &memoryEssayRepo{
		essays: make(map[uuid.UUID]*models.Essay),
		owners: make(map[uuid.UUID]uint),
	}
}

// setOwner registers which user owns an assignment so GetForUser can mirror
// the ownership join of the real repository.
func (r *memoryEssayRepo) setOwner(assignmentID uuid.UUID, userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[assignmentID] = userID
}

func (r *memoryEssayRepo) add(essay models.Essay) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := essay
	r.essays[essay.ID] = &stored
}

func (r *memoryEssayRepo) get(id uuid.UUID) models.Essay {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.essays[id]
}

func (r *memoryEssayRepo) ListByAssignment(_ context.Context, assignmentID uuid.UUID) ([]models.Essay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Essay
	for _, essay := range r.essays {
		if essay.AssignmentID == assignmentID {
			out = append(out, *essay)
		}
	}
	return out, nil
}

func (r *memoryEssayRepo) GetByID(_ context.Context, id uuid.UUID) (models.Essay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	essay, ok := r.essays[id]
	if !ok {
		return models.Essay{}, gorm.ErrRecordNotFound
	}
	return *essay, nil
}

func (r *memoryEssayRepo) GetForUser(_ context.Context, id uuid.UUID, userID uint) (models.Essay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	essay, ok := r.essays[id]
	if !ok || r.owners[essay.AssignmentID] != userID {
		return models.Essay{}, gorm.ErrRecordNotFound
	}
	return *essay, nil
}

func (r *memoryEssayRepo) CreateBatch(_ context.Context, essays []*models.Essay) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, essay := range essays {
		stored := *essay
		r.essays[essay.ID] = &stored
	}
	return nil
}

func (r *memoryEssayRepo) UpdateExtractedText(_ context.Context, id uuid.UUID, text string) error {
	if r.textErr != nil {
		return r.textErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	essay, ok := r.essays[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	essay.ExtractedText = text
	return nil
}

func (r *memoryEssayRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to models.EssayStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	essay, ok := r.essays[id]
	if !ok || essay.Status != from {
		return false, nil
	}
	essay.Status = to
	r.history = append(r.history, statusChange{essayID: id, status: to})
	return true, nil
}

func (r *memoryEssayRepo) SetStatus(_ context.Context, id uuid.UUID, status models.EssayStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	essay, ok := r.essays[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	essay.Status = status
	r.history = append(r.history, statusChange{essayID: id, status: status})
	return nil
}

func (r *memoryEssayRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.essays, id)
	return nil
}

func (r *memoryEssayRepo) CountByStatus(_ context.Context, assignmentID uuid.UUID) (map[models.EssayStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[models.EssayStatus]int64)
	for _, essay := range r.essays {
		if essay.AssignmentID == assignmentID {
			counts[essay.Status]++
		}
	}
	return counts, nil
}

type memoryAssignmentRepo struct {
	assignments map[uuid.UUID]*models.Assignment
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[uuid.UUID]*models.Assignment)}
}

func (r *memoryAssignmentRepo) add(assignment models.Assignment) {
	stored := assignment
	r.assignments[assignment.ID] = &stored
}

func (r *memoryAssignmentRepo) List(_ context.Context, userID uint) ([]repository.AssignmentSummary, error) {
	var out []repository.AssignmentSummary
	for _, assignment := range r.assignments {
		if assignment.UserID == userID {
			out = append(out, repository.AssignmentSummary{Assignment: *assignment})
		}
	}
	return out, nil
}

func (r *memoryAssignmentRepo) GetForUser(_ context.Context, id uuid.UUID, userID uint) (models.Assignment, error) {
	assignment, ok := r.assignments[id]
	if !ok || assignment.UserID != userID {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return *assignment, nil
}

func (r *memoryAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	stored := *assignment
	r.assignments[assignment.ID] = &stored
	return nil
}

func (r *memoryAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	stored := *assignment
	r.assignments[assignment.ID] = &stored
	return nil
}

func (r *memoryAssignmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.assignments, id)
	return nil
}

type memoryRubricRepo struct {
	rubrics map[uuid.UUID]models.Rubric
}

func newMemoryRubricRepo() *memoryRubricRepo {
	return &memoryRubricRepo{rubrics: make(map[uuid.UUID]models.Rubric)}
}

func (r *memoryRubricRepo) add(rubric models.Rubric) {
	r.rubrics[rubric.ID] = rubric
}

func (r *memoryRubricRepo) GetForUser(_ context.Context, id uuid.UUID, userID uint) (models.Rubric, error) {
	rubric, ok := r.rubrics[id]
	if !ok || rubric.UserID != userID {
		return models.Rubric{}, gorm.ErrRecordNotFound
	}
	return rubric, nil
}

type stubStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	uploadErr   error
	downloadErr error
	deleted     []string
}

func newStubStorage() *stubStorage {
	return &stubStorage{objects: make(map[string][]byte)}
}

func (s *stubStorage) Upload(_ context.Context, key string, data io.Reader, _ int64, _ string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	payload, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = payload
	return nil
}

func (s *stubStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.objects[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (s *stubStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

type recordingDispatcher struct {
	batches []queue.EssayBatch
	err     error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, batch queue.EssayBatch) error {
	if d.err != nil {
		return d.err
	}
	d.batches = append(d.batches, batch)
	return nil
}

// stubConverter returns canned text per file name and fails for names listed
// in failing.
type stubConverter struct {
	texts   map[string]string
	failing map[string]error
}

func (c *stubConverter) Convert(_ context.Context, _ io.Reader, fileName string) (string, error) {
	if err, ok := c.failing[fileName]; ok {
		return "", err
	}
	return c.texts[fileName], nil
}

type recordingGrader struct {
	graded []uuid.UUID
}

func (g *recordingGrader) Grade(_ context.Context, essay models.Essay) error {
	g.graded = append(g.graded, essay.ID)
	return nil
}

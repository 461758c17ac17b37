package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusFetching   JobStatus = "fetching"
	StatusChunking   JobStatus = "chunking"
	StatusAnnotating JobStatus = "annotating"
	StatusEmbedding  JobStatus = "embedding"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// NewJobID returns a fresh random job identifier.
func NewJobID() string {
	return uuid.NewString()
}

// Job tracks the state of a single crawl or upload ingestion.
type Job struct {
	mu sync.Mutex

	ID         string    `json:"job_id"`
	Source     string    `json:"source"`
	Collection string    `json:"collection"`
	Status     JobStatus `json:"status"`
	Phase      string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	url          string
	fileData     []byte
	filename     string
	maxDepth     int
	maxPages     int
	contextualAI bool
	errors       []string
}

// Progress tracks processing progress through the pipeline phases.
type Progress struct {
	Pages         int      `json:"pages"`
	ProseChunks   int      `json:"prose_chunks"`
	CodeSnippets  int      `json:"code_snippets"`
	VectorsStored int      `json:"vectors_stored"`
	Errors        []string `json:"errors"`
}

// NewCrawlJob builds a job that fetches its content from the web.
func NewCrawlJob(target, collection string, maxDepth, maxPages int, contextualAI bool) *Job {
	now := time.Now()
	return &Job{
		ID:           NewJobID(),
		Source:       target,
		Collection:   collection,
		Status:       StatusQueued,
		Phase:        "queued",
		CreatedAt:    now,
		UpdatedAt:    now,
		url:          target,
		maxDepth:     maxDepth,
		maxPages:     maxPages,
		contextualAI: contextualAI,
	}
}

// NewUploadJob builds a job that ingests an uploaded file.
func NewUploadJob(filename string, data []byte, collection string, contextualAI bool) *Job {
	now := time.Now()
	return &Job{
		ID:           NewJobID(),
		Source:       filename,
		Collection:   collection,
		Status:       StatusQueued,
		Phase:        "queued",
		CreatedAt:    now,
		UpdatedAt:    now,
		filename:     filename,
		fileData:     data,
		contextualAI: contextualAI,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// SetCollection records the resolved collection name.
func (j *Job) SetCollection(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Collection = name
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetPages records the number of fetched pages.
func (j *Job) SetPages(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Pages = n
	j.UpdatedAt = time.Now()
}

// SetCounts records how much the chunker produced.
func (j *Job) SetCounts(proseChunks, codeSnippets int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ProseChunks = proseChunks
	j.Progress.CodeSnippets = codeSnippets
	j.UpdatedAt = time.Now()
}

// AddVectorsStored increments the stored vector count.
func (j *Job) AddVectorsStored(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.VectorsStored += n
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Source      string    `json:"source"`
	Collection  string    `json:"collection"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Progress    Progress  `json:"progress"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		Source:      j.Source,
		Collection:  j.Collection,
		Status:      j.Status,
		Phase:       j.Phase,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		Progress: Progress{
			Pages:         j.Progress.Pages,
			ProseChunks:   j.Progress.ProseChunks,
			CodeSnippets:  j.Progress.CodeSnippets,
			VectorsStored: j.Progress.VectorsStored,
			Errors:        errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

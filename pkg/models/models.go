package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WordVideos ties one formatted word to the clips that sign it. A word is
// either one whole-word clip or one clip per letter, never a mix.
type WordVideos struct {
	Word          string   `json:"word"`
	Videos        []string `json:"videos"`
	Fingerspelled bool     `json:"fingerspelled"`
	Missing       []string `json:"missing,omitempty"`
}

type Translation struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	FormattedWords []string     `json:"formatted_words"`
	Videos         []string     `json:"videos"`
	Words          []WordVideos `json:"words"`
	Missing        []string     `json:"missing,omitempty"`
	Engine         string       `json:"engine,omitempty"`
	Source         string       `json:"source,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// TranscribeResponse is the body of POST /transcribe/.
//
// Videos is the concatenation of Words[i].Videos. It lines up 1:1 with
// FormattedWords only when every word resolved to a whole-word clip; a
// fingerspelled word contributes one video per letter found.
type TranscribeResponse struct {
	ID             string       `json:"id,omitempty"`
	Text           string       `json:"text"`
	Videos         []string     `json:"videos"`
	FormattedWords []string     `json:"formatted_words"`
	Words          []WordVideos `json:"words,omitempty"`
	Missing        []string     `json:"missing,omitempty"`
	Error          string       `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (t *Translation) Response() *TranscribeResponse {
	return &TranscribeResponse{
		ID:             t.ID,
		Text:           t.Text,
		Videos:         t.Videos,
		FormattedWords: t.FormattedWords,
		Words:          t.Words,
		Missing:        t.Missing,
	}
}

type JobResult struct {
	Translation *Translation
	Err         error
}

// Job is one uploaded audio file travelling through the pipeline.
type Job struct {
	ID        string
	AudioPath string
	Source    string
	CreatedAt time.Time

	ctx    context.Context
	result chan JobResult
}

// NewJob ties the job to ctx, normally the request that submitted it. Once
// ctx is done nobody is waiting for the result and the job is abandoned.
func NewJob(ctx context.Context, audioPath, source string) *Job {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Job{
		ctx:       ctx,
		ID:        NewID(),
		AudioPath: audioPath,
		Source:    source,
		CreatedAt: time.Now(),
		result:    make(chan JobResult, 1),
	}
}

// Complete delivers the outcome. Only the first call has any effect.
func (j *Job) Complete(t *Translation, err error) {
	select {
	case j.result <- JobResult{Translation: t, Err: err}:
	default:
	}
}

func (j *Job) Context() context.Context {
	if j.ctx == nil {
		return context.Background()
	}
	return j.ctx
}

func (j *Job) Result() <-chan JobResult {
	return j.result
}

// NewID returns a time-ordered identifier, so lexical order is creation order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func NewTranslation(text string) *Translation {
	return &Translation{
		ID:             NewID(),
		Text:           text,
		FormattedWords: []string{},
		Videos:         []string{},
		Words:          []WordVideos{},
		CreatedAt:      time.Now(),
	}
}

package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"istibyan/internal/models"
)

// DataService is the per-creator aggregate repository. Every mutation is a
// wholesale overwrite of the record: fetch, mutate, replace. That sequence is
// not atomic — concurrent writers against the same username race and the last
// write wins. Accepted for single-creator-per-session usage; anyone layering
// concurrent editing on top needs to add a version stamp first.
type DataService struct {
	store  RecordStore
	now    func() time.Time
	nextID func() int64
}

func NewDataService(store RecordStore) *DataService {
	return &DataService{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		nextID: newResponseIDGen(),
	}
}

// newResponseIDGen yields unix-millisecond ids, bumped past the previous one
// when two calls land in the same millisecond.
func newResponseIDGen() func() int64 {
	var mu sync.Mutex
	var last int64
	return func() int64 {
		mu.Lock()
		defer mu.Unlock()
		id := time.Now().UnixMilli()
		if id <= last {
			id = last + 1
		}
		last = id
		return id
	}
}

func seedCreatorData(store RecordStore, username string) error {
	raw, err := json.Marshal(models.NewCreatorData())
	if err != nil {
		return err
	}
	return store.Set(dataKey(username), raw)
}

// FetchOrInit returns the creator's aggregate. Not found only means the
// username is absent from the directory; a registered user whose record went
// missing gets a fresh default created and persisted before returning.
// Callers never observe a registered user without data.
func (s *DataService) FetchOrInit(username string) (*models.CreatorData, error) {
	username = NormalizeUsername(username)
	raw, found, err := s.store.Get(dataKey(username))
	if err != nil {
		return nil, err
	}
	if found {
		var data models.CreatorData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode data record for %q: %w", username, err)
		}
		if data.Responses == nil {
			data.Responses = []models.Response{}
		}
		return &data, nil
	}
	users, err := loadDirectory(s.store)
	if err != nil {
		return nil, err
	}
	if _, ok := users[username]; !ok {
		return nil, NewNotFoundError("user not found")
	}
	if err := seedCreatorData(s.store, username); err != nil {
		return nil, err
	}
	return models.NewCreatorData(), nil
}

// Replace overwrites the whole aggregate unconditionally. Last write wins.
func (s *DataService) Replace(username string, data *models.CreatorData) error {
	if data == nil {
		return NewInvalidError("data required")
	}
	if data.Responses == nil {
		data.Responses = []models.Response{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.store.Set(dataKey(NormalizeUsername(username)), raw)
}

// AppendResponse records an anonymous submission against the owner's survey.
// It succeeds even when the survey is closed: the closed check is respondent
// UI policy, not enforced here. Fails with owner_not_found when the owner was
// never registered; it never creates a record for an unknown owner.
func (s *DataService) AppendResponse(username string, answers map[string]models.Answer) (*models.Response, error) {
	if len(answers) == 0 {
		return nil, NewInvalidError("answers required")
	}
	data, err := s.FetchOrInit(username)
	if err != nil {
		if se, ok := AsServiceError(err); ok && se.Code == ErrorNotFound {
			return nil, NewOwnerNotFoundError("survey owner not found")
		}
		return nil, err
	}
	resp := models.Response{
		ID:          s.nextID(),
		SubmittedAt: s.now().UnixMilli(),
		Answers:     answers,
	}
	data.Responses = append(data.Responses, resp)
	if err := s.Replace(username, data); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteSurvey clears the survey and every collected response together.
// The open/closed flag keeps its current value; the record itself stays.
func (s *DataService) DeleteSurvey(username string) error {
	data, err := s.FetchOrInit(username)
	if err != nil {
		return err
	}
	data.Survey = nil
	data.Responses = []models.Response{}
	return s.Replace(username, data)
}

// Package storetest is a conformance suite every registry backend runs.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/suite"

	"regdesk/internal/registration/models"
	"regdesk/pkg/platform/sentinel"
)

// Registry is the contract under test.
type Registry interface {
	Lookup(ctx context.Context, username string) (bool, error)
	Append(ctx context.Context, record *models.Record) error
	ListAll(ctx context.Context) ([]*models.Record, error)
}

// Suite exercises the registry contract against a fresh, empty store per test.
// Embed it and set NewStore.
type Suite struct {
	suite.Suite
	NewStore func() Registry
	store    Registry
	ctx      context.Context
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStore, "NewStore must be set")
	s.store = s.NewStore()
	s.ctx = context.Background()
}

// NewRecord builds a record registered at a fixed UTC second so backends
// with second or microsecond precision round-trip it exactly.
func NewRecord(username string) *models.Record {
	dob := models.Date{Year: 1990, Month: time.February, Day: 3}
	return &models.Record{
		Username:     username,
		Email:        username + "@example.com",
		Phone:        "5551234567",
		DateOfBirth:  &dob,
		Address:      "1 Main St",
		Skills:       []string{"go", "sql"},
		RegisteredAt: time.Now().UTC().Truncate(time.Second),
	}
}

func (s *Suite) TestEmptyRegistry() {
	records, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(records)

	taken, err := s.store.Lookup(s.ctx, "anyone")
	s.Require().NoError(err)
	s.False(taken)
}

func (s *Suite) TestRoundTrip() {
	before := time.Now().UTC().Add(-time.Second)
	in := NewRecord("roundtrip")
	s.Require().NoError(s.store.Append(s.ctx, in))

	records, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	got := records[0]
	s.Equal(in.Username, got.Username)
	s.Equal(in.Email, got.Email)
	s.Equal(in.Phone, got.Phone)
	s.Require().NotNil(got.DateOfBirth)
	s.Equal(*in.DateOfBirth, *got.DateOfBirth)
	s.Equal(in.Address, got.Address)
	s.Equal(in.Skills, got.Skills)
	s.True(in.RegisteredAt.Equal(got.RegisteredAt), "registeredAt %v != %v", in.RegisteredAt, got.RegisteredAt)
	s.False(got.RegisteredAt.Before(before))
}

func (s *Suite) TestOptionalFieldsRoundTrip() {
	in := NewRecord("sparse")
	in.Phone = ""
	in.DateOfBirth = nil
	s.Require().NoError(s.store.Append(s.ctx, in))

	records, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Empty(records[0].Phone)
	s.Nil(records[0].DateOfBirth)
}

func (s *Suite) TestCaseInsensitiveUniqueness() {
	s.Require().NoError(s.store.Append(s.ctx, NewRecord("Alice")))

	for _, variant := range []string{"alice", "ALICE", "aLiCe"} {
		err := s.store.Append(s.ctx, NewRecord(variant))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed, variant)

		taken, err := s.store.Lookup(s.ctx, variant)
		s.Require().NoError(err)
		s.True(taken, variant)
	}

	records, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal("Alice", records[0].Username)
}

func (s *Suite) TestInsertionOrder() {
	names := []string{"charlie", "alpha", "bravo", "delta"}
	for _, n := range names {
		s.Require().NoError(s.store.Append(s.ctx, NewRecord(n)))
	}
	records, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, len(names))
	for i, n := range names {
		s.Equal(n, records[i].Username)
	}
}

func (s *Suite) TestListedRecordsAreCopies() {
	s.Require().NoError(s.store.Append(s.ctx, NewRecord("copyme")))
	first, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	first[0].Skills[0] = "mutated"

	second, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Equal("go", second[0].Skills[0])
}

// TestConcurrentSameUsername verifies exactly one of N racing appends wins.
func (s *Suite) TestConcurrentSameUsername() {
	const goroutines = 32
	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	var unexpected atomic.Value

	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := "racer"
			if i%2 == 1 {
				name = "RACER"
			}
			err := s.store.Append(s.ctx, NewRecord(name))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				conflicts.Add(1)
			default:
				unexpected.Store(err)
			}
		}()
	}
	wg.Wait()

	s.Nil(unexpected.Load())
	s.Equal(int32(1), successes.Load(), "exactly one append should succeed")
	s.Equal(int32(goroutines-1), conflicts.Load())

	records, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *Suite) TestConcurrentDifferentUsernames() {
	const goroutines = 16
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.Append(s.ctx, NewRecord(fmt.Sprintf("user_%02d", i))); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Zero(failures.Load())
	records, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(records, goroutines)
}

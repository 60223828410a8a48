// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store keeps assessment records for the orchestrator service.
//
// # Description
//
// The store is the single shared mutable resource in the service. It is a
// process-local repository: records live until restart and are never
// deleted. All methods return copies, so callers can read and mutate what
// they receive without racing the map.
//
// # Thread Safety
//
// MemoryStore is safe for concurrent use. Updates on the same id are
// serialized by the store's lock; a guarded update (RecordUpdate.IfStatus)
// is checked and applied under that same lock, which is what makes the
// lifecycle engine's check-then-write race-free.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chainsight-ai/chainsight/services/orchestrator/datatypes"
	"github.com/google/uuid"
)

// ErrNotFound is returned when no record exists for the given id.
// Absence is a normal condition; callers branch on it with errors.Is.
var ErrNotFound = errors.New("assessment record not found")

// ErrStaleWrite is returned when a guarded update finds the record in a
// different status than the guard expected. The writer's result must be
// discarded, not retried.
var ErrStaleWrite = errors.New("assessment record status changed since read")

// Store is the repository contract for assessment records.
type Store interface {
	// Create validates that the facts carry at least one supplier, assigns
	// a fresh id and timestamps, and stores the record as pending.
	Create(facts datatypes.AssessmentFacts) (*datatypes.AssessmentRecord, error)

	// Get returns a copy of the record, or ErrNotFound.
	Get(id string) (*datatypes.AssessmentRecord, error)

	// List returns a snapshot of all records, newest first.
	List() []*datatypes.AssessmentRecord

	// Update merges the non-nil fields of upd into the record, refreshes
	// UpdatedAt, and returns the updated copy. Returns ErrNotFound for an
	// unknown id and ErrStaleWrite when upd.IfStatus does not match.
	Update(id string, upd datatypes.RecordUpdate) (*datatypes.AssessmentRecord, error)
}

// MemoryStore is the in-memory Store implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*datatypes.AssessmentRecord

	// seq breaks CreatedAt ties in List ordering when two records are
	// created within the clock's resolution.
	seq     map[string]uint64
	nextSeq uint64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*datatypes.AssessmentRecord),
		seq:     make(map[string]uint64),
	}
}

func (s *MemoryStore) Create(facts datatypes.AssessmentFacts) (*datatypes.AssessmentRecord, error) {
	if len(facts.Suppliers) == 0 {
		return nil, fmt.Errorf("cannot create assessment: suppliers list is empty")
	}

	now := time.Now().UTC()
	rec := &datatypes.AssessmentRecord{
		ID:        uuid.NewString(),
		Facts:     facts,
		Status:    datatypes.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// Defensive copy: the caller keeps its facts slice.
	rec.Facts.Suppliers = append([]datatypes.Supplier(nil), facts.Suppliers...)

	s.mu.Lock()
	s.records[rec.ID] = rec
	s.seq[rec.ID] = s.nextSeq
	s.nextSeq++
	s.mu.Unlock()

	return rec.Clone(), nil
}

func (s *MemoryStore) Get(id string) (*datatypes.AssessmentRecord, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) List() []*datatypes.AssessmentRecord {
	s.mu.RLock()
	out := make([]*datatypes.AssessmentRecord, 0, len(s.records))
	seqs := make(map[string]uint64, len(s.records))
	for id, rec := range s.records {
		out = append(out, rec.Clone())
		seqs[id] = s.seq[id]
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return seqs[out[i].ID] > seqs[out[j].ID]
	})
	return out
}

func (s *MemoryStore) Update(id string, upd datatypes.RecordUpdate) (*datatypes.AssessmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.IfStatus != nil && rec.Status != *upd.IfStatus {
		return nil, fmt.Errorf("%w: have %q, guard wanted %q", ErrStaleWrite, rec.Status, *upd.IfStatus)
	}

	if upd.Status != nil {
		rec.Status = *upd.Status
	}
	if upd.OverallRiskScore != nil {
		v := *upd.OverallRiskScore
		rec.OverallRiskScore = &v
	}
	if upd.SupplierRiskScore != nil {
		v := *upd.SupplierRiskScore
		rec.SupplierRiskScore = &v
	}
	if upd.LogisticsRiskScore != nil {
		v := *upd.LogisticsRiskScore
		rec.LogisticsRiskScore = &v
	}
	if upd.GeopoliticalRiskScore != nil {
		v := *upd.GeopoliticalRiskScore
		rec.GeopoliticalRiskScore = &v
	}
	if upd.Vulnerabilities != nil {
		vs := append([]datatypes.Vulnerability(nil), (*upd.Vulnerabilities)...)
		rec.Vulnerabilities = &vs
	}
	if upd.Recommendations != nil {
		rs := append([]datatypes.Recommendation(nil), (*upd.Recommendations)...)
		rec.Recommendations = &rs
	}
	rec.UpdatedAt = time.Now().UTC()

	return rec.Clone(), nil
}

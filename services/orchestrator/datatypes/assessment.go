// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the wire and storage models for supply-chain
// risk assessments.
//
// The shapes here are shared by three boundaries: the HTTP surface
// (submission and polling), the record store, and the analysis provider
// adapter. Result fields on AssessmentRecord are pointers so that a record
// serializes with explicit nulls until an analysis has been written.
package datatypes

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants for Input Compliance
// =============================================================================

const (
	// MaxFreeTextBytes is the maximum size of any free-text field.
	// Checked in bytes, not runes, to bound memory per request.
	MaxFreeTextBytes = 8 * 1024 // 8KB

	// MaxSuppliersPerRequest is the maximum number of suppliers in one
	// submission.
	MaxSuppliersPerRequest = 100
)

// =============================================================================
// Validator Instance
// =============================================================================

// assessValidate is the validator instance for assessment datatypes.
// Initialized in init() with custom validators.
var assessValidate *validator.Validate

func init() {
	assessValidate = validator.New()

	_ = assessValidate.RegisterValidation("maxbytes", validateMaxBytes)
	_ = assessValidate.RegisterValidation("criticality", validateCriticality)
	_ = assessValidate.RegisterValidation("severity", validateSeverity)
	_ = assessValidate.RegisterValidation("priority", validatePriority)
}

// validateMaxBytes checks that a string field does not exceed MaxFreeTextBytes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxFreeTextBytes
}

func validateCriticality(fl validator.FieldLevel) bool {
	return Criticality(fl.Field().String()).Valid()
}

func validateSeverity(fl validator.FieldLevel) bool {
	return Severity(fl.Field().String()).Valid()
}

func validatePriority(fl validator.FieldLevel) bool {
	return Priority(fl.Field().String()).Valid()
}

// =============================================================================
// Enumerations
// =============================================================================

// Criticality ranks how essential a supplier is to the company.
type Criticality string

const (
	CriticalityHigh   Criticality = "High"
	CriticalityMedium Criticality = "Medium"
	CriticalityLow    Criticality = "Low"
)

func (c Criticality) Valid() bool {
	switch c {
	case CriticalityHigh, CriticalityMedium, CriticalityLow:
		return true
	}
	return false
}

// Severity ranks a vulnerability. Upper-case values match the provider's
// output schema.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Priority ranks a recommendation.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Status is the lifecycle state of an assessment record.
//
// Transitions are monotonic: pending -> processing -> completed|failed.
// A record never returns to an earlier state except through the manual
// retry flow, which resets failed or completed records to pending via PATCH.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the automatic pipeline is done with the record.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// =============================================================================
// Submission Types
// =============================================================================

// Supplier is one supplier entry in a submission.
type Supplier struct {
	Name        string      `json:"name" validate:"required,maxbytes"`
	Location    string      `json:"location" validate:"required,maxbytes"`
	Criticality Criticality `json:"criticality" validate:"required,criticality"`
	Products    string      `json:"products" validate:"maxbytes"`
}

// TransportModes is the set of transport flags for a submission.
// Each flag is independent; all-false is a valid (if unusual) combination.
type TransportModes struct {
	Ocean bool `json:"ocean"`
	Air   bool `json:"air"`
	Truck bool `json:"truck"`
	Rail  bool `json:"rail"`
}

// AssessmentFacts is the immutable input describing one assessment request.
// Facts are validated once at submission time and never mutated afterwards.
type AssessmentFacts struct {
	CompanyName     string         `json:"companyName" validate:"required,maxbytes"`
	Industry        string         `json:"industry" validate:"required,maxbytes"`
	Suppliers       []Supplier     `json:"suppliers" validate:"required,min=1,max=100,dive"`
	LogisticsRoutes string         `json:"logisticsRoutes" validate:"required,maxbytes"`
	TransportModes  TransportModes `json:"transportationMethods"`
	RiskFactors     string         `json:"riskFactors" validate:"required,maxbytes"`
}

// Validate checks the facts against the submission contract: non-empty
// company name, industry, routes and risk factors, and at least one
// fully-specified supplier.
func (f *AssessmentFacts) Validate() error {
	if err := assessValidate.Struct(f); err != nil {
		return fmt.Errorf("invalid assessment facts: %w", err)
	}
	return nil
}

// =============================================================================
// Analysis Result Types
// =============================================================================

// Vulnerability is one weakness identified by the analysis.
type Vulnerability struct {
	ID             string   `json:"id" validate:"required"`
	Title          string   `json:"title" validate:"required"`
	Description    string   `json:"description" validate:"required"`
	Severity       Severity `json:"severity" validate:"required,severity"`
	Score          float64  `json:"score" validate:"min=0,max=10"`
	ImpactTimeline string   `json:"impactTimeline"`
	PotentialCost  string   `json:"potentialCost"`
}

// Recommendation is one mitigation step proposed by the analysis.
type Recommendation struct {
	ID          string   `json:"id" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Timeline    string   `json:"timeline"`
	Priority    Priority `json:"priority" validate:"required,priority"`
}

// AnalysisResult is the structured outcome of one analysis, whether it came
// from the provider or from the fallback analyzer. All four scores are on a
// 0-10 scale.
type AnalysisResult struct {
	OverallRiskScore      float64          `json:"overallRiskScore" validate:"min=0,max=10"`
	SupplierRiskScore     float64          `json:"supplierRiskScore" validate:"min=0,max=10"`
	LogisticsRiskScore    float64          `json:"logisticsRiskScore" validate:"min=0,max=10"`
	GeopoliticalRiskScore float64          `json:"geopoliticalRiskScore" validate:"min=0,max=10"`
	Vulnerabilities       []Vulnerability  `json:"vulnerabilities" validate:"dive"`
	Recommendations       []Recommendation `json:"recommendations" validate:"dive"`
}

// Validate enforces the strict result schema at the provider boundary.
// Any violation is treated as a provider failure upstream; a result is
// never accepted partially.
func (r *AnalysisResult) Validate() error {
	if err := assessValidate.Struct(r); err != nil {
		return fmt.Errorf("analysis result violates schema: %w", err)
	}
	return nil
}

// =============================================================================
// Record Types
// =============================================================================

// AssessmentRecord tracks one assessment through its lifecycle. Records are
// owned exclusively by the store; callers always hold copies.
//
// Score and list fields are pointers: nil until a completed analysis is
// written, and written together in a single update so a reader never
// observes a partial result.
type AssessmentRecord struct {
	ID     string          `json:"id"`
	Facts  AssessmentFacts `json:"facts"`
	Status Status          `json:"status"`

	OverallRiskScore      *float64 `json:"overallRiskScore"`
	SupplierRiskScore     *float64 `json:"supplierRiskScore"`
	LogisticsRiskScore    *float64 `json:"logisticsRiskScore"`
	GeopoliticalRiskScore *float64 `json:"geopoliticalRiskScore"`

	Vulnerabilities *[]Vulnerability  `json:"vulnerabilities"`
	Recommendations *[]Recommendation `json:"recommendations"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy. The store hands out clones so that concurrent
// readers never alias the map's backing structs.
func (r *AssessmentRecord) Clone() *AssessmentRecord {
	cp := *r

	cp.Facts.Suppliers = append([]Supplier(nil), r.Facts.Suppliers...)
	if r.OverallRiskScore != nil {
		v := *r.OverallRiskScore
		cp.OverallRiskScore = &v
	}
	if r.SupplierRiskScore != nil {
		v := *r.SupplierRiskScore
		cp.SupplierRiskScore = &v
	}
	if r.LogisticsRiskScore != nil {
		v := *r.LogisticsRiskScore
		cp.LogisticsRiskScore = &v
	}
	if r.GeopoliticalRiskScore != nil {
		v := *r.GeopoliticalRiskScore
		cp.GeopoliticalRiskScore = &v
	}
	if r.Vulnerabilities != nil {
		vs := append([]Vulnerability(nil), (*r.Vulnerabilities)...)
		cp.Vulnerabilities = &vs
	}
	if r.Recommendations != nil {
		rs := append([]Recommendation(nil), (*r.Recommendations)...)
		cp.Recommendations = &rs
	}
	return &cp
}

// RecordUpdate is a partial update for one record. Nil fields are left
// untouched by the merge.
//
// IfStatus is an optional guard: when set, the merge applies only if the
// record's current status equals the guard value. The store rejects stale
// writers with ErrStaleWrite, which is how a late analysis result is
// prevented from overwriting an already-completed record.
type RecordUpdate struct {
	Status *Status `json:"status,omitempty"`

	OverallRiskScore      *float64 `json:"overallRiskScore,omitempty"`
	SupplierRiskScore     *float64 `json:"supplierRiskScore,omitempty"`
	LogisticsRiskScore    *float64 `json:"logisticsRiskScore,omitempty"`
	GeopoliticalRiskScore *float64 `json:"geopoliticalRiskScore,omitempty"`

	Vulnerabilities *[]Vulnerability  `json:"vulnerabilities,omitempty"`
	Recommendations *[]Recommendation `json:"recommendations,omitempty"`

	IfStatus *Status `json:"-"`
}

// Validate checks the update's enum fields. Used by the PATCH handler;
// internal callers construct updates from already-valid values.
func (u *RecordUpdate) Validate() error {
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("invalid status %q", *u.Status)
	}
	for _, v := range deref(u.Vulnerabilities) {
		if !v.Severity.Valid() {
			return fmt.Errorf("invalid severity %q", v.Severity)
		}
	}
	for _, rec := range deref(u.Recommendations) {
		if !rec.Priority.Valid() {
			return fmt.Errorf("invalid priority %q", rec.Priority)
		}
	}
	return nil
}

func deref[T any](p *[]T) []T {
	if p == nil {
		return nil
	}
	return *p
}

// CompletionUpdate builds the single atomic update that moves a record into
// completed with the given result attached.
func CompletionUpdate(result *AnalysisResult) RecordUpdate {
	status := StatusCompleted
	guard := StatusProcessing
	vulns := append([]Vulnerability(nil), result.Vulnerabilities...)
	recs := append([]Recommendation(nil), result.Recommendations...)
	return RecordUpdate{
		Status:                &status,
		OverallRiskScore:      &result.OverallRiskScore,
		SupplierRiskScore:     &result.SupplierRiskScore,
		LogisticsRiskScore:    &result.LogisticsRiskScore,
		GeopoliticalRiskScore: &result.GeopoliticalRiskScore,
		Vulnerabilities:       &vulns,
		Recommendations:       &recs,
		IfStatus:              &guard,
	}
}

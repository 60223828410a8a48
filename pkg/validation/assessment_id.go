// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for user-supplied
// identifiers.
//
// Path parameters end up in structured log lines and error messages;
// validating their shape up front keeps arbitrary input out of both and
// turns malformed ids into clean 400s instead of lookups that can never
// succeed.
package validation

import (
	"fmt"
	"regexp"
)

// assessmentIDPattern matches the UUID v4 ids the store assigns.
var assessmentIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateAssessmentID validates an assessment record id from a URL path.
//
// Valid ids are lowercase hyphenated UUIDs, exactly as issued at record
// creation. Returns an error if the id is empty or malformed.
//
// Example:
//
//	if err := validation.ValidateAssessmentID(id); err != nil {
//	    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
//	    return
//	}
func ValidateAssessmentID(id string) error {
	if id == "" {
		return fmt.Errorf("assessment id cannot be empty")
	}
	if !assessmentIDPattern.MatchString(id) {
		return fmt.Errorf("invalid assessment id format")
	}
	return nil
}

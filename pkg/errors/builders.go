// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	stderrors "errors"
	"fmt"
)

// NewConfigError builds a CategoryConfiguration error (missing resource
// type, duplicate group name, duplicate factory attribute name).
func NewConfigError(code ErrorCode, message string, details ...string) *SimError {
	err := NewSimError(code, message)
	if len(details) > 0 {
		err.Details = joinDetails(details)
	}
	return err
}

// NewAdmissionError builds a CategoryAdmission error: a job submitted with
// queued_time < current_time, or missing a mandatory field after renaming.
func NewAdmissionError(code ErrorCode, jobID, message string) *SimError {
	err := NewSimError(code, message)
	err.JobID = jobID
	return err
}

// NewAccountingError builds a CategoryAccounting error: resource overflow,
// underflow, dispatch-time mismatch, or duplicate finish.
func NewAccountingError(code ErrorCode, jobID, nodeID, resource, message string) *SimError {
	err := NewSimError(code, message)
	err.JobID = jobID
	err.NodeID = nodeID
	err.Resource = resource
	return err
}

// NewPolicyRejectedError builds the soft CategoryPolicy error raised when
// the Resource Manager rejects a scheduler-proposed allocation.
func NewPolicyRejectedError(jobID string, cause error) *SimError {
	return NewSimErrorWithCause(ErrorCodePolicyRejected, fmt.Sprintf("allocation rejected for job %s", jobID), cause)
}

// NewMissingAttributeError builds the soft CategoryAttribute error raised
// when a format placeholder references an attribute missing on the job.
func NewMissingAttributeError(jobID, attribute string) *SimError {
	err := NewSimError(ErrorCodeMissingAttribute, fmt.Sprintf("attribute %q not present on job", attribute))
	err.JobID = jobID
	return err
}

func joinDetails(details []string) string {
	out := ""
	for i, d := range details {
		if i > 0 {
			out += "; "
		}
		out += d
	}
	return out
}

// IsFatal reports whether err, if a *SimError, represents one of the three
// fatal kinds (configuration, admission, accounting). A non-SimError is
// treated as fatal — an unclassified error has no recovery path.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var simErr *SimError
	if stderrors.As(err, &simErr) {
		return simErr.IsFatal()
	}
	return true
}

// Code extracts the ErrorCode from any error, returning ErrorCodeUnknown
// if err is not a *SimError.
func Code(err error) ErrorCode {
	var simErr *SimError
	if stderrors.As(err, &simErr) {
		return simErr.Code
	}
	return ErrorCodeUnknown
}

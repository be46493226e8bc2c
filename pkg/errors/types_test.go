// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimError_Error(t *testing.T) {
	withDetails := &SimError{Code: ErrorCodeResourceOverflow, Message: "overflow", Details: "node n1, resource core"}
	assert.Equal(t, "[RESOURCE_OVERFLOW] overflow: node n1, resource core", withDetails.Error())

	withoutDetails := &SimError{Code: ErrorCodeMissingResourceType, Message: "mem missing"}
	assert.Equal(t, "[MISSING_RESOURCE_TYPE] mem missing", withoutDetails.Error())
}

func TestSimError_Unwrap(t *testing.T) {
	cause := stderrors.New("underlying")
	err := NewSimErrorWithCause(ErrorCodeDispatchTimeMismatch, "mismatch", cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestSimError_Is(t *testing.T) {
	a := NewSimError(ErrorCodePolicyRejected, "rejected 1")
	b := NewSimError(ErrorCodePolicyRejected, "rejected 2")
	c := NewSimError(ErrorCodeDuplicateFinish, "dup")

	assert.True(t, a.Is(b))
	assert.False(t, a.Is(c))
}

func TestNewSimError_CategoryAndRetryable(t *testing.T) {
	cases := []struct {
		code      ErrorCode
		category  ErrorCategory
		retryable bool
	}{
		{ErrorCodeMissingResourceType, CategoryConfiguration, false},
		{ErrorCodeOutOfOrderSubmit, CategoryAdmission, false},
		{ErrorCodeResourceOverflow, CategoryAccounting, false},
		{ErrorCodePolicyRejected, CategoryPolicy, true},
		{ErrorCodeMissingAttribute, CategoryAttribute, true},
	}

	for _, tc := range cases {
		err := NewSimError(tc.code, "msg")
		assert.Equal(t, tc.category, err.Category, tc.code)
		assert.Equal(t, tc.retryable, err.IsRetryable(), tc.code)
		assert.Equal(t, !tc.retryable, err.IsFatal(), tc.code)
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(NewSimError(ErrorCodeResourceUnderflow, "underflow")))
	assert.False(t, IsFatal(NewSimError(ErrorCodeMissingAttribute, "missing")))
	assert.True(t, IsFatal(stderrors.New("unclassified")))
	assert.False(t, IsFatal(nil))
}

func TestCode(t *testing.T) {
	assert.Equal(t, ErrorCodeResourceOverflow, Code(NewSimError(ErrorCodeResourceOverflow, "x")))
	assert.Equal(t, ErrorCodeUnknown, Code(stderrors.New("plain")))
}

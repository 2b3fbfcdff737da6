// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "without cause",
			err:      New(ErrCodeUnavailable, "no head node reachable"),
			expected: "[SERVICE_UNAVAILABLE] no head node reachable",
		},
		{
			name:     "with cause",
			err:      Wrap(ErrCodeUnauthorized, "client certificate rejected", stderrors.New("tls: bad certificate")),
			expected: "[UNAUTHORIZED] client certificate rejected: tls: bad certificate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestStructuredError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeUnavailable, "head node probe failed", cause)

	assert.True(t, stderrors.Is(err, cause))

	var se *StructuredError
	assert.True(t, stderrors.As(fmt.Errorf("cycle failed: %w", err), &se))
	assert.Equal(t, ErrCodeUnavailable, se.Code)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, CodeOf(New(ErrCodeNotFound, "device missing")))
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("plain error")))

	wrapped := fmt.Errorf("outer: %w", New(ErrCodeUnauthorized, "bad certs"))
	assert.Equal(t, ErrCodeUnauthorized, CodeOf(wrapped))
}

func TestIsCode(t *testing.T) {
	err := Wrap(ErrCodeUnavailable, "targets dir missing", stderrors.New("stat: no such file"))

	assert.True(t, IsCode(err, ErrCodeUnavailable))
	assert.False(t, IsCode(err, ErrCodeUnauthorized))
	assert.False(t, IsCode(nil, ErrCodeUnavailable))
}

func TestWrapWithContext(t *testing.T) {
	err := WrapWithContext(ErrCodeInternal, "start failed", stderrors.New("dbus timeout"), map[string]any{
		"service": "node_exporter.service",
		"attempt": 2,
	})

	assert.Equal(t, "node_exporter.service", err.Context["service"])
	assert.Equal(t, 2, err.Context["attempt"])
}

package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type memberBody struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

func newBodyContext(body string) *gin.Context {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    memberBody
		expectError bool
	}{
		{
			name:     "Nested Structure",
			key:      "member",
			body:     `{"member": {"name": "Alice", "phone": "0700000001"}}`,
			expected: memberBody{Name: "Alice", Phone: "0700000001"},
		},
		{
			name:     "Flat Structure",
			key:      "member",
			body:     `{"name": "Bob", "phone": "0700000002"}`,
			expected: memberBody{Name: "Bob", Phone: "0700000002"},
		},
		{
			name:     "Missing Key Falls Back To Flat",
			key:      "member",
			body:     `{"other": "value", "name": "Charlie", "phone": "0700000003"}`,
			expected: memberBody{Name: "Charlie", Phone: "0700000003"},
		},
		{
			name:        "Invalid Type",
			key:         "member",
			body:        `{"name": 42}`,
			expectError: true,
		},
		{
			name:        "Nested Key Present but Invalid Type",
			key:         "member",
			body:        `{"member": "some string"}`,
			expectError: true,
		},
		{
			name:        "Empty Body",
			key:         "member",
			body:        "  ",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result memberBody
			err := BindNestedOrFlat(newBodyContext(tt.body), tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestBindRequest_Validates(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var ok memberBody
	assert.NoError(t, bindRequest(newBodyContext(`{"member": {"name": "Alice", "phone": "1"}}`), "member", &ok))

	var missing memberBody
	assert.Error(t, bindRequest(newBodyContext(`{"name": "Alice"}`), "member", &missing))

	var empty memberBody
	assert.ErrorIs(t, bindRequest(newBodyContext(""), "member", &empty), ErrEmptyBody)
}

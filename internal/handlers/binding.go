package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ErrEmptyBody is returned when a request that needs a body has none
var ErrEmptyBody = errors.New("request body is required")

// BindNestedOrFlat decodes the request body into obj. A body wrapped in
// an object under key ({"loan": {...}}) is unwrapped first; otherwise the
// whole body is decoded. The body is restored for later reads.
func BindNestedOrFlat(c *gin.Context, key string, obj interface{}) error {
	var bodyBytes []byte
	if c.Request.Body != nil {
		bodyBytes, _ = io.ReadAll(c.Request.Body)
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	if len(bytes.TrimSpace(bodyBytes)) == 0 {
		return ErrEmptyBody
	}

	var nestedMap map[string]json.RawMessage
	if err := json.Unmarshal(bodyBytes, &nestedMap); err == nil {
		if val, ok := nestedMap[key]; ok {
			return json.Unmarshal(val, obj)
		}
	}
	return json.Unmarshal(bodyBytes, obj)
}

// bindRequest decodes a nested or flat body and runs the binding tags
func bindRequest(c *gin.Context, key string, obj interface{}) error {
	if err := BindNestedOrFlat(c, key, obj); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(obj)
}

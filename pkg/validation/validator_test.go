package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type item struct {
	Title string `json:"title" validate:"required,max=5"`
}

type payload struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"strongpwd"`
	Status   string   `json:"status" validate:"omitempty,oneof=todo done"`
	Hours    float64  `json:"hours" validate:"gte=0,max=10"`
	Tags     []string `json:"tags" validate:"max=1"`
	Items    []item   `json:"items" validate:"dive"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	Configure(v)
	return v
}

func TestToDetailsUsesJSONPaths(t *testing.T) {
	err := newValidate().Struct(payload{
		Email:    "nope",
		Password: "short",
		Status:   "later",
		Hours:    11,
		Tags:     []string{"a", "b"},
		Items:    []item{{Title: ""}},
	})
	d := ToDetails(err)

	assert.Equal(t, "must be a valid email", d["email"])
	assert.Contains(t, d["password"], "8 to 72 characters")
	assert.Equal(t, "must be one of: todo, done", d["status"])
	assert.Equal(t, "must be at most 10", d["hours"])
	assert.Equal(t, "must contain at most 1 items", d["tags"])
	assert.Equal(t, "is required", d["items[0].title"])
}

func TestToDetailsJSONErrors(t *testing.T) {
	var p payload
	err := json.Unmarshal([]byte(`{"email":`), &p)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))

	err = json.Unmarshal([]byte(`{"hours":"x"}`), &p)
	assert.Equal(t, map[string]string{"hours": "must be a float64"}, ToDetails(err))

	assert.Nil(t, ToDetails(nil))
}

package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type request struct {
	CRS       string `validate:"omitempty,crs"`
	Statistic string `validate:"required,statistic"`
	JoinType  string `validate:"omitempty,jointype"`
}

func TestValidate_CustomTags(t *testing.T) {
	assert.NoError(t, Validate(request{CRS: "epsg:4326", Statistic: "mean", JoinType: "left"}))
	assert.NoError(t, Validate(request{Statistic: "sum"}))

	assert.NoError(t, Validate(request{CRS: "EPSG:2154", Statistic: "sum"}))
	assert.Error(t, Validate(request{CRS: "EPSG:999999", Statistic: "sum"}))
	assert.Error(t, Validate(request{Statistic: "median"}))
	assert.Error(t, Validate(request{Statistic: "max", JoinType: "cross"}))
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("EPSG:6933", "crs"))
	assert.Error(t, Var("", "required"))
}

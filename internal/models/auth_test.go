package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRole(t *testing.T) {
	cases := map[string]UserRole{
		"talent":           RoleTalent,
		"University Staff": RoleUniversityStaff,
		"university_staff": RoleUniversityStaff,
		" Admin ":          RoleAdmin,
		"Recruiter":        RoleRecruiter,
		"":                 "",
		"superuser":        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeRole(in), in)
	}
}

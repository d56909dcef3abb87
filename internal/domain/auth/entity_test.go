package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorFromClaims(t *testing.T) {
	actor, err := ActorFromClaims(map[string]interface{}{
		"user_id":     "u-1",
		"employee_id": "e-1",
		"role":        "employee",
	})
	require.NoError(t, err)
	assert.Equal(t, Actor{UserID: "u-1", EmployeeID: "e-1", Role: RoleEmployee}, actor)
	assert.False(t, actor.IsManager())

	_, err = ActorFromClaims(map[string]interface{}{"user_id": "u-1", "role": "pending"})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ActorFromClaims(map[string]interface{}{"role": "owner"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveEmployee(t *testing.T) {
	employee := Actor{UserID: "u-1", EmployeeID: "e-1", Role: RoleEmployee}
	manager := Actor{UserID: "u-2", EmployeeID: "e-2", Role: RoleManager}
	owner := Actor{UserID: "u-3", Role: RoleOwner}

	tests := []struct {
		name      string
		actor     Actor
		requested string
		want      string
		wantErr   error
	}{
		{"self by default", employee, "", "e-1", nil},
		{"self explicitly", employee, "e-1", "e-1", nil},
		{"employee on behalf of other", employee, "e-9", "", ErrEmployeeMismatch},
		{"manager on behalf of other", manager, "e-9", "e-9", nil},
		{"owner without employee", owner, "", "", ErrNoEmployeeLinked},
		{"owner on behalf of other", owner, "e-9", "e-9", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.actor.ResolveEmployee(tt.requested)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

package middleware

import (
	"fmt"

	"github.com/fittrack/pkg/apperrors"
	"github.com/fittrack/pkg/response"
	"github.com/gin-gonic/gin"
)

// Capability is the access level an operation demands.
type Capability int

const (
	// CapPublic operations accept anonymous requests
	CapPublic Capability = iota
	// CapAuthenticated operations require a logged-in user
	CapAuthenticated
	// CapTrainer operations require a user with the trainer flag
	CapTrainer
)

// policy maps "resource.operation" to the capability that guards it. Every
// mutating route declares itself here explicitly instead of inheriting a
// default from the router group.
var policy = map[string]Capability{
	"users.read":   CapAuthenticated,
	"users.update": CapAuthenticated,

	"goals.create": CapAuthenticated,
	"goals.read":   CapAuthenticated,
	"goals.update": CapAuthenticated,
	"goals.delete": CapAuthenticated,

	"exercises.read":        CapAuthenticated,
	"exercises.create":      CapTrainer,
	"exercises.bulk_create": CapTrainer,
	"exercises.update":      CapTrainer,
	"exercises.delete":      CapTrainer,

	"workout_plans.read":   CapAuthenticated,
	"workout_plans.create": CapTrainer,
	"workout_plans.update": CapTrainer,
	"workout_plans.delete": CapTrainer,

	"workout_exercises.create":      CapTrainer,
	"workout_exercises.update":      CapTrainer,
	"workout_exercises.bulk_update": CapTrainer,
	"workout_exercises.delete":      CapTrainer,

	"recommendations.read": CapAuthenticated,
}

// Require enforces the declared capability for resource.operation. It panics
// on an undeclared pair so a missing policy entry fails at startup, not at
// request time.
func Require(resource, operation string) gin.HandlerFunc {
	key := fmt.Sprintf("%s.%s", resource, operation)
	capability, ok := policy[key]
	if !ok {
		panic(fmt.Sprintf("no authorization policy declared for %s", key))
	}

	return func(c *gin.Context) {
		if capability == CapPublic {
			c.Next()
			return
		}
		if !IsAuthenticated(c) {
			response.Unauthorized(c, "authentication required, please log in again")
			c.Abort()
			return
		}
		if capability == CapTrainer && !IsTrainer(c) {
			response.FromError(c, apperrors.Permission("only trainers can perform this action"))
			c.Abort()
			return
		}
		c.Next()
	}
}

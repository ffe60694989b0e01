// Package schema compiles CUE domain profiles and validates attribute
// operations against them.
//
// A profile declares the domain types a recording application uses for
// its agents, activities, and entities, each with typed attribute
// fields. Validation is a boundary concern: callers check a batch before
// submitting it, but the apply engine itself never requires a profile
// (the model stays open world).
package schema

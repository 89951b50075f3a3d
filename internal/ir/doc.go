// Package ir provides the value and declaration types exchanged between
// the runtime and the external core.
//
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Values are a sealed sum type (IRValue); messages and models are opaque
//   - Declared unions use the wire shape {"type": tag, "config": payload}
//   - Unknown tags decode successfully and are reported downstream
//   - Equality is structural (Equal), never reference identity
package ir

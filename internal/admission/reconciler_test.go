package admission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rollcall/internal/attendance"
)

func TestReconcile(t *testing.T) {
	t.Run("no prior record inserts", func(t *testing.T) {
		got := Reconcile(nil)
		assert.Equal(t, ActionInsert, got.Action)
		assert.Nil(t, got.Prior)
	})

	t.Run("valid prior refuses", func(t *testing.T) {
		prior := &attendance.Record{IsValid: true, Status: attendance.StatusApproved}
		got := Reconcile(prior)
		assert.Equal(t, ActionRefuse, got.Action)
		assert.Same(t, prior, got.Prior)
	})

	t.Run("invalid prior is overwritten", func(t *testing.T) {
		prior := &attendance.Record{IsValid: false, Status: attendance.StatusRejected}
		got := Reconcile(prior)
		assert.Equal(t, ActionOverwrite, got.Action)
		assert.Same(t, prior, got.Prior)
	})

	t.Run("invalid prior with approved review status is still overwritten", func(t *testing.T) {
		// Validity, not review status, drives reconciliation.
		prior := &attendance.Record{IsValid: false, Status: attendance.StatusApproved}
		got := Reconcile(prior)
		assert.Equal(t, ActionOverwrite, got.Action)
	})
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: sid 9", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: sid 9", domain.ErrDuplicateSid), http.StatusConflict},
		{domain.ErrMonitorBusy, http.StatusConflict},
		{domain.ErrInvalidSid, http.StatusBadRequest},
		{&domain.ParseError{Reason: "missing sid"}, http.StatusBadRequest},
		{domain.ErrSignatureNoHash, http.StatusBadRequest},
		{fmt.Errorf("%w: permission denied", domain.ErrAccess), http.StatusForbidden},
		{domain.ErrCancelled, http.StatusRequestTimeout},
		{fmt.Errorf("%w: disk full", domain.ErrStorage), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lukman83/dealdesk/internal/apperr"
)

func TestCodeOf(t *testing.T) {
	rq := require.New(t)

	base := apperr.New(apperr.NotFound, "deal not found: x")
	wrapped := fmt.Errorf("update: %w", base)

	rq.Equal(apperr.NotFound, apperr.CodeOf(wrapped))
	rq.True(apperr.HasCode(wrapped, apperr.NotFound))
	rq.False(apperr.HasCode(wrapped, apperr.Conflict))
	rq.Equal(apperr.Internal, apperr.CodeOf(errors.New("plain")))
	rq.ErrorIs(wrapped, apperr.New(apperr.NotFound, ""))
	rq.NotErrorIs(wrapped, apperr.New(apperr.Conflict, ""))
}

func TestWrapMessage(t *testing.T) {
	rq := require.New(t)

	cause := errors.New("disk full")
	err := apperr.Wrap(cause, apperr.Internal, "save deals")

	rq.EqualError(err, "save deals: disk full")
	rq.ErrorIs(err, cause)
}

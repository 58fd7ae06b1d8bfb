package helpers

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestFoldErrors(t *testing.T) {
	t.Parallel()

	single := errors.NotFoundf("config name=kiosk.hcl")
	assert.NoError(t, FoldErrors(nil))
	assert.NoError(t, FoldErrors([]error{nil, nil}))
	assert.Equal(t, single, FoldErrors([]error{nil, single}))
	err := FoldErrors([]error{errors.New("first"), nil, errors.New("second")})
	assert.EqualError(t, err, "first\nsecond")
}

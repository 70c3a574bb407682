package user

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidSubscription(t *testing.T) {
	assert.True(t, ValidSubscription(SubscriptionStarter))
	assert.True(t, ValidSubscription(SubscriptionPro))
	assert.True(t, ValidSubscription(SubscriptionBusiness))

	assert.False(t, ValidSubscription(""))
	assert.False(t, ValidSubscription("premium"))
	assert.False(t, ValidSubscription("Starter"))
}

func TestParseID(t *testing.T) {
	id := uuid.New()

	parsed, err := ParseID(id.String())
	assert.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("not-a-uuid")
	assert.Error(t, err)

	_, err = ParseID("")
	assert.Error(t, err)
}

package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestLatestFinalizedQuery(t *testing.T) {
	filter, opts := latestFinalizedQuery("u1", 2)

	assert.Equal(t, bson.D{
		{Key: "finalized", Value: true},
		{Key: "userId", Value: bson.D{{Key: "$ne", Value: "u1"}}},
	}, filter)
	if assert.NotNil(t, opts.Limit) {
		assert.EqualValues(t, 2, *opts.Limit)
	}
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, opts.Sort)
}

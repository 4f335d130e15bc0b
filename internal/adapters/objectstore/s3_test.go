package objectstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"

	"fleetops/internal/domain"
)

func TestMapErr(t *testing.T) {
	err := mapErr("a/b.pdf", &types.NoSuchKey{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = mapErr("a/b.pdf", errors.New("connection reset"))
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "a/b.pdf")
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), Options{Region: "eu-north-1"})
	assert.Error(t, err)
}

func TestUnconfiguredIsUnavailable(t *testing.T) {
	var store Unconfigured
	assert.ErrorIs(t, store.Put(context.Background(), "k", nil, 0, "text/plain"), domain.ErrUnavailable)
	_, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	_, err = store.PresignGet(context.Background(), "k", 0)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

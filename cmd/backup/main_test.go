package main

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
)

func TestBackupKey(t *testing.T) {
	ts := time.Date(2026, 3, 1, 4, 5, 6, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "backups/backup-2026-03-01T03-05-06Z.sql.gz", backupKey(ts))
}

func TestStaleBackups(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	obj := func(key string, day int) types.Object {
		return types.Object{Key: aws.String(key), LastModified: aws.Time(base.AddDate(0, 0, day))}
	}
	objs := []types.Object{obj("b", 2), obj("d", 4), obj("a", 1), obj("c", 3)}

	stale := staleBackups(objs, 2)
	var keys []string
	for _, o := range stale {
		keys = append(keys, aws.ToString(o.Key))
	}
	assert.Equal(t, []string{"b", "a"}, keys)

	assert.Empty(t, staleBackups(objs, 4))
	assert.Empty(t, staleBackups(objs, 10))
	assert.Len(t, staleBackups(objs, -1), 4)
}

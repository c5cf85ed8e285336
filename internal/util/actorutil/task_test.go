package actorutil

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackgroundTaskSuccessValue(t *testing.T) {
	assert := assert.New(t)

	var got int
	value := 42
	NewBackgroundTask(nil, func() (*int, error) {
		return &value, nil
	}).OnSuccess(func(v int) {
		got = v
	}).Run()

	assert.Equal(42, got)
}

func TestBackgroundTaskRecoveredValueReachesOnSuccess(t *testing.T) {
	assert := assert.New(t)

	var got string
	NewBackgroundTask(nil, func() (*string, error) {
		return nil, errors.New("boom")
	}).Recover(func(err error) string {
		return "recovered: " + err.Error()
	}).OnSuccess(func(v string) {
		got = v
	}).Run()

	assert.Equal("recovered: boom", got)
}

func TestBackgroundTaskTimeoutIsRecovered(t *testing.T) {
	assert := assert.New(t)

	var got string
	NewBackgroundTask(nil, func() (*string, error) {
		time.Sleep(2 * time.Second)
		value := "too late"
		return &value, nil
	}).WithTimeout(50 * time.Millisecond).Recover(func(err error) string {
		return "timed out"
	}).OnSuccess(func(v string) {
		got = v
	}).Run()

	assert.Equal("timed out", got)
}

func TestBackgroundTaskErrorWithoutRecoverSkipsOnSuccess(t *testing.T) {
	assert := assert.New(t)

	var gotErr error
	called := false
	NewBackgroundTask(nil, func() (*int, error) {
		return nil, errors.New("boom")
	}).OnError(func(err error) {
		gotErr = err
	}).OnSuccess(func(int) {
		called = true
	}).Run()

	assert.EqualError(gotErr, "boom")
	assert.False(called)
}

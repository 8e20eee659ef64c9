// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"gopkg.in/typ.v4/sync2"
)

// Pool reusable objects to reduce garbage collector
type Pool struct {
	WaitingEntries *sync2.Pool[[]WaitingEntry]
}

func NewPool() *Pool {
	return &Pool{
		WaitingEntries: &sync2.Pool[[]WaitingEntry]{
			New: func() []WaitingEntry {
				return make([]WaitingEntry, 0, 32)
			},
		},
	}
}

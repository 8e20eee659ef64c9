// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matcher

import "time"

// elapsedTimer measures the wall time of one start/end window.
type elapsedTimer struct {
	startedAt time.Time
	endedAt   time.Time
}

func (t *elapsedTimer) start() {
	t.startedAt = time.Now()
}

func (t *elapsedTimer) end() {
	t.endedAt = time.Now()
}

func (t *elapsedTimer) elapsed() time.Duration {
	return t.endedAt.Sub(t.startedAt)
}

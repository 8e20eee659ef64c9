// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package utils

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// GenerateUlid generates a lexicographically sortable id, used for settlement
// records so persisted settlements sort by time.
func GenerateUlid() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.DefaultEntropy()).String()
}

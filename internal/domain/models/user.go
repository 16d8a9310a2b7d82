// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package models

import "time"

type User struct {
	ID            int64
	Email         string
	PassHash      []byte
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

package common

import "time"

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "token"

// SessionCookieMaxAge is the lifetime the signin/signup/reset flows give the
// session cookie.
const SessionCookieMaxAge = 365 * 24 * time.Hour

// ResetTokenValidity is how long a password reset token stays usable.
const ResetTokenValidity = time.Hour

// ResetTokenBytes is the amount of randomness behind a reset token before hex
// encoding.
const ResetTokenBytes = 20

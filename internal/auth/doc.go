// Package auth implements email verification and user sessions for
// IoT Connect Core.
//
// An email address becomes an account in two steps. RequestVerification
// stores a hashed five-letter code and mails the code out of band; Verify
// checks the code in constant time, upserts the user and returns a signed
// session. Sessions are HS256 JWTs that carry the email and are trusted
// without a database round trip.
//
// The package also owns secret hashing (Argon2id) used for device passes.
package auth
